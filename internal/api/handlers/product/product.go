package product

import (
	"net/http"
	"strings"

	core "product-resolver/internal/core/product"
	"product-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 商品解析處理程序
type Handler struct {
	resolver *core.Resolver
}

// NewHandler 創建商品解析處理程序
func NewHandler(resolver *core.Resolver) *Handler {
	return &Handler{
		resolver: resolver,
	}
}

// RegenerateRequest AI 重生成請求
type RegenerateRequest struct {
	Query string `json:"query" binding:"required"` // 查詢文字
}

// SearchResponse 搜尋回應
type SearchResponse struct {
	Query    string                  `json:"query"`
	Count    int                     `json:"count"`
	Products []core.CanonicalProduct `json:"products"`
}

// HandleSearch 自由文字搜尋商品
func (h *Handler) HandleSearch(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		common.LogError("搜尋請求缺少查詢文字",
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	common.LogInfo("開始處理商品搜尋請求",
		zap.String("request_id", requestID),
		zap.String("query", query),
		zap.String("client_ip", c.ClientIP()),
	)

	// 管線保證不拋錯：失敗一律退化為較少或零筆結果
	products := h.resolver.SearchProducts(c.Request.Context(), query)

	common.LogInfo("商品搜尋完成",
		zap.String("request_id", requestID),
		zap.String("query", query),
		zap.Int("count", len(products)),
	)

	c.JSON(http.StatusOK, SearchResponse{
		Query:    query,
		Count:    len(products),
		Products: products,
	})
}

// HandleBarcode 以條碼查詢單一商品
func (h *Handler) HandleBarcode(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	barcode := strings.TrimSpace(c.Param("code"))
	if barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing barcode"})
		return
	}

	common.LogInfo("開始處理條碼查詢請求",
		zap.String("request_id", requestID),
		zap.String("barcode", barcode),
		zap.String("client_ip", c.ClientIP()),
	)

	product := h.resolver.GetProductByBarcode(c.Request.Context(), barcode)
	if product == nil {
		common.LogInfo("條碼查詢無結果",
			zap.String("request_id", requestID),
			zap.String("barcode", barcode),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
			"code":  common.ErrCodeNotFound,
		})
		return
	}

	common.LogInfo("條碼查詢成功",
		zap.String("request_id", requestID),
		zap.String("barcode", barcode),
		zap.String("name", product.Identity.Name),
	)

	c.JSON(http.StatusOK, product)
}

// HandleRegenerate 以 AI 重生成單一商品（跳過結構化來源）
func (h *Handler) HandleRegenerate(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}

	common.LogInfo("開始處理 AI 重生成請求",
		zap.String("request_id", requestID),
		zap.String("query", query),
		zap.String("client_ip", c.ClientIP()),
	)

	product := h.resolver.RegenerateProduct(c.Request.Context(), query)
	if product == nil {
		common.LogInfo("AI 重生成無結果",
			zap.String("request_id", requestID),
			zap.String("query", query),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Unable to synthesize product",
			"code":  common.ErrCodeNotFound,
		})
		return
	}

	common.LogInfo("AI 重生成成功",
		zap.String("request_id", requestID),
		zap.String("query", query),
		zap.String("name", product.Identity.Name),
	)

	c.JSON(http.StatusOK, product)
}
