package catalog

import (
	"context"
	"fmt"
	"net/http"

	"product-resolver/internal/infrastructure/config"
	"product-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Product 商品目錄的原始商品結構（Open Food Facts 風格）
type Product struct {
	Code               string                 `json:"code"`
	ProductName        string                 `json:"product_name"`
	Brands             string                 `json:"brands"`
	Categories         string                 `json:"categories"`
	GenericName        string                 `json:"generic_name"`
	ImageFrontURL      string                 `json:"image_front_url"`
	ImageFrontThumbURL string                 `json:"image_front_thumb_url"`
	NutriScoreGrade    string                 `json:"nutriscore_grade"`
	EcoScoreGrade      string                 `json:"ecoscore_grade"`
	NovaGroup          int                    `json:"nova_group"`
	Nutriments         map[string]interface{} `json:"nutriments"`
	IngredientsTags    []string               `json:"ingredients_tags"`
	FlavorsTags        []string               `json:"flavours_tags"`
}

// searchResponse 搜尋回應
type searchResponse struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
}

// barcodeResponse 條碼查詢回應，status 為 0 代表查無商品
type barcodeResponse struct {
	Status  int      `json:"status"`
	Product *Product `json:"product"`
}

// Client 商品目錄客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建商品目錄客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Catalog.BaseURL).
		SetTimeout(cfg.Catalog.Timeout).
		SetHeader("User-Agent", "product-resolver/1.0")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Search 以自由文字搜尋商品，查無資料時回傳空切片
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
			"page_size":     fmt.Sprintf("%d", c.config.Catalog.PageSize),
		}).
		SetResult(&result).
		Get("/cgi/search.pl")

	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("商品目錄回應錯誤",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("query", query),
		)
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
	}

	common.LogDebug("商品目錄搜尋完成",
		zap.String("query", query),
		zap.Int("count", len(result.Products)),
	)

	return result.Products, nil
}

// ByBarcode 以條碼精確查詢單一商品，查無資料時回傳 nil
func (c *Client) ByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var result barcodeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v2/product/%s.json", barcode))

	if err != nil {
		return nil, fmt.Errorf("failed to fetch barcode %s: %w", barcode, err)
	}

	// 查無商品時目錄回傳 404 加 status 0，兩者都視為合法的空結果
	if resp.StatusCode() == http.StatusNotFound || result.Status == 0 {
		common.LogDebug("商品目錄查無條碼",
			zap.String("barcode", barcode),
		)
		return nil, nil
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
	}

	return result.Product, nil
}
