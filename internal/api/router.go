package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"product-resolver/internal/api/handlers/health"
	productHandler "product-resolver/internal/api/handlers/product"
	"product-resolver/internal/api/middleware"
	"product-resolver/internal/core/cache"
	coreProduct "product-resolver/internal/core/product"
	"product-resolver/internal/core/provider/catalog"
	"product-resolver/internal/core/provider/regulatory"
	"product-resolver/internal/core/provider/synthesis"
	"product-resolver/internal/core/provider/websearch"
	"product-resolver/internal/infrastructure/config"
	"product-resolver/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，解析操作只收輕量 JSON
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流與去重
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("synthesis_enabled", cfg.OpenRouter.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化上游客戶端
	catalogClient := catalog.NewClient(cfg)
	regulatoryClient := regulatory.NewClient(cfg)
	websearchClient := websearch.NewClient(cfg)
	synthesisClient := synthesis.NewClient(cfg, cacheManager)
	if catalogClient == nil || regulatoryClient == nil || websearchClient == nil || synthesisClient == nil {
		common.LogError("Failed to initialize upstream clients")
		return nil, fmt.Errorf("failed to initialize upstream clients")
	}

	// 組裝轉接器與編排器
	webAdapter := coreProduct.NewWebSearchAdapter(websearchClient)
	enricher := coreProduct.NewImageEnricher(webAdapter, cfg.Enrich.Workers, cfg.Enrich.MaxImages)
	resolver := coreProduct.NewResolver(
		coreProduct.NewCatalogAdapter(catalogClient),
		coreProduct.NewRegulatoryAdapter(regulatoryClient),
		webAdapter,
		coreProduct.NewSynthesisAdapter(synthesisClient),
		enricher,
	)
	if resolver == nil {
		common.LogError("Failed to initialize product resolver")
		return nil, fmt.Errorf("failed to initialize product resolver")
	}

	common.LogInfo("Product resolver initialized successfully",
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.String("environment", cfg.App.Env),
		zap.Int("enrich_workers", cfg.Enrich.Workers),
	)

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		// 創建新的請求上下文
		req := c.Request.WithContext(ctx)
		c.Request = req

		// 設置配置與服務
		c.Set("config", cfg)
		c.Set("cache_manager", cacheManager)
		c.Set("resolver", resolver)
		common.LogDebug("Services injected into context",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
		)

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := productHandler.NewHandler(resolver)

		// 註冊商品解析相關路由
		productGroup := api.Group("/product")
		{
			// 自由文字搜尋
			productGroup.GET("/search", handler.HandleSearch)

			// 條碼查詢
			productGroup.GET("/barcode/:code", handler.HandleBarcode)

			// AI 重生成
			productGroup.POST("/regenerate", handler.HandleRegenerate)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
