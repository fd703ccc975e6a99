package regulatory

import (
	"context"
	"fmt"
	"net/http"

	"product-resolver/internal/infrastructure/config"
	"product-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Food 政府食品資料庫的原始記錄（FoodData Central 風格）
type Food struct {
	FdcID       int64          `json:"fdcId"`
	Description string         `json:"description"`
	BrandOwner  string         `json:"brandOwner"`
	BrandName   string         `json:"brandName"`
	GtinUpc     string         `json:"gtinUpc"`
	Ingredients string         `json:"ingredients"`
	Category    string         `json:"foodCategory"`
	Nutrients   []FoodNutrient `json:"foodNutrients"`
}

// FoodNutrient 營養素條目
type FoodNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
	UnitName     string  `json:"unitName"`
}

// searchResponse 搜尋回應
type searchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []Food `json:"foods"`
}

// Client 政府食品資料庫客戶端
type Client struct {
	config  *config.Config
	client  *resty.Client
	limiter *rate.Limiter
}

// NewClient 創建政府食品資料庫客戶端。
// 上游按小時計算配額，轉成每秒速率後用 token bucket 控制。
func NewClient(cfg *config.Config) *Client {
	perSecond := float64(cfg.Regulatory.RequestsPerHour) / 3600.0
	limiter := rate.NewLimiter(rate.Limit(perSecond), 10)

	client := resty.New().
		SetBaseURL(cfg.Regulatory.BaseURL).
		SetTimeout(cfg.Regulatory.Timeout).
		SetQueryParam("api_key", cfg.Regulatory.APIKey).
		SetHeader("User-Agent", "product-resolver/1.0")

	return &Client{
		config:  cfg,
		client:  client,
		limiter: limiter,
	}
}

// Search 以自由文字（或條碼字串）搜尋，查無資料時回傳空切片
func (c *Client) Search(ctx context.Context, query string) ([]Food, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    query,
			"dataType": "Branded,Foundation",
			"pageSize": fmt.Sprintf("%d", c.config.Regulatory.PageSize),
		}).
		SetResult(&result).
		Get("/v1/foods/search")

	if err != nil {
		return nil, fmt.Errorf("failed to search regulatory database: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("政府資料庫回應錯誤",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("query", query),
		)
		return nil, fmt.Errorf("regulatory database returned status %d", resp.StatusCode())
	}

	common.LogDebug("政府資料庫搜尋完成",
		zap.String("query", query),
		zap.Int("count", len(result.Foods)),
	)

	return result.Foods, nil
}
