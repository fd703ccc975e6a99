package websearch

import (
	"context"
	"fmt"
	"net/http"

	"product-resolver/internal/infrastructure/config"
	"product-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Result 元搜尋引擎的單筆結果（SearXNG 風格）
type Result struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	ImgSrc    string `json:"img_src"`
	Thumbnail string `json:"thumbnail"`
}

// searchResponse 搜尋回應
type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Client 網頁元搜尋客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建網頁元搜尋客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.WebSearch.BaseURL).
		SetHeader("User-Agent", "product-resolver/1.0")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Search 以指定分類搜尋網頁，查無資料時回傳空切片
func (c *Client) Search(ctx context.Context, query, category string) ([]Result, error) {
	if category == "" {
		category = c.config.WebSearch.DefaultCategory
	}

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":          query,
			"categories": category,
			"format":     "json",
		}).
		SetResult(&result).
		Get("/search")

	if err != nil {
		return nil, fmt.Errorf("failed to query meta-search: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("元搜尋回應錯誤",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("query", query),
			zap.String("category", category),
		)
		return nil, fmt.Errorf("meta-search returned status %d", resp.StatusCode())
	}

	common.LogDebug("元搜尋完成",
		zap.String("query", query),
		zap.String("category", category),
		zap.Int("count", len(result.Results)),
	)

	return result.Results, nil
}

// SearchImages 搜尋圖片，回傳最多 max 個圖片 URL
func (c *Client) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	results, err := c.Search(ctx, query, "images")
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, max)
	for _, r := range results {
		src := r.ImgSrc
		if src == "" {
			src = r.Thumbnail
		}
		if src == "" {
			continue
		}
		urls = append(urls, src)
		if len(urls) >= max {
			break
		}
	}
	return urls, nil
}
