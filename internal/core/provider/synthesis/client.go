package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"product-resolver/internal/core/cache"
	"product-resolver/internal/infrastructure/config"
	"product-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter 合成客戶端
type Client struct {
	config       *config.Config
	client       *resty.Client
	cacheManager *cache.CacheManager
}

// NewClient 創建合成客戶端
func NewClient(cfg *config.Config, cacheManager *cache.CacheManager) *Client {
	client := resty.New().
		SetBaseURL(cfg.OpenRouter.BaseURL).
		SetTimeout(cfg.OpenRouter.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://product-resolver.com").
		SetHeader("X-Title", "Product Resolver")

	return &Client{
		config:       cfg,
		client:       client,
		cacheManager: cacheManager,
	}
}

// Generate 生成回應，相同 prompt 命中快取時不再調用上游。
// 合成功能未啟用時直接回報錯誤，由上層視同來源不可用。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.config.OpenRouter.Enabled {
		return "", fmt.Errorf("synthesis is disabled by configuration")
	}

	// 統一 prompt 格式，去除多餘空白，確保快取 key 一致
	prompt = strings.TrimSpace(prompt)
	prompt = strings.Join(strings.Fields(prompt), " ")

	// 檢查緩存
	if c.config.Cache.Enabled && c.cacheManager != nil {
		if val, err := c.cacheManager.Get(ctx, prompt); err == nil && val != "" {
			return val, nil
		}
	}

	// 構建請求
	req := map[string]interface{}{
		"model": c.config.OpenRouter.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens": c.config.OpenRouter.MaxTokens,
	}

	// 發送請求
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("OpenRouter 回應錯誤",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.config.OpenRouter.Model),
		)
		return "", fmt.Errorf("OpenRouter API returned error: %s", resp.String())
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty content in OpenRouter response")
	}

	if c.config.Cache.Enabled && c.cacheManager != nil {
		_ = c.cacheManager.Set(ctx, prompt, content)
	}

	return content, nil
}
