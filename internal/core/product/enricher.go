package product

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"product-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// 疑似非商品照的 URL 片段：避免在回退到網頁圖片時誤用品牌 logo 或圖示
var suspiciousImageMarkers = []string{"logo", "icon", "assets", "favicon", "svg"}

// IsSuspiciousImageURL 檢查圖片 URL 是否疑似 logo / 圖示（不分大小寫）
func IsSuspiciousImageURL(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range suspiciousImageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// PickAcceptableImage 從候選 URL 中挑出第一個可接受的商品照，全部被拒時回傳空字串
func PickAcceptableImage(candidates ...string) string {
	for _, url := range candidates {
		if url == "" {
			continue
		}
		if IsSuspiciousImageURL(url) {
			continue
		}
		return url
	}
	return ""
}

// ImageSearcher 圖片搜尋介面
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, max int) ([]string, error)
}

// ImageEnricher 圖片補全器：在去重後對缺圖記錄各發一次圖片搜尋。
// 只在最終結果集上執行一次，補圖成本按去重後的商品數計算。
type ImageEnricher struct {
	searcher  ImageSearcher
	workers   int
	maxImages int
}

// NewImageEnricher 創建圖片補全器
func NewImageEnricher(searcher ImageSearcher, workers, maxImages int) *ImageEnricher {
	if workers <= 0 {
		workers = 1
	}
	if maxImages <= 0 {
		maxImages = 1
	}
	return &ImageEnricher{
		searcher:  searcher,
		workers:   workers,
		maxImages: maxImages,
	}
}

// needsEnrichment 正面照缺失或為佔位圖時才補圖
func needsEnrichment(p CanonicalProduct) bool {
	front := p.Media.FrontImage
	return front == "" || strings.Contains(strings.ToLower(front), "placeholder")
}

// Enrich 回傳補圖後的新列表；原記錄不就地修改，補到圖時以複本替換
func (e *ImageEnricher) Enrich(ctx context.Context, items []CanonicalProduct) []CanonicalProduct {
	out := make([]CanonicalProduct, len(items))
	copy(out, items)

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i := range out {
		if !needsEnrichment(out[i]) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			// 補圖失敗或 panic 時保留原記錄
			defer func() {
				if rec := recover(); rec != nil {
					common.LogError("圖片補全分支發生未預期錯誤",
						zap.Any("error", rec),
					)
				}
			}()
			out[idx] = e.enrichOne(ctx, out[idx])
		}(i)
	}

	wg.Wait()
	return out
}

// enrichOne 對單一記錄發一次圖片搜尋，成功時回傳更新圖片後的複本
func (e *ImageEnricher) enrichOne(ctx context.Context, p CanonicalProduct) CanonicalProduct {
	query := strings.TrimSpace(fmt.Sprintf("%s %s", p.Identity.Name, p.Identity.Brand))

	urls, err := e.searcher.SearchImages(ctx, query, e.maxImages)
	if err != nil {
		common.LogWarn("圖片補全搜尋失敗",
			zap.String("query", query),
			zap.Error(err),
		)
		return p
	}

	image := PickAcceptableImage(urls...)
	if image == "" {
		common.LogDebug("圖片補全無可用結果",
			zap.String("query", query),
			zap.Int("candidates", len(urls)),
		)
		return p
	}

	enriched := p
	enriched.Media.FrontImage = image
	enriched.Media.Thumbnail = image
	return enriched
}
