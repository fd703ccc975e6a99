package product

import (
	"context"
	"strings"

	"product-resolver/internal/core/provider/catalog"
	"product-resolver/internal/core/provider/regulatory"
	"product-resolver/internal/core/provider/websearch"
)

// StructuredSource 結構化資料來源介面（商品目錄、政府資料庫）。
// 實作以錯誤值回報來源不可用，絕不 panic；合法查無資料時回傳空結果與 nil 錯誤。
type StructuredSource interface {
	Name() string
	Search(ctx context.Context, query string) ([]CanonicalProduct, error)
	Barcode(ctx context.Context, code string) (*CanonicalProduct, error)
}

// WebResult 網頁搜尋結果的標準形式
type WebResult struct {
	Title     string
	Snippet   string
	URL       string
	Image     string
	Thumbnail string
}

// WebSource 網頁元搜尋介面
type WebSource interface {
	Search(ctx context.Context, query string) ([]WebResult, error)
	SearchImages(ctx context.Context, query string, max int) ([]string, error)
}

// Synthesizer AI 合成介面。查詢可附帶網頁上下文；回傳 nil 記錄代表無法合成。
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, webCtx *WebContext) (*CanonicalProduct, error)
}

// ---------------- 商品目錄 ----------------

// CatalogAdapter 商品目錄轉接器
type CatalogAdapter struct {
	client *catalog.Client
}

// NewCatalogAdapter 創建商品目錄轉接器
func NewCatalogAdapter(client *catalog.Client) *CatalogAdapter {
	return &CatalogAdapter{client: client}
}

// Name 來源名稱
func (a *CatalogAdapter) Name() string { return "catalog" }

// Search 搜尋並映射為標準記錄
func (a *CatalogAdapter) Search(ctx context.Context, query string) ([]CanonicalProduct, error) {
	rawItems, err := a.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	items := make([]CanonicalProduct, 0, len(rawItems))
	for _, raw := range rawItems {
		if p := NormalizeCatalog(raw); p != nil {
			items = append(items, *p)
		}
	}
	return items, nil
}

// Barcode 以條碼查詢單一商品
func (a *CatalogAdapter) Barcode(ctx context.Context, code string) (*CanonicalProduct, error) {
	raw, err := a.client.ByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return NormalizeCatalog(*raw), nil
}

// ---------------- 政府資料庫 ----------------

// RegulatoryAdapter 政府食品資料庫轉接器
type RegulatoryAdapter struct {
	client *regulatory.Client
}

// NewRegulatoryAdapter 創建政府資料庫轉接器
func NewRegulatoryAdapter(client *regulatory.Client) *RegulatoryAdapter {
	return &RegulatoryAdapter{client: client}
}

// Name 來源名稱
func (a *RegulatoryAdapter) Name() string { return "regulatory" }

// Search 搜尋並映射為標準記錄
func (a *RegulatoryAdapter) Search(ctx context.Context, query string) ([]CanonicalProduct, error) {
	rawItems, err := a.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	items := make([]CanonicalProduct, 0, len(rawItems))
	for _, raw := range rawItems {
		if p := NormalizeRegulatory(raw); p != nil {
			items = append(items, *p)
		}
	}
	return items, nil
}

// Barcode 以條碼搜尋，只接受 GTIN/UPC 完全一致的記錄
func (a *RegulatoryAdapter) Barcode(ctx context.Context, code string) (*CanonicalProduct, error) {
	rawItems, err := a.client.Search(ctx, code)
	if err != nil {
		return nil, err
	}

	for _, raw := range rawItems {
		if strings.TrimSpace(raw.GtinUpc) != code {
			continue
		}
		if p := NormalizeRegulatory(raw); p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// ---------------- 網頁搜尋 ----------------

// WebSearchAdapter 網頁元搜尋轉接器
type WebSearchAdapter struct {
	client *websearch.Client
}

// NewWebSearchAdapter 創建網頁元搜尋轉接器
func NewWebSearchAdapter(client *websearch.Client) *WebSearchAdapter {
	return &WebSearchAdapter{client: client}
}

// Search 搜尋網頁並映射為標準形式
func (a *WebSearchAdapter) Search(ctx context.Context, query string) ([]WebResult, error) {
	rawResults, err := a.client.Search(ctx, query, "")
	if err != nil {
		return nil, err
	}

	results := make([]WebResult, 0, len(rawResults))
	for _, raw := range rawResults {
		results = append(results, WebResult{
			Title:     raw.Title,
			Snippet:   raw.Content,
			URL:       raw.URL,
			Image:     raw.ImgSrc,
			Thumbnail: raw.Thumbnail,
		})
	}
	return results, nil
}

// SearchImages 搜尋圖片 URL
func (a *WebSearchAdapter) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	return a.client.SearchImages(ctx, query, max)
}
