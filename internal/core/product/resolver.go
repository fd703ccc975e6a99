package product

import (
	"context"
	"fmt"
	"sync"
	"time"

	"product-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// Tier 回退編排器的階層。階層嚴格依序推進：
// 只有前一層去重後仍為空，才會進入下一層，不做投機性並行。
type Tier int

const (
	// TierStructuredFanout 結構化來源並行扇出（目錄 + 政府資料庫）
	TierStructuredFanout Tier = iota
	// TierWebAugmentedSynthesis 網頁搜尋上下文 + AI 合成
	TierWebAugmentedSynthesis
)

// String 階層名稱
func (t Tier) String() string {
	switch t {
	case TierStructuredFanout:
		return "structured_fanout"
	case TierWebAugmentedSynthesis:
		return "web_augmented_synthesis"
	default:
		return "unknown"
	}
}

// Resolver 商品識別回退編排器。
// 所有上游調用的失敗都被隔離為「較少結果」，不會向調用方拋出錯誤。
type Resolver struct {
	catalog    StructuredSource
	regulatory StructuredSource
	web        WebSource
	synth      Synthesizer
	enricher   *ImageEnricher
}

// NewResolver 創建回退編排器
func NewResolver(catalogSrc, regulatorySrc StructuredSource, web WebSource, synth Synthesizer, enricher *ImageEnricher) *Resolver {
	return &Resolver{
		catalog:    catalogSrc,
		regulatory: regulatorySrc,
		web:        web,
		synth:      synth,
		enricher:   enricher,
	}
}

// SearchProducts 自由文字搜尋（操作 A）。
// 第一層結構化扇出有結果就補圖返回；否則進入網頁 + AI 合成層。
// 任何意外 panic 由最外層危機回退接住，改以無上下文的合成調用收尾。
func (r *Resolver) SearchProducts(ctx context.Context, query string) (result []CanonicalProduct) {
	defer func() {
		if rec := recover(); rec != nil {
			common.LogError("解析管線發生未預期錯誤，啟動危機回退",
				zap.Any("error", rec),
				zap.String("query", query),
			)
			result = r.crisisFallback(ctx, query)
		}
	}()

	// 第一層：結構化來源並行扇出
	common.LogInfo("進入解析階層",
		zap.String("tier", TierStructuredFanout.String()),
		zap.String("query", query),
	)

	candidates := r.structuredFanout(ctx, query)
	deduped := Deduplicate(candidates)

	if len(deduped) > 0 {
		enriched := r.enricher.Enrich(ctx, deduped)
		common.LogInfo("結構化扇出命中",
			zap.String("query", query),
			zap.Int("count", len(enriched)),
		)
		return enriched
	}

	// 第二層：網頁搜尋上下文 + AI 合成
	common.LogInfo("進入解析階層",
		zap.String("tier", TierWebAugmentedSynthesis.String()),
		zap.String("query", query),
	)

	synthesized := r.webAugmentedSynthesis(ctx, query)
	if synthesized != nil {
		return []CanonicalProduct{*synthesized}
	}

	// 全部階層耗盡：回傳空列表，不拋出錯誤
	common.LogInfo("所有解析階層耗盡，查無結果",
		zap.String("query", query),
	)
	return []CanonicalProduct{}
}

// GetProductByBarcode 條碼查詢（操作 B）。階層嚴格循序，前一層查無才嘗試下一層。
// 未預期 panic 一律收斂為查無結果，不向調用方外洩。
func (r *Resolver) GetProductByBarcode(ctx context.Context, barcode string) (result *CanonicalProduct) {
	defer func() {
		if rec := recover(); rec != nil {
			common.LogError("條碼查詢發生未預期錯誤，視同查無結果",
				zap.Any("error", rec),
				zap.String("barcode", barcode),
			)
			result = nil
		}
	}()

	// 第一層：商品目錄精確條碼查詢
	if p := r.barcodeFrom(ctx, r.catalog, barcode); p != nil {
		return p
	}

	// 第二層：政府資料庫條碼查詢
	if p := r.barcodeFrom(ctx, r.regulatory, barcode); p != nil {
		return p
	}

	// 第三層：以條碼字串做網頁搜尋，啟發式切分標題
	results, err := r.web.Search(ctx, barcode)
	if err != nil {
		common.LogWarn("條碼網頁搜尋失敗",
			zap.String("code", common.ErrCodeSourceUnavailable),
			zap.String("barcode", barcode),
			zap.Error(err),
		)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	top := results[0]
	image := PickAcceptableImage(top.Image, top.Thumbnail)
	return NormalizeWebResult(top, barcode, image)
}

// RegenerateProduct AI 重生成（操作 C）：跳過結構化階層，直接網頁上下文 + 合成。
// 未預期 panic 一律收斂為查無結果，不向調用方外洩。
func (r *Resolver) RegenerateProduct(ctx context.Context, query string) (result *CanonicalProduct) {
	defer func() {
		if rec := recover(); rec != nil {
			common.LogError("AI 重生成發生未預期錯誤，視同查無結果",
				zap.Any("error", rec),
				zap.String("query", query),
			)
			result = nil
		}
	}()

	common.LogInfo("AI 重生成請求",
		zap.String("query", query),
	)
	return r.webAugmentedSynthesis(ctx, query)
}

// structuredFanout 並行調用目錄與政府資料庫。
// 兩個分支一定等到各自結束（成功或失敗），單一分支失敗不取消另一個，
// 也不中斷整個操作；結果按完成順序合併。
func (r *Resolver) structuredFanout(ctx context.Context, query string) []CanonicalProduct {
	sources := []StructuredSource{r.catalog, r.regulatory}

	var mu sync.Mutex
	var combined []CanonicalProduct
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src StructuredSource) {
			defer wg.Done()
			// 單一分支 panic 視同來源不可用，不得拖垮整個行程
			defer func() {
				if rec := recover(); rec != nil {
					common.LogError("結構化來源分支發生未預期錯誤",
						zap.String("來源", src.Name()),
						zap.Any("error", rec),
					)
				}
			}()

			start := time.Now()
			items, err := src.Search(ctx, query)
			common.LogSourceCall(src.Name(), time.Since(start), err)

			if err != nil {
				// 來源不可用：記錄後視同空結果
				common.LogWarn("來源不可用，已隔離",
					zap.String("code", common.ErrCodeSourceUnavailable),
					zap.String("來源", src.Name()),
					zap.Error(err),
				)
				return
			}
			if len(items) == 0 {
				common.LogDebug("來源查無資料",
					zap.String("code", common.ErrCodeEmptyResult),
					zap.String("來源", src.Name()),
				)
				return
			}

			mu.Lock()
			combined = append(combined, items...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return combined
}

// webAugmentedSynthesis 並行執行網頁搜尋與圖片搜尋，取最佳網頁結果作為合成上下文。
// 網頁結果自帶的圖片要先通過疑似 logo 過濾，才能作為回退圖片。
func (r *Resolver) webAugmentedSynthesis(ctx context.Context, query string) *CanonicalProduct {
	var (
		wg         sync.WaitGroup
		webResults []WebResult
		webErr     error
		imageURLs  []string
		imageErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				webErr = fmt.Errorf("websearch panic: %v", rec)
			}
		}()
		start := time.Now()
		webResults, webErr = r.web.Search(ctx, query)
		common.LogSourceCall("websearch", time.Since(start), webErr)
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				imageErr = fmt.Errorf("imagesearch panic: %v", rec)
			}
		}()
		start := time.Now()
		imageURLs, imageErr = r.web.SearchImages(ctx, query, 1)
		common.LogSourceCall("imagesearch", time.Since(start), imageErr)
	}()
	wg.Wait()

	// 失敗分支視同空結果，合成仍照常進行
	if webErr != nil {
		webResults = nil
	}
	if imageErr != nil {
		imageURLs = nil
	}

	var webCtx *WebContext
	if len(webResults) > 0 {
		top := webResults[0]
		candidates := append([]string{top.Image, top.Thumbnail}, imageURLs...)
		webCtx = &WebContext{
			Title:     top.Title,
			Snippet:   top.Snippet,
			Image:     PickAcceptableImage(candidates...),
			SourceURL: top.URL,
		}
	}

	start := time.Now()
	synthesized, err := r.synth.Synthesize(ctx, query, webCtx)
	common.LogSourceCall("synthesis", time.Since(start), err)
	if err != nil {
		common.LogWarn("AI 合成失敗，視同查無結果",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}
	return synthesized
}

// barcodeFrom 對單一結構化來源做條碼查詢，失敗時隔離為查無
func (r *Resolver) barcodeFrom(ctx context.Context, src StructuredSource, barcode string) *CanonicalProduct {
	start := time.Now()
	p, err := src.Barcode(ctx, barcode)
	common.LogSourceCall(src.Name(), time.Since(start), err)

	if err != nil {
		common.LogWarn("來源不可用，已隔離",
			zap.String("code", common.ErrCodeSourceUnavailable),
			zap.String("來源", src.Name()),
			zap.String("barcode", barcode),
			zap.Error(err),
		)
		return nil
	}
	return p
}

// crisisFallback 危機回退：最後一次無上下文的合成調用。
// 只在正常階層被未預期錯誤打斷時觸發，不屬於正常路徑。
func (r *Resolver) crisisFallback(ctx context.Context, query string) []CanonicalProduct {
	synthesized, err := r.synth.Synthesize(ctx, query, nil)
	if err != nil || synthesized == nil {
		common.LogError("危機回退亦無結果",
			zap.String("query", query),
			zap.Error(err),
		)
		return []CanonicalProduct{}
	}
	return []CanonicalProduct{*synthesized}
}
