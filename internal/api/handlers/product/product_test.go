package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	core "product-resolver/internal/core/product"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSource 測試用結構化來源
type stubSource struct {
	name  string
	items []core.CanonicalProduct
	item  *core.CanonicalProduct
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(ctx context.Context, query string) ([]core.CanonicalProduct, error) {
	return s.items, nil
}

func (s *stubSource) Barcode(ctx context.Context, code string) (*core.CanonicalProduct, error) {
	return s.item, nil
}

// stubWeb 測試用網頁來源
type stubWeb struct{}

func (s *stubWeb) Search(ctx context.Context, query string) ([]core.WebResult, error) {
	return nil, nil
}

func (s *stubWeb) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	return nil, nil
}

// stubSynth 測試用合成器
type stubSynth struct {
	record *core.CanonicalProduct
}

func (s *stubSynth) Synthesize(ctx context.Context, query string, webCtx *core.WebContext) (*core.CanonicalProduct, error) {
	return s.record, nil
}

func testProduct(id, name string) core.CanonicalProduct {
	return core.CanonicalProduct{
		ID:       id,
		Identity: core.Identity{Name: name, Brand: "Acme"},
		Media:    core.Media{FrontImage: "https://cdn.example.com/products/" + id + ".jpg"},
	}
}

func newTestRouter(catalogSrc, regulatorySrc *stubSource, synth *stubSynth) *gin.Engine {
	web := &stubWeb{}
	enricher := core.NewImageEnricher(web, 1, 1)
	resolver := core.NewResolver(catalogSrc, regulatorySrc, web, synth, enricher)
	handler := NewHandler(resolver)

	router := gin.New()
	router.GET("/api/v1/product/search", handler.HandleSearch)
	router.GET("/api/v1/product/barcode/:code", handler.HandleBarcode)
	router.POST("/api/v1/product/regenerate", handler.HandleRegenerate)
	return router
}

func TestHandleSearch(t *testing.T) {
	t.Run("returns products with count", func(t *testing.T) {
		p := testProduct("c1", "Cola")
		router := newTestRouter(
			&stubSource{name: "catalog", items: []core.CanonicalProduct{p}},
			&stubSource{name: "regulatory"},
			&stubSynth{},
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/product/search?q=cola", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "cola", resp.Query)
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Products, 1)
		assert.Equal(t, "c1", resp.Products[0].ID)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/product/search", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no results still returns 200 with empty list", func(t *testing.T) {
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/product/search?q=nothing", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Count)
		assert.NotNil(t, resp.Products)
	})
}

func TestHandleBarcode(t *testing.T) {
	t.Run("hit returns product", func(t *testing.T) {
		p := testProduct("c1", "Cola")
		router := newTestRouter(
			&stubSource{name: "catalog", item: &p},
			&stubSource{name: "regulatory"},
			&stubSynth{},
		)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/product/barcode/4901234567890", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var got core.CanonicalProduct
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "c1", got.ID)
	})

	t.Run("miss returns 404", func(t *testing.T) {
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/product/barcode/0000000000000", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleRegenerate(t *testing.T) {
	t.Run("returns synthesized product", func(t *testing.T) {
		p := testProduct("ai1", "Cola")
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{record: &p})

		body := strings.NewReader(`{"query":"acme cola"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/product/regenerate", body)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var got core.CanonicalProduct
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "ai1", got.ID)
	})

	t.Run("missing query rejected", func(t *testing.T) {
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/product/regenerate", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("synthesis miss returns 404", func(t *testing.T) {
		router := newTestRouter(&stubSource{name: "catalog"}, &stubSource{name: "regulatory"}, &stubSynth{})

		body := strings.NewReader(`{"query":"acme cola"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/product/regenerate", body)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
