package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"product-resolver/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllow(t *testing.T) {
	t.Run("allows up to capacity", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		assert.True(t, limiter.Allow())
		assert.True(t, limiter.Allow())
		assert.True(t, limiter.Allow())
		assert.False(t, limiter.Allow())
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Second)

		for i := 0; i < 100; i++ {
			limiter.Allow()
		}
		assert.False(t, limiter.Allow())

		time.Sleep(50 * time.Millisecond)
		assert.True(t, limiter.Allow())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(1, time.Minute))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestDeduplicationMiddleware(t *testing.T) {
	cfg := &config.Config{DedupWindow: 100 * time.Millisecond}

	router := gin.New()
	router.Use(Deduplication(cfg))
	router.GET("/search", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	t.Run("identical request within window rejected", func(t *testing.T) {
		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-a", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-a", nil))
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})

	t.Run("different query passes", func(t *testing.T) {
		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-b", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-c", nil))
		assert.Equal(t, http.StatusOK, second.Code)
	})

	t.Run("same query after window passes", func(t *testing.T) {
		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-d", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		time.Sleep(150 * time.Millisecond)

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/search?q=dedup-case-d", nil))
		assert.Equal(t, http.StatusOK, second.Code)
	})
}

func TestBodySizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimit(10))
	router.POST("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	req.ContentLength = 100

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
