package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Catalog: CatalogConfig{
			BaseURL:  "https://catalog.example.com",
			Timeout:  8 * time.Second,
			PageSize: 10,
		},
		Regulatory: RegulatoryConfig{
			BaseURL:         "https://regulatory.example.com",
			Timeout:         8 * time.Second,
			RequestsPerHour: 1000,
		},
		WebSearch: WebSearchConfig{
			BaseURL: "http://localhost:8888",
		},
		Cache: CacheConfig{
			Enabled:         true,
			MaxSize:         100,
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Enrich: EnrichConfig{
			Workers:   4,
			MaxImages: 1,
		},
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validateConfig(validTestConfig()))
	})

	t.Run("missing server port fails", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.Port = 0

		assert.Error(t, validateConfig(cfg))
	})

	t.Run("missing catalog base url fails", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Catalog.BaseURL = ""

		assert.Error(t, validateConfig(cfg))
	})

	t.Run("invalid regulatory timeout fails", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Regulatory.Timeout = 0

		assert.Error(t, validateConfig(cfg))
	})

	t.Run("missing websearch base url fails", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.WebSearch.BaseURL = ""

		assert.Error(t, validateConfig(cfg))
	})

	t.Run("cache settings only checked when enabled", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Cache.Enabled = false
		cfg.Cache.MaxSize = 0

		assert.NoError(t, validateConfig(cfg))

		cfg.Cache.Enabled = true
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("invalid enrich workers fails", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Enrich.Workers = 0

		assert.Error(t, validateConfig(cfg))
	})

	t.Run("enabled openrouter requires base url", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.OpenRouter.Enabled = true
		cfg.OpenRouter.BaseURL = ""

		assert.Error(t, validateConfig(cfg))

		cfg.OpenRouter.BaseURL = "https://openrouter.example.com/api/v1"
		assert.NoError(t, validateConfig(cfg))
	})
}

func TestSetDefaults(t *testing.T) {
	setDefaults()

	// 上游端點與分頁大小一律走設定，不寫死在客戶端
	assert.Equal(t, "https://openrouter.ai/api/v1", viper.GetString("openrouter.base_url"))
	assert.Equal(t, 10, viper.GetInt("regulatory.page_size"))
	assert.Equal(t, 10, viper.GetInt("catalog.page_size"))
	assert.Equal(t, "https://world.openfoodfacts.org", viper.GetString("catalog.base_url"))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
