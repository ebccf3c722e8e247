package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "CORS_ORIGINS", "STORE_DRIVER", "MONGO_PUBLIC_URL", "MONGO_URL",
	"MONGO_DATABASE", "JWT_SECRET", "JWT_TTL", "REDIS_URL", "ANALYTICS_CACHE_TTL",
	"IDEMPOTENCY_TTL", "RABBITMQ_URL", "RABBITMQ_EXCHANGE", "KHALTI_SECRET_KEY",
	"KHALTI_BASE_URL", "KHALTI_RETURN_URL", "KHALTI_WEBSITE_URL", "ANALYTICS_TIMEZONE",
	"STANDARD_SHIPPING_FEE", "EXPRESS_SHIPPING_FEE", "FREE_SHIPPING_THRESHOLD",
	"COD_SURCHARGE", "VAT_RATE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "everesthemp", cfg.MongoDatabase)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.AnalyticsCacheTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Timezone)
	assert.Equal(t, int64(250), cfg.Pricing.ExpressFee)
	assert.Equal(t, "0.13", cfg.Pricing.VATRate.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MONGO_URL", "mongodb://fallback")
	t.Setenv("MONGO_PUBLIC_URL", "mongodb://public")
	t.Setenv("CORS_ORIGINS", "https://everesthemp.com, https://admin.everesthemp.com")
	t.Setenv("ANALYTICS_TIMEZONE", "Asia/Kathmandu")
	t.Setenv("EXPRESS_SHIPPING_FEE", "400")
	t.Setenv("COD_SURCHARGE", "50")
	t.Setenv("VAT_RATE", "0.1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "mongodb://public", cfg.MongoURI)
	assert.Equal(t, []string{"https://everesthemp.com", "https://admin.everesthemp.com"}, cfg.CORSOrigin)
	assert.Equal(t, "Asia/Kathmandu", cfg.Timezone.String())
	assert.Equal(t, int64(400), cfg.Pricing.ExpressFee)
	assert.Equal(t, int64(50), cfg.Pricing.CODSurcharge)
	assert.Equal(t, "0.1", cfg.Pricing.VATRate.String())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"bad timezone", map[string]string{"ANALYTICS_TIMEZONE": "Mars/Olympus"}},
		{"bad fee", map[string]string{"EXPRESS_SHIPPING_FEE": "cheap"}},
		{"negative fee", map[string]string{"COD_SURCHARGE": "-1"}},
		{"bad vat", map[string]string{"VAT_RATE": "thirteen"}},
		{"bad ttl", map[string]string{"JWT_TTL": "forever"}},
		{"release without secret", map[string]string{"GIN_MODE": "release"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
