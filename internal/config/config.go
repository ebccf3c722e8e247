package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"everesthemp-backend/internal/pricing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port       string
	GinMode    string
	LogLevel   slog.Level
	CORSOrigin []string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	JWTTTL    time.Duration

	RedisURL          string
	AnalyticsCacheTTL time.Duration
	IdempotencyTTL    time.Duration

	RabbitMQURL      string
	RabbitMQExchange string

	KhaltiSecretKey string
	KhaltiBaseURL   string
	KhaltiReturnURL string
	KhaltiWebsite   string

	// Location for "today" in analytics. Defaults to the host's local zone.
	Timezone *time.Location

	Pricing pricing.Rules
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:             getenv("PORT", "8080"),
		GinMode:          getenv("GIN_MODE", "debug"),
		CORSOrigin:       splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:      getenv("STORE_DRIVER", DriverMongo),
		MongoURI:         firstNonEmpty(os.Getenv("MONGO_PUBLIC_URL"), os.Getenv("MONGO_URL"), "mongodb://localhost:27017"),
		MongoDatabase:    getenv("MONGO_DATABASE", "everesthemp"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getenv("RABBITMQ_EXCHANGE", "order.exchange"),
		KhaltiSecretKey:  os.Getenv("KHALTI_SECRET_KEY"),
		KhaltiBaseURL:    getenv("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2"),
		KhaltiReturnURL:  getenv("KHALTI_RETURN_URL", "http://localhost:5173/payment/khalti"),
		KhaltiWebsite:    getenv("KHALTI_WEBSITE_URL", "http://localhost:5173"),
		Pricing:          pricing.DefaultRules(),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AnalyticsCacheTTL, err = durationEnv("ANALYTICS_CACHE_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	tz := getenv("ANALYTICS_TIMEZONE", "Local")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("ANALYTICS_TIMEZONE %q: %w", tz, err)
	}

	rules := &cfg.Pricing
	for _, f := range []struct {
		key string
		dst *int64
	}{
		{"STANDARD_SHIPPING_FEE", &rules.StandardFee},
		{"EXPRESS_SHIPPING_FEE", &rules.ExpressFee},
		{"FREE_SHIPPING_THRESHOLD", &rules.FreeShippingThreshold},
		{"COD_SURCHARGE", &rules.CODSurcharge},
	} {
		if err := int64Env(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("VAT_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("VAT_RATE %q: %w", v, err)
		}
		rules.VATRate = rate
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		if c.GinMode == "release" {
			return errors.New("JWT_SECRET must be set in release mode")
		}
		c.JWTSecret = "dev-secret"
	}
	if c.Pricing.VATRate.IsNegative() {
		return errors.New("VAT_RATE must not be negative")
	}
	for name, v := range map[string]int64{
		"STANDARD_SHIPPING_FEE": c.Pricing.StandardFee,
		"EXPRESS_SHIPPING_FEE":  c.Pricing.ExpressFee,
		"COD_SURCHARGE":         c.Pricing.CODSurcharge,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, v, err)
	}
	return d, nil
}

func int64Env(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}
