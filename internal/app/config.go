package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (TAXLINE_ prefix), flags, or YAML config files.
type Config struct {
	Addr            string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL     string `usage:"PostgreSQL connection URL (TAXLINE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper    string `usage:"HMAC pepper for API key hashing (TAXLINE_API_KEY_PEPPER)" flag:"api-key-pepper"`
	ShippingTaxCode string `default:"FR000000" usage:"Default tax code for shipment lines whose rate has no tax category" flag:"shipping-tax-code"`
	Avatax          AvataxConfig
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
}

// AvataxConfig holds the connection settings for the external tax engine.
// An empty BaseURL leaves submission disabled; line building still works.
type AvataxConfig struct {
	BaseURL     string        `default:"" usage:"Tax engine base URL (empty disables submission)" flag:"avatax-base-url"`
	AccountID   string        `default:"" usage:"Tax engine account ID" flag:"avatax-account-id"`
	LicenseKey  string        `default:"" usage:"Tax engine license key" flag:"avatax-license-key"`
	CompanyCode string        `default:"DEFAULT" usage:"Company profile code on the tax engine" flag:"avatax-company-code"`
	Timeout     time.Duration `default:"10s" usage:"Timeout for a single tax engine call" flag:"avatax-timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TAXLINE",
		Files:     []string{"config.yaml", "/etc/taxline/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set TAXLINE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// TAXLINE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
