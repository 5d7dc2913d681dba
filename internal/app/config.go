package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"API server listen address"`

	// Catalog is the external product data source; the storefront only
	// reads from it.
	CatalogURL   string `usage:"GraphQL endpoint of the product catalog (STORE_CATALOG_URL)" flag:"catalog-url"`
	CatalogToken string `usage:"Bearer token for the catalog API, optional" flag:"catalog-token"`

	// Payment provider credentials. The secret key stays server-side; the
	// publishable key is exposed to storefront clients.
	StripeSecretKey string `usage:"Payment provider secret key (STORE_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	StripePublicKey string `usage:"Payment provider publishable key, optional" flag:"stripe-public-key"`

	// SiteURL is the base address the payment provider redirects back to
	// after the hosted flow ends.
	SiteURL string `default:"http://localhost:3000" usage:"Storefront base URL for success/cancel redirects" flag:"site-url"`

	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
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

// SuccessURL is the fixed redirect destination after a completed payment.
func (c *Config) SuccessURL() string {
	return strings.TrimRight(c.SiteURL, "/") + "/success"
}

// CancelURL is the fixed redirect destination after an abandoned payment.
func (c *Config) CancelURL() string {
	return strings.TrimRight(c.SiteURL, "/") + "/cancel"
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.CatalogURL == "" {
		return nil, errors.New("catalog URL is required: set STORE_CATALOG_URL")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("payment secret key is required: set STORE_STRIPE_SECRET_KEY or STRIPE_SECRET_KEY")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps conventionally named environment variables
// (provider dashboards, PaaS platforms) onto the STORE_-prefixed config.
func (c *Config) applyPlatformDefaults() {
	if c.StripeSecretKey == "" {
		if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
			c.StripeSecretKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
