package app

import (
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	SiteVariant     string `envconfig:"SITE_VARIANT" default:"campopack"`
	SiteContentFile string `envconfig:"SITE_CONTENT_FILE"`

	// RelayURL overrides the relay endpoint from the site content.
	RelayURL     string        `envconfig:"RELAY_URL"`
	RelayTimeout time.Duration `envconfig:"RELAY_TIMEOUT" default:"15s"`

	ContactRateLimit int `envconfig:"CONTACT_RATE_LIMIT" default:"5"`
	GlobalRateLimit  int `envconfig:"GLOBAL_RATE_LIMIT" default:"120"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.RelayTimeout <= 0 {
		return nil, errors.New("relay timeout must be positive")
	}
	if cfg.AppRequestTimeout > 0 && cfg.RelayTimeout >= cfg.AppRequestTimeout {
		return nil, errors.New("relay timeout must be shorter than the request timeout")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

var testMode atomic.Bool

func init() {
	RefreshTestMode()
}

// RefreshTestMode re-reads CAMPOPACK_TEST_MODE.
func RefreshTestMode() {
	v := strings.TrimSpace(os.Getenv("CAMPOPACK_TEST_MODE"))
	testMode.Store(v == "1" || strings.EqualFold(v, "true"))
}

// InTestMode reports whether the process runs under the test harness.
func InTestMode() bool {
	return testMode.Load()
}
