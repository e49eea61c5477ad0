package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// ErrMissingSecret is fatal: the gateway must not serve without a signing key.
var ErrMissingSecret = errors.New("SECRET is not set")

type Config struct {
	Secret string `env:"SECRET"`

	ListenHost string `env:"GATEWAY_LISTEN_HOST,default=127.0.0.1"`
	ListenPort int    `env:"GATEWAY_LISTEN_PORT,default=8000"`

	CatalogPath      string `env:"CATALOG_PATH,default=discovery.json"`
	ReleaseRoot      string `env:"RELEASE_ROOT,default=."`
	AssetRootSegment string `env:"ASSET_ROOT_SEGMENT,default=Streamables/assets"`
	UISpecPath       string `env:"UI_SPEC_PATH,default=ui/index.json"`
	PrefixServiceID  string `env:"PREFIX_SERVICE_ID,default=assets"`

	TrustProxy    bool          `env:"TRUST_PROXY,default=false"`
	WSIdleTimeout time.Duration `env:"WS_IDLE_TIMEOUT,default=0s"`
	SolveMaxBody  int64         `env:"SOLVE_MAX_BODY,default=1048576"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=20"`

	CorsOriginsRaw string `env:"CORS_ORIGINS"`
	CorsOrigins    []string

	MetricsEnabled bool   `env:"METRICS_ENABLED,default=false"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	LogFormat      string `env:"LOG_FORMAT,default=text"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. An empty path means ".env",
// which may be absent; an explicit path must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	cfg.CorsOrigins = parseCorsOrigins(cfg.CorsOriginsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("GATEWAY_LISTEN_PORT must be a valid port number, got %d", c.ListenPort)
	}
	if c.SolveMaxBody <= 0 {
		return fmt.Errorf("SOLVE_MAX_BODY must be positive, got %d", c.SolveMaxBody)
	}
	if c.WSIdleTimeout < 0 {
		return fmt.Errorf("WS_IDLE_TIMEOUT must not be negative, got %s", c.WSIdleTimeout)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting, got %d", c.RateLimitBurst)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}
