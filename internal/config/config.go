package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port       string `envconfig:"PORT" default:"8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"debug"`
	MongodbURL string `envconfig:"MONGODB_URL" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"songboard"`

	// Cache settings. An empty VALKEY_URL runs the service uncached.
	ValkeyURL    string        `envconfig:"VALKEY_URL"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	CacheTimeout time.Duration `envconfig:"CACHE_TIMEOUT" default:"500ms"`

	// Pagination settings
	DefaultPageLimit int `envconfig:"DEFAULT_PAGE_LIMIT" default:"10"`
	MaxPageLimit     int `envconfig:"MAX_PAGE_LIMIT" default:"100"`

	// Ingestion settings
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB
	StrictIngest   bool  `envconfig:"STRICT_INGEST" default:"false"`

	// Persistence timeouts
	MongoTimeout time.Duration `envconfig:"MONGO_TIMEOUT" default:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that envconfig tags cannot express
func (c *Config) Validate() error {
	if c.DefaultPageLimit < 1 {
		return fmt.Errorf("DEFAULT_PAGE_LIMIT must be at least 1, got %d", c.DefaultPageLimit)
	}
	if c.MaxPageLimit < c.DefaultPageLimit {
		return fmt.Errorf("MAX_PAGE_LIMIT (%d) must not be below DEFAULT_PAGE_LIMIT (%d)", c.MaxPageLimit, c.DefaultPageLimit)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}
