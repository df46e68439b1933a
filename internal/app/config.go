package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/dkopi/internal/mail"
	"github.com/xenking/dkopi/internal/storage/slot"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (DKOPI_ prefix), flags, a .env file or YAML config
// files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (DKOPI_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `usage:"Redis connection URL (DKOPI_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Slot         SlotConfig
	Session      SessionConfig
	Admin        AdminConfig
	Mail         mail.Config
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SlotConfig selects where carts are persisted.
type SlotConfig struct {
	Backend string        `default:"memory" usage:"Cart slot backend: memory, file, redis or postgres" flag:"slot-backend"`
	Dir     string        `default:"data/slots" usage:"Directory for the file backend" flag:"slot-dir"`
	Prefix  string        `default:"dkopi:" usage:"Key prefix for the redis backend" flag:"slot-prefix"`
	TTL     time.Duration `default:"720h" usage:"Idle expiry of redis slots, 0 keeps them forever" flag:"slot-ttl"`
}

// SessionConfig controls the shopper session cookie and in-memory eviction.
type SessionConfig struct {
	TTL           time.Duration `default:"720h" usage:"Session cookie lifetime" flag:"session-ttl"`
	SecureCookie  bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookie"`
	IdleEviction  time.Duration `default:"30m" usage:"Forget in-memory carts idle this long" flag:"session-idle"`
	EvictInterval time.Duration `default:"1m" usage:"How often idle sessions are evicted" flag:"session-evict-interval"`
}

// AdminConfig controls console authentication.
type AdminConfig struct {
	JWTSecret  string        `usage:"HMAC secret for console tokens (DKOPI_ADMIN_JWTSECRET)" flag:"jwt-secret"`
	SessionTTL time.Duration `default:"12h" usage:"Console token lifetime" flag:"admin-session-ttl"`
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

// LoadConfig loads an optional .env file, then configuration from
// environment variables and YAML files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DKOPI",
		Files:     []string{"config.yaml", "/etc/dkopi/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected slot backend has what it needs.
func (c *Config) Validate() error {
	switch slot.Backend(c.Slot.Backend) {
	case slot.BackendMemory:
	case slot.BackendFile:
		if c.Slot.Dir == "" {
			return errors.New("slot dir is required for the file backend")
		}
	case slot.BackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL is required for the redis backend: set DKOPI_REDIS_URL or REDIS_URL")
		}
	case slot.BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres backend: set DKOPI_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown slot backend %q", c.Slot.Backend)
	}
	if c.Admin.SessionTTL <= 0 {
		return errors.New("admin session TTL must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL, REDIS_URL and PORT
// to the application's DKOPI_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
