package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	AppName  string `env:"APP_NAME,  default=Jai Bharat Management Hub"`

	Session SessionConfig
	Login   LoginConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	OIDC    OIDCConfig
}

type SessionConfig struct {
	Secret         string        `env:"SESSION_SECRET"`
	AdminEmails    []string      `env:"ADMIN_EMAILS"`
	CookieSecure   bool          `env:"COOKIE_SECURE,   default=false"`
	TTL            time.Duration `env:"SESSION_TTL,     default=24h"`
	IdleTTL        time.Duration `env:"SESSION_IDLE_TTL, default=30m"`
	LoadingTimeout time.Duration `env:"LOADING_TIMEOUT, default=2s"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=management_hub"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type OIDCConfig struct {
	Issuer       string `env:"OIDC_ISSUER"`
	ClientID     string `env:"OIDC_CLIENT_ID"`
	ClientSecret string `env:"OIDC_CLIENT_SECRET"`
	RedirectURL  string `env:"OIDC_REDIRECT_URL"`
}

// Enabled reports whether the OIDC sign-in method is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Session.Secret == "" && !c.IsDevelopment() {
		return errors.New("SESSION_SECRET is required outside development")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.OIDC.Enabled() && c.OIDC.RedirectURL == "" {
		return errors.New("OIDC_REDIRECT_URL is required when OIDC is configured")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
