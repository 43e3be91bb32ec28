package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the application. Values come from the
// environment; secrets (client id/secret) are never persisted.
type Config struct {
	HTTPPort    int    `validate:"gte=1,lte=65535"`
	MetricsPort int    `validate:"gte=1,lte=65535"`
	DBPath      string // empty selects the in-memory session store

	Auth struct {
		ClientID      string        `validate:"required"`
		ClientSecret  string        `validate:"required"`
		RedirectURI   string        `validate:"required,url"`
		Scopes        string        `validate:"required"`
		FlowTTL       time.Duration `validate:"min=1m"`
		RefreshMargin time.Duration `validate:"min=1s"`
	}

	Session struct {
		TTL time.Duration `validate:"min=1m"`
	}
}

// Defaults chosen to match the hosted demo: the refresh margin mirrors the
// 30-second expiry check the provider flow was built around.
const (
	DefaultHTTPPort      = 8000
	DefaultMetricsPort   = 9090
	DefaultScopes        = "user:read channel:read chat:write"
	DefaultFlowTTL       = 10 * time.Minute
	DefaultRefreshMargin = 30 * time.Second
	DefaultSessionTTL    = 24 * time.Hour
)

// Load builds a Config from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:    DefaultHTTPPort,
		MetricsPort: DefaultMetricsPort,
		DBPath:      os.Getenv("DB_PATH"),
	}
	cfg.Auth.ClientID = os.Getenv("KICK_CLIENT_ID")
	cfg.Auth.ClientSecret = os.Getenv("KICK_CLIENT_SECRET")
	cfg.Auth.RedirectURI = os.Getenv("KICK_REDIRECT_URI")
	cfg.Auth.Scopes = DefaultScopes
	cfg.Auth.FlowTTL = DefaultFlowTTL
	cfg.Auth.RefreshMargin = DefaultRefreshMargin
	cfg.Session.TTL = DefaultSessionTTL

	if v := os.Getenv("KICK_SCOPES"); v != "" {
		cfg.Auth.Scopes = v
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing HTTP_PORT: %w", err)
		}
		cfg.HTTPPort = port
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing METRICS_PORT: %w", err)
		}
		cfg.MetricsPort = port
	}

	if v := os.Getenv("FLOW_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing FLOW_TTL: %w", err)
		}
		cfg.Auth.FlowTTL = d
	}
	if v := os.Getenv("REFRESH_MARGIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing REFRESH_MARGIN: %w", err)
		}
		cfg.Auth.RefreshMargin = d
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}
