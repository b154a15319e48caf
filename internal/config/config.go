// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"movie-reviews/internal/store"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ProviderToken = "token"
	ProviderOIDC  = "oidc"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// Config is built once at startup and never modified afterwards.
type Config struct {
	Environment string          `koanf:"environment"`
	Server      ServerConfig    `koanf:"server"`
	Store       store.Config    `koanf:"live_store"`
	Auth        AuthConfig      `koanf:"auth"`
	Logging     LoggingConfig   `koanf:"logging"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type AuthConfig struct {
	Provider     string        `koanf:"provider"`
	TokenSecret  string        `koanf:"token_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	OIDCIssuer   string        `koanf:"oidc_issuer"`
	OIDCClientID string        `koanf:"oidc_client_id"`
	CookieName   string        `koanf:"cookie_name"`
	AdminEmails  []string      `koanf:"admin_emails"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RateLimitConfig limits write requests per client address.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// IsDevelopment reports whether the process runs in development mode.
// Development mode always serves the fixture.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func defaultConfig() *Config {
	return &Config{
		Environment: EnvProduction,
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: store.Config{
			URL:          "postgres://localhost:5432/movie_reviews?sslmode=disable",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			Provider:   ProviderToken,
			TokenTTL:   24 * time.Hour,
			CookieName: "session",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     5,
			Burst:   10,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"auth.admin_emails",
}

// processSliceFields splits comma-separated env values into slices. Values
// that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		trimmed := []string{}
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"app_env": "environment",

	"port":                    "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_idle_timeout":     "server.idle_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"live_store_project_id":     "live_store.project_id",
	"live_store_api_key":        "live_store.api_key",
	"live_store_url":            "live_store.url",
	"live_store_max_open_conns": "live_store.max_open_conns",
	"fixture_path":              "live_store.fixture_path",

	"auth_provider":       "auth.provider",
	"auth_token_secret":   "auth.token_secret",
	"auth_token_ttl":      "auth.token_ttl",
	"auth_oidc_issuer":    "auth.oidc_issuer",
	"auth_oidc_client_id": "auth.oidc_client_id",
	"auth_cookie_name":    "auth.cookie_name",
	"admin_emails":        "auth.admin_emails",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"rate_limit_enabled": "rate_limit.enabled",
	"rate_limit_rps":     "rate_limit.rps",
	"rate_limit_burst":   "rate_limit.burst",
}

// envTransformFunc maps environment variable names to config paths. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment))
	}

	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.Auth.Provider {
	case ProviderToken:
		if c.Auth.TokenSecret == "" {
			errs = append(errs, errors.New("AUTH_TOKEN_SECRET is required when AUTH_PROVIDER=token"))
		} else if len(c.Auth.TokenSecret) < 32 {
			errs = append(errs, errors.New("AUTH_TOKEN_SECRET must be at least 32 bytes"))
		}
		if c.Auth.TokenTTL <= 0 {
			errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
		}
	case ProviderOIDC:
		if c.Auth.OIDCIssuer == "" || c.Auth.OIDCClientID == "" {
			errs = append(errs, errors.New("AUTH_OIDC_ISSUER and AUTH_OIDC_CLIENT_ID are required when AUTH_PROVIDER=oidc"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", ProviderToken, ProviderOIDC, c.Auth.Provider))
	}

	if c.Store.LiveConfigured() && c.Store.URL == "" {
		errs = append(errs, errors.New("LIVE_STORE_URL is required when live store credentials are set"))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger builds the process logger.
func (l LoggingConfig) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
