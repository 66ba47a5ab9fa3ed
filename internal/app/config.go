package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Default configuration values
const (
	DefaultConfigLogLevel           = "info"
	DefaultConfigLogFormat          = LogFormatText
	DefaultConfigServerHost         = "127.0.0.1"
	DefaultConfigServerPort         = 8000
	DefaultConfigShutdownTimeout    = 5 * time.Second
	DefaultConfigHTTPTimeoutSeconds = 30
	DefaultConfigTokenBufferSeconds = 300
	DefaultConfigMaxRetryAttempts   = 3
)

// DefaultConfigAllowedOrigins grants cross-origin access to the usual
// local frontend development servers.
var DefaultConfigAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8000",
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type

	// AllowedOrigins lists the origins granted cross-origin access.
	AllowedOrigins []string `json:"allowed_origins"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// OAuthConfig holds the client-credentials settings for the token manager.
//
// ClientID, ClientSecret and TokenURL may legitimately be empty at startup:
// the manager reports a configuration error when a token is first requested
// rather than preventing the process from serving unauthenticated routes.
type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url" validate:"omitempty,url"`

	// MaxRetryAttempts bounds the retries within one token request.
	MaxRetryAttempts int `json:"max_retry_attempts" validate:"min=1"`

	// ExpirationBufferSeconds is subtracted from each token's declared
	// lifetime so it is refreshed before the provider rejects it.
	ExpirationBufferSeconds int `json:"expiration_buffer_seconds" validate:"min=0"`
}

// HTTPClientConfig holds outbound HTTP client configuration.
type HTTPClientConfig struct {
	// TimeoutSeconds is the default per-request timeout.
	TimeoutSeconds int `json:"timeout_seconds" validate:"min=1"`
}

// UpstreamConfig holds the third-party API configuration.
type UpstreamConfig struct {
	BaseURL string `json:"base_url" validate:"omitempty,url"`
}

// Config holds the application's configuration.
type Config struct {
	LogLevel  string           `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat LogFormat        `json:"log_format" validate:"oneof=text json"`
	Server    ServerConfig     `json:"server"`
	Shutdown  ShutdownConfig   `json:"shutdown"`
	OAuth     OAuthConfig      `json:"oauth"`
	HTTP      HTTPClientConfig `json:"http"`
	Upstream  UpstreamConfig   `json:"upstream"`
}

// Default creates a new Config with default values applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultConfigLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = DefaultConfigAllowedOrigins
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = DefaultConfigHTTPTimeoutSeconds
	}
	if c.OAuth.ExpirationBufferSeconds == 0 {
		c.OAuth.ExpirationBufferSeconds = DefaultConfigTokenBufferSeconds
	}
	if c.OAuth.MaxRetryAttempts == 0 {
		c.OAuth.MaxRetryAttempts = DefaultConfigMaxRetryAttempts
	}
}

// Validate validates the configuration using struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts the configured level name to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
