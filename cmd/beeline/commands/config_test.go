package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelinehq/beeline/internal/app"
)

func noEnv() []string { return nil }

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, noEnv)
	require.NoError(t, err)

	assert.Equal(t, app.DefaultConfigLogLevel, cfg.LogLevel)
	assert.Equal(t, app.DefaultConfigLogFormat, cfg.LogFormat)
	assert.Equal(t, app.DefaultConfigServerHost, cfg.Server.Host)
	assert.EqualValues(t, app.DefaultConfigServerPort, cfg.Server.Port)
	assert.Equal(t, app.DefaultConfigAllowedOrigins, cfg.Server.AllowedOrigins)
	assert.Equal(t, app.DefaultConfigHTTPTimeoutSeconds, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, app.DefaultConfigTokenBufferSeconds, cfg.OAuth.ExpirationBufferSeconds)
	assert.Equal(t, app.DefaultConfigMaxRetryAttempts, cfg.OAuth.MaxRetryAttempts)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
log_level = "debug"

[server]
host = "0.0.0.0"
port = 9000

[oauth]
client_id = "file-client"
token_url = "https://auth.example.com/token"
`)

	cfg, err := loadConfig(path, nil, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.EqualValues(t, 9000, cfg.Server.Port)
	assert.Equal(t, "file-client", cfg.OAuth.ClientID)
	assert.Equal(t, "https://auth.example.com/token", cfg.OAuth.TokenURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), nil, noEnv)
	assert.Error(t, err)
}

func TestLoadConfigPrefixedEnv(t *testing.T) {
	environ := func() []string {
		return []string{
			"BEELINE_LOG_LEVEL=warn",
			"BEELINE_SERVER__HOST=10.0.0.1",
			"BEELINE_SERVER__PORT=8080",
			"BEELINE_OAUTH__CLIENT_SECRET=env-secret",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.EqualValues(t, 8080, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
}

func TestLoadConfigWellKnownEnvAliases(t *testing.T) {
	environ := func() []string {
		return []string{
			"OAUTH_CLIENT_ID=alias-client",
			"OAUTH_CLIENT_SECRET=alias-secret",
			"OAUTH_TOKEN_URL=https://auth.example.com/token",
			"HTTP_CLIENT_TIMEOUT=15",
			"TOKEN_EXPIRATION_BUFFER_SECONDS=60",
			"ALLOWED_ORIGINS=https://app.example.com,https://admin.example.com",
			"SOME_UNRELATED_VAR=ignored",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "alias-client", cfg.OAuth.ClientID)
	assert.Equal(t, "alias-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "https://auth.example.com/token", cfg.OAuth.TokenURL)
	assert.Equal(t, 15, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 60, cfg.OAuth.ExpirationBufferSeconds)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigPrefixedEnvOverridesAlias(t *testing.T) {
	environ := func() []string {
		return []string{
			"OAUTH_CLIENT_ID=alias-client",
			"BEELINE_OAUTH__CLIENT_ID=prefixed-client",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "prefixed-client", cfg.OAuth.ClientID)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[oauth]
client_id = "file-client"
client_secret = "file-secret"
`)
	environ := func() []string {
		return []string{"OAUTH_CLIENT_ID=env-client"}
	}

	cfg, err := loadConfig(path, nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
	assert.Equal(t, "file-secret", cfg.OAuth.ClientSecret)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  []string
	}{
		{"bad log level", []string{"BEELINE_LOG_LEVEL=verbose"}},
		{"bad token url", []string{"OAUTH_TOKEN_URL=not-a-url"}},
		{"negative http timeout", []string{"HTTP_CLIENT_TIMEOUT=-5"}},
		{"negative buffer", []string{"TOKEN_EXPIRATION_BUFFER_SECONDS=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig("", nil, func() []string { return tt.env })
			assert.Error(t, err)
		})
	}
}
