package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  username: central
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5.0, cfg.Server.AlertRateLimitPerSec)
	assert.Equal(t, 20, cfg.Server.AlertRateLimitBurst)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Auth.SessionIdle)
	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 10*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "profsafe.db", cfg.Database.DSN)
	assert.Equal(t, "America/Sao_Paulo", cfg.Alerts.Timezone)
	assert.Equal(t, 2, cfg.WorkerPool.Size)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
auth:
  username: from-file
  password: from-file
telegram:
  bot_token: file-token
`)
	t.Setenv("PORT", "9090")
	t.Setenv("CENTRAL_USER", "from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.Username)
	assert.Equal(t, "from-file", cfg.Auth.Password)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("CENTRAL_USER", "central")
	t.Setenv("CENTRAL_PASSWORD", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "central", cfg.Auth.Username)
}

func TestLoad_RejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_AuthDisabledNeedsNoCredentials(t *testing.T) {
	path := writeConfig(t, "auth:\n  enabled: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mysql", DSN: "x"}}
	assert.Error(t, cfg.Validate())
}
