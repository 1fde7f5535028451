package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadDefaults(t *testing.T) {
	writeConfig(t, `
remote:
  baseURL: https://schedule.example.com
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://schedule.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 10000, cfg.Remote.TimeoutMS)
	assert.Equal(t, 15*60*1000, cfg.Remote.SyncIntervalMS)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)
}

func TestLoadRejectsMissingRemote(t *testing.T) {
	writeConfig(t, `
server:
  port: 9090
`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadURL(t *testing.T) {
	writeConfig(t, `
remote:
  baseURL: not-a-url
`)

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	writeConfig(t, `
server:
  port: 9090
remote:
  baseURL: https://schedule.example.com
`)
	t.Setenv("API_PORT", "7070")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://notify.example.com/hooks")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://notify.example.com/hooks", cfg.Notifier.WebhookURL)
}
