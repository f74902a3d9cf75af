package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, "1", cfg.API.UserID)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, 20, cfg.Inbox.PageSize)
	assert.Equal(t, 2*time.Second, cfg.Polling.SyncStatusInterval())
	assert.Equal(t, 30*time.Second, cfg.Polling.NotificationInterval())
	assert.Equal(t, "system", cfg.Display.Theme)
	assert.True(t, cfg.Accounts.ProbeIMAP)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://mail.internal/api
  user_id: "3"
inbox:
  page_size: 50
display:
  theme: dark
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://mail.internal/api", cfg.API.BaseURL)
	assert.Equal(t, "3", cfg.API.UserID)
	assert.Equal(t, 50, cfg.Inbox.PageSize)
	assert.Equal(t, "dark", cfg.Display.Theme)
	assert.Equal(t, "admin", cfg.API.Username)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MAILBOARD_API_BASE_URL", "http://backend:9000/api")
	t.Setenv("MAILBOARD_INBOX_PAGE_SIZE", "10")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api", cfg.API.BaseURL)
	assert.Equal(t, 10, cfg.Inbox.PageSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad_theme", "display:\n  theme: neon\n", "display.theme"},
		{"zero_page_size", "inbox:\n  page_size: 0\n", "page_size"},
		{"bad_yaml", "api: [unclosed\n", "reading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.API.UserID = "9"
	cfg.Display.Theme = "light"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
