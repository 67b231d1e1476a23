package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GMCONSOLE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	require.Equal(t, 10, cfg.API.PollSeconds)
	require.Equal(t, 3, cfg.API.OfflineAfter)
	require.False(t, cfg.API.RememberPin)
	require.Equal(t, "overview", cfg.UI.StartTab)
	require.NotEmpty(t, cfg.Journal.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GMCONSOLE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("GMCONSOLE_API_BASE_URL", "http://gamehost:9000")
	t.Setenv("GMCONSOLE_API_POLL_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://gamehost:9000", cfg.API.BaseURL)
	require.Equal(t, 30, cfg.API.PollSeconds)
}

func TestLoadClampsBadValues(t *testing.T) {
	t.Setenv("GMCONSOLE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("GMCONSOLE_API_POLL_SECONDS", "0")
	t.Setenv("GMCONSOLE_API_OFFLINE_AFTER", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.API.PollSeconds)
	require.Equal(t, 1, cfg.API.OfflineAfter)
}

func TestLoadFromFileSnakeCaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	raw := `[api]
base_url = "http://table:8000"
timeout_seconds = 7
log_poll_seconds = 5
offline_after = 4
remember_pin = true

[ui]
start_tab = "heroes"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("GMCONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://table:8000", cfg.API.BaseURL)
	require.Equal(t, 7, cfg.API.TimeoutSeconds)
	require.Equal(t, 5, cfg.API.LogPollSeconds)
	require.Equal(t, 4, cfg.API.OfflineAfter)
	require.True(t, cfg.API.RememberPin)
	require.Equal(t, "heroes", cfg.UI.StartTab)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("GMCONSOLE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.API.BaseURL = "http://dm-laptop:8000"
	cfg.API.RememberPin = true
	cfg.UI.StartTab = "dice"

	require.NoError(t, Save(cfg))
	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://dm-laptop:8000", loaded.API.BaseURL)
	require.True(t, loaded.API.RememberPin)
	require.Equal(t, "dice", loaded.UI.StartTab)
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	a := APIConfig{TimeoutSeconds: 5, PollSeconds: 10, LogPollSeconds: 3}
	require.Equal(t, "5s", a.Timeout().String())
	require.Equal(t, "10s", a.PollInterval().String())
	require.Equal(t, "3s", a.LogPollInterval().String())
}
