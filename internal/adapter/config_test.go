package adapter

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := loadConfig(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Search.DebounceMS)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce())
	assert.Equal(t, 2, cfg.Search.MinChars)
	assert.Equal(t, 3*time.Second, cfg.UI.StatusTimeout)
	assert.False(t, cfg.IsConfigured())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `server:
  url: https://api.example.com/api
  timeout: 5s
search:
  debounce_ms: 150
ui:
  duration_units: tr
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))
	t.Setenv("CINELOG_SERVER_TOKEN", "from-env")

	cfg, err := loadConfig(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api", cfg.Server.URL)
	assert.Equal(t, "from-env", cfg.Server.Token)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 150, cfg.Search.DebounceMS)
	assert.Equal(t, "tr", cfg.UI.DurationUnits)
	assert.True(t, cfg.IsConfigured())
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ui:\n  duration_units: fr\n"), 0600))

	_, err := loadConfig(viper.New(), dir)
	assert.ErrorContains(t, err, "duration_units")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := DefaultConfig()
	cfg.Server.URL = "https://api.example.com"
	cfg.Server.Token = "secret"
	cfg.Search.MinChars = 3

	require.NoError(t, saveConfig(viper.New(), dir, cfg))

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loadConfig(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Server.Token)
	assert.Equal(t, 3, loaded.Search.MinChars)
	assert.Equal(t, cfg.Search.CacheTTL, loaded.Search.CacheTTL)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(in))
		})
	}
}

func TestSetupLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cinelog.log")

	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "debug", MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("hello", "key", "value")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"key":"value"`)
}
