package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig holds backend configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`   // API base URL, including the common prefix
	Token   string        `mapstructure:"token"` // Bearer token; empty means anonymous
	Timeout time.Duration `mapstructure:"timeout"`
	Retries uint          `mapstructure:"retries"`
}

// SearchConfig tunes search-as-you-type
type SearchConfig struct {
	DebounceMS int           `mapstructure:"debounce_ms"`
	MinChars   int           `mapstructure:"min_chars"`
	CacheSize  int           `mapstructure:"cache_size"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// Debounce returns the debounce delay as a duration
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// UIConfig holds UI configuration
type UIConfig struct {
	DurationUnits string        `mapstructure:"duration_units"` // "en" or "tr"
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	DefaultList   string        `mapstructure:"default_list"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// CacheConfig holds local store configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // empty disables persistence
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: 10 * time.Second,
			Retries: 3,
		},
		Search: SearchConfig{
			DebounceMS: 300,
			MinChars:   2,
			CacheSize:  128,
			CacheTTL:   5 * time.Minute,
		},
		UI: UIConfig{
			DurationUnits: "en",
			StatusTimeout: 3 * time.Second,
			DefaultList:   "watch-next",
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cinelog", "cinelog.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cinelog", "cinelog.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	if dir := os.Getenv("CINELOG_CONFIG_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cinelog")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cinelog")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "cinelog", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cinelog", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), defaultConfigPath())
}

func loadConfig(v *viper.Viper, dir string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	// Environment variable overrides (CINELOG_SERVER_TOKEN, ...)
	v.SetEnvPrefix("CINELOG")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// configKeys are bound explicitly so env overrides reach Unmarshal even without a config file
var configKeys = []string{
	"server.url", "server.token", "server.timeout", "server.retries",
	"search.debounce_ms", "search.min_chars", "search.cache_size", "search.cache_ttl",
	"ui.duration_units", "ui.status_timeout", "ui.default_list",
	"logging.file", "logging.level", "logging.max_size_mb", "logging.max_backups",
	"cache.dir",
}

func bindEnv(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

// Validate rejects settings the rest of the app cannot work with
func (c *Config) Validate() error {
	if c.Search.MinChars < 1 {
		return fmt.Errorf("search.min_chars must be at least 1")
	}
	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative")
	}
	switch c.UI.DurationUnits {
	case "", "en", "tr":
	default:
		return fmt.Errorf("ui.duration_units must be en or tr, got %q", c.UI.DurationUnits)
	}
	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), defaultConfigPath(), cfg)
}

func saveConfig(v *viper.Viper, dir string, cfg *Config) error {
	// Set fields individually to keep snake_case key names
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.token", cfg.Server.Token)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.retries", cfg.Server.Retries)

	v.Set("search.debounce_ms", cfg.Search.DebounceMS)
	v.Set("search.min_chars", cfg.Search.MinChars)
	v.Set("search.cache_size", cfg.Search.CacheSize)
	v.Set("search.cache_ttl", cfg.Search.CacheTTL.String())

	v.Set("ui.duration_units", cfg.UI.DurationUnits)
	v.Set("ui.status_timeout", cfg.UI.StatusTimeout.String())
	v.Set("ui.default_list", cfg.UI.DefaultList)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.Set("logging.max_backups", cfg.Logging.MaxBackups)

	v.Set("cache.dir", cfg.Cache.Dir)

	return writeConfig(v, dir)
}

// SaveToken updates just the token in the configuration
func SaveToken(token string) error {
	viper.Set("server.token", token)
	return writeConfig(viper.GetViper(), defaultConfigPath())
}

// ClearServerConfig removes the server URL and token while preserving other settings
func ClearServerConfig() error {
	viper.Set("server.url", "")
	viper.Set("server.token", "")
	return writeConfig(viper.GetViper(), defaultConfigPath())
}

func writeConfig(v *viper.Viper, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The file holds a bearer token
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set.
// A missing token is allowed: the app runs anonymously.
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// ClearCache removes all cached data
func ClearCache(cfg *Config) error {
	if cfg.Cache.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(cfg.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
