package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration. The mapstructure tags bind the
// snake_case TOML keys onto the fields during Unmarshal.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Journal JournalConfig `mapstructure:"journal"`
	UI      UIConfig      `mapstructure:"ui"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	PollSeconds    int    `mapstructure:"poll_seconds"`
	LogPollSeconds int    `mapstructure:"log_poll_seconds"`
	OfflineAfter   int    `mapstructure:"offline_after"` // consecutive poll failures before status degrades
	RememberPin    bool   `mapstructure:"remember_pin"`
}

// JournalConfig holds local sqlite journal settings.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	StartTab string `mapstructure:"start_tab"`
	Timezone string `mapstructure:"timezone"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration { return time.Duration(a.TimeoutSeconds) * time.Second }

// PollInterval returns the config/auth poll interval as a duration.
func (a APIConfig) PollInterval() time.Duration { return time.Duration(a.PollSeconds) * time.Second }

// LogPollInterval returns the log-tail poll interval as a duration.
func (a APIConfig) LogPollInterval() time.Duration {
	return time.Duration(a.LogPollSeconds) * time.Second
}

// Load reads configuration from file and env. Env var overrides use prefix GMCONSOLE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout_seconds", 10)
	v.SetDefault("api.poll_seconds", 10)
	v.SetDefault("api.log_poll_seconds", 3)
	v.SetDefault("api.offline_after", 3)
	v.SetDefault("api.remember_pin", false)
	v.SetDefault("journal.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "gmconsole", "journal.db"))
	v.SetDefault("ui.start_tab", "overview")
	v.SetDefault("ui.timezone", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GMCONSOLE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gmconsole"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GMCONSOLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.PollSeconds < 1 {
		c.API.PollSeconds = 1
	}
	if c.API.OfflineAfter < 1 {
		c.API.OfflineAfter = 1
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Used by the TUI settings actions for non-sensitive preferences; the PIN never
// goes through here.
func Save(cfg Config) error {
	path := os.Getenv("GMCONSOLE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "gmconsole", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout_seconds", cfg.API.TimeoutSeconds)
	v.Set("api.poll_seconds", cfg.API.PollSeconds)
	v.Set("api.log_poll_seconds", cfg.API.LogPollSeconds)
	v.Set("api.offline_after", cfg.API.OfflineAfter)
	v.Set("api.remember_pin", cfg.API.RememberPin)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("ui.start_tab", cfg.UI.StartTab)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
