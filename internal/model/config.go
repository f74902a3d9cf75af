package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds the backend connection settings.
type APIConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Username string `mapstructure:"username" yaml:"username"`

	// PasswordRef is "keyring:<key>", "env:<VAR>" or a literal password.
	PasswordRef string `mapstructure:"password_ref" yaml:"password_ref"`

	UserID     string `mapstructure:"user_id" yaml:"user_id"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the HTTP timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// InboxConfig holds inbox paging settings.
type InboxConfig struct {
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// PollingConfig holds the background poll intervals.
type PollingConfig struct {
	SyncStatusIntervalSec   int `mapstructure:"sync_status_interval_sec" yaml:"sync_status_interval_sec"`
	NotificationIntervalSec int `mapstructure:"notification_interval_sec" yaml:"notification_interval_sec"`
}

// SyncStatusInterval returns how often a running sync job is polled.
func (c PollingConfig) SyncStatusInterval() time.Duration {
	return time.Duration(c.SyncStatusIntervalSec) * time.Second
}

// NotificationInterval returns how often the unread count is polled.
func (c PollingConfig) NotificationInterval() time.Duration {
	return time.Duration(c.NotificationIntervalSec) * time.Second
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StateConfig locates the preference database.
type StateConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AccountsConfig holds account linking options.
type AccountsConfig struct {
	// ProbeIMAP verifies custom IMAP credentials before the account is
	// created on the backend.
	ProbeIMAP bool `mapstructure:"probe_imap" yaml:"probe_imap"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Inbox    InboxConfig    `mapstructure:"inbox" yaml:"inbox"`
	Polling  PollingConfig  `mapstructure:"polling" yaml:"polling"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	State    StateConfig    `mapstructure:"state" yaml:"state"`
	Accounts AccountsConfig `mapstructure:"accounts" yaml:"accounts"`
}

// configDir returns ~/.config/mailboard, or the working directory when the
// home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailboard")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaults lists every key with its default value. Registering all keys
// lets MAILBOARD_* environment variables override any of them.
func defaults() map[string]any {
	return map[string]any{
		"api.base_url":                      "http://localhost:8080/api",
		"api.username":                      "admin",
		"api.password_ref":                  "keyring:api-password",
		"api.user_id":                       "1",
		"api.timeout_sec":                   30,
		"inbox.page_size":                   20,
		"polling.sync_status_interval_sec":  2,
		"polling.notification_interval_sec": 30,
		"display.theme":                     "system",
		"log.level":                         "info",
		"log.file":                          filepath.Join(configDir(), "mailboard.log"),
		"state.path":                        filepath.Join(configDir(), "state.db"),
		"accounts.probe_imap":               true,
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("MAILBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and environment overrides apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the client cannot work with.
func (c *AppConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Inbox.PageSize <= 0 {
		return fmt.Errorf("inbox.page_size must be positive, got %d", c.Inbox.PageSize)
	}
	if c.Polling.SyncStatusIntervalSec <= 0 || c.Polling.NotificationIntervalSec <= 0 {
		return errors.New("polling intervals must be positive")
	}
	switch c.Display.Theme {
	case "light", "dark", "system":
	default:
		return fmt.Errorf("display.theme must be light, dark or system, got %q", c.Display.Theme)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("inbox", cfg.Inbox)
	v.Set("polling", cfg.Polling)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("state", cfg.State)
	v.Set("accounts", cfg.Accounts)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
