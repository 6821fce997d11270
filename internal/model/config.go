package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the AI subtask-suggestion integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// BillingConfig holds settings for the payments collaborator.
type BillingConfig struct {
	// BaseURL is the root URL of the billing API that creates checkout
	// and portal sessions.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Path overrides the default database location when set.
	Path string `mapstructure:"path" yaml:"path"`

	// OutboxDir is where composed notification mail is written.
	OutboxDir string `mapstructure:"outbox_dir" yaml:"outbox_dir"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Billing BillingConfig `mapstructure:"billing" yaml:"billing"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// configDir returns the application's config directory,
// ~/.config/taskdeck, falling back to the working directory.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskdeck")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultDataPath returns the default path for the SQLite database.
func DefaultDataPath() string {
	return filepath.Join(configDir(), "taskdeck.db")
}

// DefaultOutboxDir returns the default directory for composed mail.
func DefaultOutboxDir() string {
	return filepath.Join(configDir(), "outbox")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Billing: BillingConfig{
			BaseURL: "https://billing.taskdeck.local/api",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Storage: StorageConfig{
			Path:      DefaultDataPath(),
			OutboxDir: DefaultOutboxDir(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("billing.base_url", "https://billing.taskdeck.local/api")
	v.SetDefault("display.theme", "default")
	v.SetDefault("storage.path", DefaultDataPath())
	v.SetDefault("storage.outbox_dir", DefaultOutboxDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
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

	v.Set("ai", cfg.AI)
	v.Set("billing", cfg.Billing)
	v.Set("display", cfg.Display)
	v.Set("storage", cfg.Storage)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
