// Package config handles application configuration management.
// It supports YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// Asset backends accepted in storage.assets
const (
	AssetsDir = "dir"
	AssetsS3  = "s3"
)

// Config holds all application configuration
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Limits    LimitsConfig    `mapstructure:"limits" yaml:"limits"`
	Workers   int             `mapstructure:"workers" yaml:"workers"`
	S3        S3Config        `mapstructure:"s3" yaml:"s3"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Matrix    MatrixConfig    `mapstructure:"matrix" yaml:"matrix"`
}

// StorageConfig holds storage settings
type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	Database string `mapstructure:"database" yaml:"database"`
	// Assets selects where managed sticker files live: "dir" or "s3"
	Assets string `mapstructure:"assets" yaml:"assets"`
}

// LimitsConfig picks a rule preset. Non-zero fields override the preset.
type LimitsConfig struct {
	Variant          string `mapstructure:"variant" yaml:"variant"`
	IdentifierMaxLen int    `mapstructure:"identifier_max_len" yaml:"identifier_max_len,omitempty"`
	PublisherMaxLen  int    `mapstructure:"publisher_max_len" yaml:"publisher_max_len,omitempty"`
	NameMaxLen       int    `mapstructure:"name_max_len" yaml:"name_max_len,omitempty"`
	EmojiMaxCount    int    `mapstructure:"emoji_max_count" yaml:"emoji_max_count,omitempty"`
	StaticMaxBytes   int64  `mapstructure:"static_max_bytes" yaml:"static_max_bytes,omitempty"`
	AnimatedMaxBytes int64  `mapstructure:"animated_max_bytes" yaml:"animated_max_bytes,omitempty"`
	TrayMaxBytes     int64  `mapstructure:"tray_max_bytes" yaml:"tray_max_bytes,omitempty"`
	// MaxAnimationDuration accepts Go durations such as "10s"
	MaxAnimationDuration time.Duration `mapstructure:"max_animation_duration" yaml:"max_animation_duration,omitempty"`
}

// S3Config holds the bucket used when storage.assets is "s3"
type S3Config struct {
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`
	Region   string `mapstructure:"region" yaml:"region"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// AnthropicConfig holds Anthropic API settings
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// MatrixConfig holds Matrix connection settings
type MatrixConfig struct {
	Homeserver  string `mapstructure:"homeserver" yaml:"homeserver"`
	UserID      string `mapstructure:"user_id" yaml:"user_id"`
	DeviceID    string `mapstructure:"device_id" yaml:"device_id"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token"`
}

// Resolve applies overrides on top of the selected preset
func (l LimitsConfig) Resolve() (validate.Limits, error) {
	limits, err := validate.LimitsFor(l.Variant)
	if err != nil {
		return validate.Limits{}, err
	}

	overrideInt(&limits.IdentifierMaxLen, l.IdentifierMaxLen)
	overrideInt(&limits.PublisherMaxLen, l.PublisherMaxLen)
	overrideInt(&limits.NameMaxLen, l.NameMaxLen)
	overrideInt(&limits.EmojiMaxCount, l.EmojiMaxCount)
	overrideInt(&limits.StaticMaxBytes, l.StaticMaxBytes)
	overrideInt(&limits.AnimatedMaxBytes, l.AnimatedMaxBytes)
	overrideInt(&limits.TrayMaxBytes, l.TrayMaxBytes)
	overrideInt(&limits.MaxAnimationDuration, l.MaxAnimationDuration)

	return limits, nil
}

func overrideInt[T int | int64 | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// DatabasePath returns the SQLite path, relative names resolved against DataDir
func (s StorageConfig) DatabasePath() string {
	if s.Database == "" || filepath.IsAbs(s.Database) {
		return s.Database
	}
	return filepath.Join(s.DataDir, s.Database)
}

// AssetsRoot is the directory holding managed sticker files for the "dir" backend
func (s StorageConfig) AssetsRoot() string {
	return filepath.Join(s.DataDir, "assets")
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w", err)
	}
	return load(configDir)
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("storage.data_dir", configDir)
	v.SetDefault("storage.database", "stickerbook.db")
	v.SetDefault("storage.assets", AssetsDir)
	v.SetDefault("limits.variant", validate.VariantStandard)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("anthropic.max_tokens", 100)

	// Configure viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir) // Will be /data in Docker (via STICKERBOOK_CONFIG_DIR env var)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	// Environment variable overrides
	v.SetEnvPrefix("STICKERBOOK")
	v.AutomaticEnv()

	// Specific env var bindings
	_ = v.BindEnv("matrix.access_token", "MATRIX_ACCESS_TOKEN")
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("s3.bucket", "STICKERBOOK_S3_BUCKET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with
func (c *Config) Validate() error {
	switch c.Storage.Assets {
	case AssetsDir:
	case AssetsS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("storage.assets is s3 but s3.bucket is empty")
		}
	default:
		return fmt.Errorf("unknown storage.assets: %s (valid: dir, s3)", c.Storage.Assets)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if _, err := c.Limits.Resolve(); err != nil {
		return fmt.Errorf("invalid limits: %w", err)
	}
	return nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	configDir, err := getConfigDir()
	if err != nil {
		return fmt.Errorf("failed to determine config directory: %w", err)
	}
	return save(configDir, cfg)
}

func save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	v := viper.New()
	v.Set("storage", cfg.Storage)
	v.Set("limits", cfg.Limits)
	v.Set("workers", cfg.Workers)
	v.Set("s3", cfg.S3)
	v.Set("anthropic", cfg.Anthropic)
	v.Set("matrix", cfg.Matrix)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Contains credentials
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	// Docker can set this to /data
	if configDir := os.Getenv("STICKERBOOK_CONFIG_DIR"); configDir != "" {
		return configDir, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stickerbook"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "stickerbook"), nil
}

// GetConfigDir returns the configuration directory (exported for other packages)
func GetConfigDir() (string, error) {
	return getConfigDir()
}
