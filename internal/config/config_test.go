package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Storage.DataDir != dir {
		t.Errorf("Expected data dir %s, got %s", dir, cfg.Storage.DataDir)
	}
	if cfg.Storage.DatabasePath() != filepath.Join(dir, "stickerbook.db") {
		t.Errorf("Unexpected database path: %s", cfg.Storage.DatabasePath())
	}
	if cfg.Storage.Assets != AssetsDir {
		t.Errorf("Expected dir assets, got %s", cfg.Storage.Assets)
	}
	if cfg.Workers <= 0 {
		t.Errorf("Expected positive worker count, got %d", cfg.Workers)
	}
	if cfg.Anthropic.Model != "claude-3-haiku-20240307" {
		t.Errorf("Unexpected default model: %s", cfg.Anthropic.Model)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `storage:
  database: /var/lib/stickerbook/packs.db
limits:
  variant: lite
  static_max_bytes: 90000
  max_animation_duration: 8s
workers: 3
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Storage.DatabasePath() != "/var/lib/stickerbook/packs.db" {
		t.Errorf("Absolute database path changed: %s", cfg.Storage.DatabasePath())
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Workers)
	}
	if cfg.Anthropic.APIKey != "sk-test" {
		t.Errorf("Expected API key from environment, got %q", cfg.Anthropic.APIKey)
	}

	limits, err := cfg.Limits.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if limits.NameMaxLen != validate.LiteLimits().NameMaxLen {
		t.Errorf("Expected lite name limit, got %d", limits.NameMaxLen)
	}
	if limits.StaticMaxBytes != 90000 {
		t.Errorf("Expected static override 90000, got %d", limits.StaticMaxBytes)
	}
	if limits.MaxAnimationDuration != 8*time.Second {
		t.Errorf("Expected 8s animation limit, got %s", limits.MaxAnimationDuration)
	}
	if limits.AnimatedMaxBytes != validate.StandardLimits().AnimatedMaxBytes {
		t.Errorf("Animated limit should keep the preset, got %d", limits.AnimatedMaxBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dir assets", Config{Storage: StorageConfig{Assets: AssetsDir}}, false},
		{"s3 without bucket", Config{Storage: StorageConfig{Assets: AssetsS3}}, true},
		{"s3 with bucket", Config{Storage: StorageConfig{Assets: AssetsS3}, S3: S3Config{Bucket: "packs"}}, false},
		{"unknown backend", Config{Storage: StorageConfig{Assets: "ftp"}}, true},
		{"unknown variant", Config{Storage: StorageConfig{Assets: AssetsDir}, Limits: LimitsConfig{Variant: "huge"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stickerbook")

	cfg := &Config{
		Storage: StorageConfig{DataDir: dir, Database: "stickerbook.db", Assets: AssetsDir},
		Matrix: MatrixConfig{
			Homeserver:  "https://matrix.org",
			UserID:      "@test:matrix.org",
			AccessToken: "test_token",
		},
	}
	if err := save(dir, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}

	loaded, err := load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Matrix.AccessToken != "test_token" {
		t.Errorf("Expected saved access token, got %q", loaded.Matrix.AccessToken)
	}
}
