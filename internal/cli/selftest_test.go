package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// TestCheckValidator verifies the self-check image is rejected as a sticker
func TestCheckValidator(t *testing.T) {
	if err := checkValidator(validate.StandardLimits(), createTestImage()); err != nil {
		t.Errorf("checkValidator failed: %v", err)
	}
}

// TestCreateTestImage verifies the self-check image decodes as PNG
func TestCreateTestImage(t *testing.T) {
	info, err := imaging.NewDecoder().Decode(createTestImage())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Format != "png" || info.Width != 64 || info.Height != 64 {
		t.Errorf("Unexpected image info: %+v", info)
	}
}

// TestTrayCmd verifies the tray command writes a PNG of the requested size
func TestTrayCmd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	out := filepath.Join(dir, "tray.png")
	if err := os.WriteFile(src, createTestImage(), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	cmd := NewTrayCmd()
	var stdout strings.Builder
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{src, out, "--size", "48"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("tray failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read tray icon: %v", err)
	}
	info, err := imaging.NewDecoder().Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Width != 48 || info.Height != 48 {
		t.Errorf("Expected 48x48, got %dx%d", info.Width, info.Height)
	}
	if !strings.Contains(stdout.String(), "48x48") {
		t.Errorf("Unexpected output: %q", stdout.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Errorf("Expected b, got %s", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("Expected empty, got %s", got)
	}
}
