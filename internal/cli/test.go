package cli

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/llm"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/matrix"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check configuration and components",
		Long: `Test that all components are working correctly:

  - Configuration loads properly
  - Database opens and migrations are applied
  - Image decoding and tray icon rendering
  - Sticker validation rejects a non-WebP file
  - Claude vision API (when an API key is configured)
  - Matrix authentication (when logged in)

This is useful for verifying setup before importing packs.`,
		RunE: runTest,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("🧪 Running stickerbook tests...")
	fmt.Println()

	fmt.Print("📋 Loading configuration and database... ")
	a, err := openApp(ctx)
	if err != nil {
		fmt.Printf("❌\n   Error: %v\n", err)
		return err
	}
	defer a.Close()
	if err := a.store.Ping(ctx); err != nil {
		fmt.Printf("❌\n   Error: %v\n", err)
		return err
	}
	fmt.Printf("✅\n   Database: %s\n   Assets: %s\n", a.cfg.Storage.DatabasePath(), a.cfg.Storage.Assets)
	fmt.Println()

	fmt.Print("🖼️  Decoding test image... ")
	testImageData := createTestImage()
	info, err := imaging.NewDecoder().Decode(testImageData)
	if err != nil {
		fmt.Printf("❌\n   Error: %v\n", err)
		return err
	}
	fmt.Printf("✅\n   Format: %s, dimensions: %dx%d\n", info.Format, info.Width, info.Height)

	fmt.Print("🔲 Rendering tray icon... ")
	icon, err := imaging.TrayIcon(testImageData, imaging.DefaultTraySize)
	if err != nil {
		fmt.Printf("❌\n   Error: %v\n", err)
		return err
	}
	fmt.Printf("✅\n   Size: %d bytes\n", len(icon))

	fmt.Print("🔍 Validating a PNG sticker... ")
	if err := checkValidator(a.limits, testImageData); err != nil {
		fmt.Printf("❌\n   Error: %v\n", err)
		return err
	}
	fmt.Println("✅")
	fmt.Println()

	client, err := llm.NewClient(a.cfg.Anthropic.APIKey, a.cfg.Anthropic.Model, a.cfg.Anthropic.MaxTokens)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		fmt.Println("⏭️  No Anthropic API key, skipping accessibility text")
	case err != nil:
		fmt.Printf("❌ Anthropic settings: %v\n", err)
		return err
	default:
		fmt.Printf("✨ Generating accessibility text with %s... ", client.Model())
		text, err := client.GenerateAccessibilityText(ctx, testImageData, "image/png", a.limits.AccessibilityMax(false))
		if err != nil {
			fmt.Printf("❌\n   Error: %v\n", err)
			return err
		}
		fmt.Printf("✅\n   Text: %s\n", text)
	}

	mx, err := matrix.NewClient(a.cfg.Matrix.Homeserver, a.cfg.Matrix.UserID, a.cfg.Matrix.AccessToken)
	switch {
	case errors.Is(err, matrix.ErrNotLoggedIn):
		fmt.Println("⏭️  Not logged in to Matrix, skipping")
	case err != nil:
		fmt.Printf("❌ Matrix settings: %v\n", err)
		return err
	default:
		fmt.Print("🔑 Verifying Matrix credentials... ")
		if err := mx.Connect(ctx); err != nil {
			fmt.Printf("❌\n   Error: %v\n", err)
			return err
		}
		fmt.Printf("✅\n   Logged in as: %s\n", mx.UserID)
	}
	fmt.Println()

	fmt.Println("🎉 All tests passed!")
	return nil
}

// checkValidator expects a PNG sticker to be rejected as the wrong file type
func checkValidator(limits validate.Limits, data []byte) error {
	v := validate.NewStickerValidator(limits, nil, imaging.NewDecoder())

	err := v.VerifyData("self_test", validate.Sticker{ImageFileName: "test.png", Emojis: []string{"✅"}}, data, false)
	if kind := validate.KindOf(err); kind != validate.KindFileType {
		return fmt.Errorf("expected %s, got %v", validate.KindFileType, err)
	}
	return nil
}

// createTestImage generates a small opaque test PNG
func createTestImage() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 0x8e, G: 0x44, B: 0xad, A: 0xff}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
