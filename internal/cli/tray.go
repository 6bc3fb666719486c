package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
)

// NewTrayCmd creates the tray command
func NewTrayCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "tray <image> <out.png>",
		Short: "Render a tray icon from a still image",
		Long: `Scale a PNG, JPEG, GIF or still WebP image into a square PNG tray icon.

The image is fitted inside the square and centered on a transparent
background. WhatsApp accepts tray icons between 24 and 512 pixels that are
at most 50 KB.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			icon, err := imaging.TrayIcon(data, size)
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[1], icon, 0644); err != nil {
				return fmt.Errorf("failed to write tray icon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, %d bytes)\n", args[1], size, size, len(icon))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", imaging.DefaultTraySize, "edge length in pixels")
	return cmd
}
