package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/llm"
)

// NewAltTextCmd creates the alttext command
func NewAltTextCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "alttext <pack> [file]",
		Short: "Generate accessibility text with Claude vision",
		Long: `Describe stored stickers for screen readers using the Claude vision API.

Without [file], every sticker of <pack> that has no accessibility text is
described. The text is cut to the limit of the pack's mode (125 characters for
static packs, 255 for animated ones).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 2 {
				file = args[1]
			}
			return runAltText(cmd, args[0], file, overwrite)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing accessibility text")
	return cmd
}

func runAltText(cmd *cobra.Command, packIdentifier, file string, overwrite bool) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := llm.NewClient(a.cfg.Anthropic.APIKey, a.cfg.Anthropic.Model, a.cfg.Anthropic.MaxTokens)
	if err != nil {
		return err
	}

	pack, err := a.store.GetPack(ctx, packIdentifier)
	if err != nil {
		return err
	}

	maxChars := a.limits.AccessibilityMax(pack.AnimatedStickerPack)
	described := 0
	for _, sticker := range pack.Stickers {
		if file != "" && sticker.ImageFileName != file {
			continue
		}
		if file == "" && sticker.AccessibilityText != "" && !overwrite {
			continue
		}

		data, err := a.assets.Fetch(ctx, pack.Identifier, sticker.ImageFileName)
		if err != nil {
			return err
		}

		text, err := client.GenerateAccessibilityText(ctx, data, imaging.DetectMimeType(data), maxChars)
		if err != nil {
			return fmt.Errorf("%s: %w", sticker.ImageFileName, err)
		}

		if err := a.store.UpdateAccessibilityText(ctx, pack.Identifier, sticker.ImageFileName, text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sticker.ImageFileName, text)
		described++
	}

	if file != "" && described == 0 {
		return fmt.Errorf("sticker %s not found in pack %s", file, packIdentifier)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Described %d stickers using %s\n", described, client.Model())
	return nil
}
