package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/contents"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/ingest"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/report"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Check a sticker pack bundle against WhatsApp's rules",
		Long: `Validate every pack listed in <dir>/contents.json.

Pack files are read from <dir>/<identifier>/<file>, the layout used by the
WhatsApp sticker sample app. Nothing is written to the database.

Exits non-zero when any pack or sticker fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], htmlPath)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the report as HTML to this file")
	return cmd
}

func runValidate(cmd *cobra.Command, dir, htmlPath string) error {
	cfg, limits, err := loadConfig()
	if err != nil {
		return err
	}

	packs, err := contents.Load(dir)
	if err != nil {
		return err
	}

	service := ingest.NewService(limits, imaging.NewDecoder(), nil, nil, cfg.Workers)
	reports, err := service.Check(cmd.Context(), assets.NewDirFetcher(dir), packs)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Validation of %s", dir)
	fmt.Fprint(cmd.OutOrStdout(), report.Markdown(title, reports))

	if htmlPath != "" {
		if err := os.WriteFile(htmlPath, []byte(report.HTML(title, reports)), 0644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
	}

	sum := ingest.Summarize(reports)
	if sum.Valid != sum.Packs {
		return fmt.Errorf("%d of %d packs failed validation", sum.Packs-sum.Valid, sum.Packs)
	}
	return nil
}
