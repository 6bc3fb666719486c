package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/contents"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/ingest"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/report"
)

// NewImportCmd creates the import command
func NewImportCmd() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Validate a bundle and store the packs that pass",
		Long: `Validate every pack in <dir>/contents.json and save the result.

Packs that fail a pack-level rule are dropped. Stickers that fail a content
rule are handled by --policy:

  drop        remove the sticker from the stored pack
  quarantine  store the sticker marked invalid with the failed rule

Stickers that could not be read are left out and reported as retryable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], policy)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(ingest.PolicyDropSticker), "failure policy: drop or quarantine")
	return cmd
}

func runImport(cmd *cobra.Command, dir, policyFlag string) error {
	policy, err := ingest.ParsePolicy(policyFlag)
	if err != nil {
		return err
	}

	packs, err := contents.Load(dir)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	reports, err := a.service.Ingest(cmd.Context(), assets.NewDirFetcher(dir), packs, policy)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Markdown(fmt.Sprintf("Import of %s", dir), reports))
	return nil
}
