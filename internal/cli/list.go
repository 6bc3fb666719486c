package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/contents"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/report"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		showReport bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packs that are ready for WhatsApp",
		Long: `Re-validate every stored pack and list the ones that pass.

Quarantined stickers are skipped. Stickers that fail again are quarantined,
and packs that no longer pass are hidden until they are repaired.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			packs, reports, err := a.service.FetchValid(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return contents.Write(out, packs)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tNAME\tPUBLISHER\tSTICKERS\tANIMATED")
			for _, p := range packs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", p.Identifier, p.Name, p.Publisher, len(p.Stickers), p.AnimatedStickerPack)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if showReport {
				fmt.Fprintln(out)
				fmt.Fprint(out, report.Markdown("Stored packs", reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showReport, "report", false, "print the validation report for every stored pack")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the valid packs as contents.json")
	return cmd
}
