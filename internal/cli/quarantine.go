package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// NewQuarantineCmd creates the quarantine command group
func NewQuarantineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Inspect and resolve stickers marked invalid",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List quarantined stickers with the rule they failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.store.ListQuarantined(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No quarantined stickers")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PACK\tFILE\tRULE\tFIX")
			for _, q := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.PackIdentifier, q.Sticker.ImageFileName,
					q.Sticker.LastError, validate.Remedy(q.Sticker.LastError))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <pack> <file>",
		Short: "Return a repaired sticker to its pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ClearQuarantine(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s/%s; it is re-validated on the next list\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <pack> <file>",
		Short: "Remove a sticker from its pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteSticker(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}
