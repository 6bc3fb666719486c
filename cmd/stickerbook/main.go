package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/cli"
)

var version = "dev"

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "stickerbook",
		Short: "WhatsApp sticker pack validation and storage tool",
		Long: `WhatsApp Stickerbook - check sticker packs against WhatsApp's content rules.

Validate contents.json bundles before shipping them.
Store packs in a local database, quarantining stickers that fail.
Convert Matrix (MSC2545) sticker packs into WhatsApp packs.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.SetupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(cli.NewValidateCmd())
	rootCmd.AddCommand(cli.NewImportCmd())
	rootCmd.AddCommand(cli.NewListCmd())
	rootCmd.AddCommand(cli.NewQuarantineCmd())
	rootCmd.AddCommand(cli.NewTrayCmd())
	rootCmd.AddCommand(cli.NewAltTextCmd())
	rootCmd.AddCommand(cli.NewLoginCmd())
	rootCmd.AddCommand(cli.NewMatrixImportCmd())
	rootCmd.AddCommand(cli.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
