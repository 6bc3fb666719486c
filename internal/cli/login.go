package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/auth"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/config"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/matrix"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Matrix homeserver",
		Long: `Interactive login to Matrix homeserver.

Prompts for homeserver URL, user ID, and password, then saves credentials
to the configuration file so matrix-import can read packs from your rooms.
Nothing is written when the resulting configuration does not validate.`,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "WhatsApp Stickerbook - Matrix Login")
	fmt.Fprintln(out)

	creds, err := auth.InteractiveLogin(cmd.Context())
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyCredentials(cfg, creds); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configDir, _ := config.GetConfigDir()
	fmt.Fprintf(out, "\nLogged in as %s (device %s)\n", creds.UserID, creds.DeviceID)
	fmt.Fprintf(out, "Credentials saved to: %s\n", filepath.Join(configDir, "config.yaml"))
	fmt.Fprintln(out, "You can now run 'stickerbook matrix-import' to convert a Matrix pack!")
	return nil
}

// applyCredentials copies a login into cfg and checks the result is usable
// before anything is saved
func applyCredentials(cfg *config.Config, creds *auth.LoginCredentials) error {
	if _, err := matrix.NewClient(creds.Homeserver, creds.UserID, creds.AccessToken); err != nil {
		return fmt.Errorf("login returned unusable credentials: %w", err)
	}

	cfg.Matrix.Homeserver = creds.Homeserver
	cfg.Matrix.UserID = creds.UserID
	cfg.Matrix.DeviceID = creds.DeviceID
	cfg.Matrix.AccessToken = creds.AccessToken

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
