package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/config"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/contents"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/ingest"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/matrix"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/report"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

const trayFileName = "tray.png"

type matrixImportOptions struct {
	name      string
	publisher string
	animated  bool
	trayFile  string
	outDir    string
	policy    string
}

// NewMatrixImportCmd creates the matrix-import command
func NewMatrixImportCmd() *cobra.Command {
	var opts matrixImportOptions

	cmd := &cobra.Command{
		Use:   "matrix-import <room> <state-key> <pack-id>",
		Short: "Convert an MSC2545 Matrix sticker pack",
		Long: `Read an im.ponies.room_emotes pack from a Matrix room and turn it into a
WhatsApp pack named <pack-id>. <room> is a room ID (!room:server) or an
alias (#room:server).

Images are downloaded in shortcode order; identical images are only kept
once. Each image body becomes the sticker's accessibility text. A tray icon
is rendered from --tray, or from the first sticker when it is a still image.

With --out the pack is written as a bundle (contents.json plus files) for
'stickerbook validate'. Otherwise it is validated and stored directly.
MSC2545 packs carry no emojis, so add them before sending the pack to
WhatsApp.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrixImport(cmd, args[0], args[1], args[2], opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "pack name (default: the Matrix pack display name)")
	cmd.Flags().StringVar(&opts.publisher, "publisher", "", "publisher (default: the pack attribution, else your user ID)")
	cmd.Flags().BoolVar(&opts.animated, "animated", false, "mark the pack as animated")
	cmd.Flags().StringVar(&opts.trayFile, "tray", "", "image to render the tray icon from")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "write a bundle to this directory instead of storing the pack")
	cmd.Flags().StringVar(&opts.policy, "policy", string(ingest.PolicyDropSticker), "failure policy when storing: drop or quarantine")
	return cmd
}

func runMatrixImport(cmd *cobra.Command, room, stateKey, packID string, opts matrixImportOptions) error {
	ctx := cmd.Context()

	policy, err := ingest.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := matrix.NewClient(cfg.Matrix.Homeserver, cfg.Matrix.UserID, cfg.Matrix.AccessToken)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Matrix: %w", err)
	}
	roomID, err := client.ResolveRoom(ctx, room)
	if err != nil {
		return err
	}

	session := ingest.NewSession()
	result, err := client.ImportPack(ctx, roomID, stateKey, session)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d stickers (%d duplicates skipped)\n", result.Added, result.Duplicates)

	if err := addTrayIcon(ctx, session, packID, opts.trayFile); err != nil {
		return err
	}

	pack := session.Build(validate.StickerPack{
		Identifier:          packID,
		Name:                firstNonEmpty(opts.name, result.Pack.DisplayName, packID),
		Publisher:           firstNonEmpty(opts.publisher, result.Pack.Attribution, cfg.Matrix.UserID),
		TrayImageFile:       trayFileName,
		ImageDataVersion:    "1",
		AnimatedStickerPack: opts.animated,
	})

	if opts.outDir != "" {
		return writeBundle(ctx, cmd, session, pack, opts.outDir)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reports, err := a.service.Ingest(ctx, session, []validate.StickerPack{*pack}, policy)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Markdown(fmt.Sprintf("Matrix import of %s", packID), reports))
	return nil
}

// addTrayIcon renders the tray from trayFile, or from the first sticker
func addTrayIcon(ctx context.Context, session *ingest.Session, packID, trayFile string) error {
	var (
		src []byte
		err error
	)
	if trayFile != "" {
		src, err = os.ReadFile(trayFile)
	} else {
		stickers := session.Stickers()
		if len(stickers) == 0 {
			return fmt.Errorf("pack has no stickers to render a tray icon from")
		}
		src, err = session.Fetch(ctx, packID, stickers[0].ImageFileName)
	}
	if err != nil {
		return fmt.Errorf("failed to read tray source: %w", err)
	}

	icon, err := imaging.TrayIcon(src, imaging.DefaultTraySize)
	if err != nil {
		return fmt.Errorf("failed to render tray icon (use --tray for animated packs): %w", err)
	}
	session.SetFile(trayFileName, icon)
	return nil
}

func writeBundle(ctx context.Context, cmd *cobra.Command, session *ingest.Session, pack *validate.StickerPack, dir string) error {
	if err := session.Commit(ctx, assets.NewDirFetcher(dir), pack.Identifier); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, contents.FileName))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", contents.FileName, err)
	}
	defer f.Close()

	if err := contents.Write(f, []validate.StickerPack{*pack}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote bundle to %s; check it with 'stickerbook validate %s'\n", dir, dir)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
