// Package cli provides command-line interface commands for stickerbook.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/config"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/ingest"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/storage"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// SetupLogging installs the default slog handler on stderr
func SetupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// app is what the database-backed commands share
type app struct {
	cfg     *config.Config
	limits  validate.Limits
	store   *storage.Store
	assets  assets.Store
	service *ingest.Service
}

func loadConfig() (*config.Config, validate.Limits, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, validate.Limits{}, fmt.Errorf("failed to load config: %w", err)
	}
	limits, err := cfg.Limits.Resolve()
	if err != nil {
		return nil, validate.Limits{}, err
	}
	return cfg, limits, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, limits, err := loadConfig()
	if err != nil {
		return nil, err
	}

	assetStore, err := openAssets(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage.DatabasePath())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		limits:  limits,
		store:   store,
		assets:  assetStore,
		service: ingest.NewService(limits, imaging.NewDecoder(), store, assetStore, cfg.Workers),
	}, nil
}

func openAssets(ctx context.Context, cfg *config.Config) (assets.Store, error) {
	if cfg.Storage.Assets == config.AssetsS3 {
		return assets.NewS3Fetcher(ctx, assets.S3Options{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Prefix:   cfg.S3.Prefix,
			Endpoint: cfg.S3.Endpoint,
		})
	}
	return assets.NewDirFetcher(cfg.Storage.AssetsRoot()), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("database_close_failed", "error", err)
	}
}
