// Package assets stores and serves sticker pack files.
//
// Assets are addressed by pack identifier and file name. DirFetcher keeps
// them under <root>/<pack>/<file> on local disk, S3Fetcher under
// <prefix><pack>/<file> in a bucket. Both report a missing asset with an error
// wrapping validate.ErrAssetNotFound.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// Store is an AssetFetcher that can also write assets
type Store interface {
	validate.AssetFetcher
	Put(ctx context.Context, packIdentifier, fileName string, data []byte) error
}

// DirFetcher reads pack assets from a local directory tree
type DirFetcher struct {
	Root string
}

// NewDirFetcher creates a DirFetcher rooted at root
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{Root: root}
}

// Fetch reads <root>/<packIdentifier>/<fileName>
func (d *DirFetcher) Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error) {
	path, err := d.path(packIdentifier, fileName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, validate.NotFound(packIdentifier, fileName)
		}
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return data, nil
}

// Put writes an asset, creating the pack directory if needed
func (d *DirFetcher) Put(ctx context.Context, packIdentifier, fileName string, data []byte) error {
	path, err := d.path(packIdentifier, fileName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pack directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}
	return nil
}

// path joins the asset location, refusing names that would leave the root
func (d *DirFetcher) path(packIdentifier, fileName string) (string, error) {
	for _, part := range []string{packIdentifier, fileName} {
		if !safeName(part) {
			return "", fmt.Errorf("invalid asset path component %q", part)
		}
	}
	return filepath.Join(d.Root, packIdentifier, fileName), nil
}

func safeName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}
