// Package contents reads the contents.json manifest of a sticker pack bundle.
package contents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// FileName is the manifest name inside a bundle directory
const FileName = "contents.json"

// ErrMissingImageDataVersion is returned for a pack without image_data_version
var ErrMissingImageDataVersion = errors.New("image_data_version is empty")

// Manifest is the top-level contents.json document
type Manifest struct {
	AndroidPlayStoreLink string                 `json:"android_play_store_link,omitempty"`
	IOSAppStoreLink      string                 `json:"ios_app_store_link,omitempty"`
	StickerPacks         []validate.StickerPack `json:"sticker_packs"`
}

// Parse decodes a manifest and returns its packs. Top-level store links are
// copied into packs that do not set their own.
func Parse(r io.Reader) ([]validate.StickerPack, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	for i := range m.StickerPacks {
		p := &m.StickerPacks[i]
		if p.ImageDataVersion == "" {
			return nil, fmt.Errorf("pack %q: %w", p.Identifier, ErrMissingImageDataVersion)
		}
		if p.AndroidPlayStoreLink == "" {
			p.AndroidPlayStoreLink = m.AndroidPlayStoreLink
		}
		if p.IOSAppStoreLink == "" {
			p.IOSAppStoreLink = m.IOSAppStoreLink
		}
	}

	if err := validate.CheckUniqueIdentifiers(m.StickerPacks); err != nil {
		return nil, err
	}

	return m.StickerPacks, nil
}

// Load parses <dir>/contents.json
func Load(dir string) ([]validate.StickerPack, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Write encodes packs as a manifest. Store links are written per pack.
func Write(w io.Writer, packs []validate.StickerPack) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Manifest{StickerPacks: packs}); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}
