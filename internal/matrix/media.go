package matrix

import (
	"context"
	"fmt"
	"strings"

	"maunium.net/go/mautrix/id"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
)

// DownloadMedia downloads media from an MXC URI
func (c *Client) DownloadMedia(ctx context.Context, mxcURI string) ([]byte, string, error) {
	return downloadMedia(ctx, c.Client, mxcURI)
}

type downloader interface {
	DownloadBytes(ctx context.Context, mxcURL id.ContentURI) ([]byte, error)
}

func downloadMedia(ctx context.Context, d downloader, mxcURI string) ([]byte, string, error) {
	parsedURI, err := id.ParseContentURI(mxcURI)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse MXC URI: %w", err)
	}

	data, err := d.DownloadBytes(ctx, parsedURI)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}

	return data, imaging.DetectMimeType(data), nil
}

// uniqueFileName derives an asset file name from a pack shortcode, adding a
// numeric suffix while the name is taken by an earlier shortcode, so "a.b"
// and "a_b" stay apart.
func uniqueFileName(used map[string]bool, shortcode, mimeType string) string {
	base, ext := baseNameFor(shortcode), extensionFor(mimeType)
	name := base + ext
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	return name
}

func baseNameFor(shortcode string) string {
	var b strings.Builder
	for _, r := range shortcode {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "sticker"
	}
	return b.String()
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".bin"
	}
}
