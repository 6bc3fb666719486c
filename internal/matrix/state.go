package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// MSC2545 Sticker Pack Types

// PackEventType is the room state event holding a pack
var PackEventType = event.Type{Type: "im.ponies.room_emotes", Class: event.StateEventType}

// PackInfo represents the pack metadata
type PackInfo struct {
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Usage       []string `json:"usage,omitempty"`
	Attribution string   `json:"attribution,omitempty"`
}

// StickerData represents a single sticker in the pack
type StickerData struct {
	URL   string   `json:"url"`
	Body  string   `json:"body"`
	Usage []string `json:"usage,omitempty"`
	Info  struct {
		Width    int    `json:"w"`
		Height   int    `json:"h"`
		Size     int64  `json:"size"`
		MimeType string `json:"mimetype"`
	} `json:"info"`
}

// PackContent represents the MSC2545 state event content
type PackContent struct {
	Pack   PackInfo               `json:"pack"`
	Images map[string]StickerData `json:"images"`
}

// StickerSink receives downloaded stickers; ingest.Session implements it
type StickerSink interface {
	Add(sticker validate.Sticker, data []byte) (bool, error)
}

// ImportResult summarizes an ImportPack call
type ImportResult struct {
	Pack       PackInfo
	Added      int
	Duplicates int
}

type packSource interface {
	downloader
	StateEvent(ctx context.Context, roomID id.RoomID, eventType event.Type, stateKey string, outContent interface{}) error
}

// ImportPack reads an MSC2545 pack from a room and downloads every image
// into sink, in shortcode order. Sticker bodies become accessibility text;
// MSC2545 has no emojis so the stickers carry none.
func (c *Client) ImportPack(ctx context.Context, roomID id.RoomID, stateKey string, sink StickerSink) (*ImportResult, error) {
	return importPack(ctx, c.Client, roomID, stateKey, sink)
}

func importPack(ctx context.Context, src packSource, roomID id.RoomID, stateKey string, sink StickerSink) (*ImportResult, error) {
	var content PackContent
	if err := src.StateEvent(ctx, roomID, PackEventType, stateKey, &content); err != nil {
		return nil, fmt.Errorf("failed to read pack state event: %w", err)
	}
	if len(content.Images) == 0 {
		return nil, fmt.Errorf("pack %q in %s has no images", stateKey, roomID)
	}

	result := &ImportResult{Pack: content.Pack}
	used := map[string]bool{}
	for _, shortcode := range sortedShortcodes(content.Images) {
		img := content.Images[shortcode]

		data, mimeType, err := downloadMedia(ctx, src, img.URL)
		if err != nil {
			return nil, fmt.Errorf("sticker %s: %w", shortcode, err)
		}

		name := uniqueFileName(used, shortcode, mimeType)
		added, err := sink.Add(validate.Sticker{
			ImageFileName:     name,
			AccessibilityText: img.Body,
		}, data)
		if err != nil {
			return nil, fmt.Errorf("sticker %s: %w", shortcode, err)
		}
		if added {
			used[name] = true
			result.Added++
		} else {
			result.Duplicates++
		}
	}

	slog.Info("matrix_pack_imported", "room", roomID, "state_key", stateKey,
		"added", result.Added, "duplicates", result.Duplicates)
	return result, nil
}

func sortedShortcodes(images map[string]StickerData) []string {
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
