package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	webpMagic = []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
)

type fakeSource struct {
	content PackContent
	media   map[string][]byte
	err     error
}

func (f *fakeSource) StateEvent(_ context.Context, _ id.RoomID, eventType event.Type, _ string, out interface{}) error {
	if f.err != nil {
		return f.err
	}
	if eventType.Type != "im.ponies.room_emotes" {
		return errors.New("unexpected event type")
	}
	raw, err := json.Marshal(f.content)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeSource) DownloadBytes(_ context.Context, uri id.ContentURI) ([]byte, error) {
	data, ok := f.media[uri.String()]
	if !ok {
		return nil, errors.New("404")
	}
	return data, nil
}

type recordingSink struct {
	stickers []validate.Sticker
	seen     map[string]bool
}

func (s *recordingSink) Add(sticker validate.Sticker, data []byte) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[string(data)] {
		return false, nil
	}
	for _, existing := range s.stickers {
		if existing.ImageFileName == sticker.ImageFileName {
			return false, fmt.Errorf("file name %s is already used", sticker.ImageFileName)
		}
	}
	s.seen[string(data)] = true
	s.stickers = append(s.stickers, sticker)
	return true, nil
}

func newSource() *fakeSource {
	src := &fakeSource{media: map[string][]byte{
		"mxc://example.org/wave":  webpMagic,
		"mxc://example.org/smile": pngMagic,
		"mxc://example.org/copy":  pngMagic,
	}}
	src.content.Pack = PackInfo{DisplayName: "Waves", Attribution: "Acme"}
	src.content.Images = map[string]StickerData{
		"wave":    {URL: "mxc://example.org/wave", Body: "Cat waving"},
		"smile":   {URL: "mxc://example.org/smile", Body: "Cat smiling"},
		"smile:2": {URL: "mxc://example.org/copy", Body: "Another smile"},
	}
	return src
}

func TestImportPack(t *testing.T) {
	sink := &recordingSink{}
	result, err := importPack(context.Background(), newSource(), "!room:example.org", "waves", sink)
	require.NoError(t, err)

	assert.Equal(t, "Waves", result.Pack.DisplayName)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Duplicates)

	require.Len(t, sink.stickers, 2)
	assert.Equal(t, "smile.png", sink.stickers[0].ImageFileName)
	assert.Equal(t, "Cat smiling", sink.stickers[0].AccessibilityText)
	assert.Equal(t, "wave.webp", sink.stickers[1].ImageFileName)
	assert.Empty(t, sink.stickers[1].Emojis)
}

func TestImportPack_StateEventError(t *testing.T) {
	src := newSource()
	src.err = errors.New("M_NOT_FOUND")

	_, err := importPack(context.Background(), src, "!room:example.org", "waves", &recordingSink{})
	assert.ErrorContains(t, err, "M_NOT_FOUND")
}

func TestImportPack_EmptyPack(t *testing.T) {
	src := newSource()
	src.content.Images = nil

	_, err := importPack(context.Background(), src, "!room:example.org", "waves", &recordingSink{})
	assert.Error(t, err)
}

func TestImportPack_DownloadError(t *testing.T) {
	src := newSource()
	delete(src.media, "mxc://example.org/wave")

	_, err := importPack(context.Background(), src, "!room:example.org", "waves", &recordingSink{})
	assert.ErrorContains(t, err, "sticker wave")
}

func TestDownloadMedia_InvalidURI(t *testing.T) {
	_, _, err := downloadMedia(context.Background(), newSource(), "https://example.org/x")
	assert.Error(t, err)
}

func TestUniqueFileName_Sanitizes(t *testing.T) {
	tests := []struct {
		shortcode string
		mimeType  string
		expected  string
	}{
		{"wave", "image/webp", "wave.webp"},
		{"big smile", "image/png", "big_smile.png"},
		{"party:parrot", "image/gif", "party_parrot.gif"},
		{"photo", "image/jpeg", "photo.jpg"},
		{"", "image/webp", "sticker.webp"},
		{"blob", "application/octet-stream", "blob.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, uniqueFileName(nil, tt.shortcode, tt.mimeType))
		})
	}
}

func TestImportPack_FileNameCollision(t *testing.T) {
	src := newSource()
	src.media["mxc://example.org/dot"] = []byte("RIFF\x00\x00\x00\x01WEBPVP8 ")
	src.media["mxc://example.org/underscore"] = []byte("RIFF\x00\x00\x00\x02WEBPVP8 ")
	src.content.Images = map[string]StickerData{
		"a.b": {URL: "mxc://example.org/dot", Body: "Dot"},
		"a_b": {URL: "mxc://example.org/underscore", Body: "Underscore"},
		"a:b": {URL: "mxc://example.org/wave", Body: "Colon"},
	}

	sink := &recordingSink{}
	result, err := importPack(context.Background(), src, "!room:example.org", "waves", sink)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)

	var names []string
	for _, s := range sink.stickers {
		names = append(names, s.ImageFileName)
	}
	assert.Equal(t, []string{"a_b.webp", "a_b_2.webp", "a_b_3.webp"}, names)
}

func TestUniqueFileName(t *testing.T) {
	used := map[string]bool{"wave.webp": true, "wave_2.webp": true}

	assert.Equal(t, "wave_3.webp", uniqueFileName(used, "wave", "image/webp"))
	assert.Equal(t, "wave.png", uniqueFileName(used, "wave", "image/png"))
	assert.Equal(t, "smile.webp", uniqueFileName(used, "smile", "image/webp"))
}
