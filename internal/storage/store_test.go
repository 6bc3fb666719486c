package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePack(id string) *validate.StickerPack {
	return &validate.StickerPack{
		Identifier:           id,
		Name:                 "Fun Pack",
		Publisher:            "Acme",
		TrayImageFile:        "tray.png",
		AndroidPlayStoreLink: "https://play.google.com/store/apps/details?id=x",
		PublisherEmail:       "a@b.co",
		ImageDataVersion:     "2",
		AvoidCache:           true,
		AnimatedStickerPack:  false,
		Stickers: []validate.Sticker{
			{ImageFileName: "01.webp", Emojis: []string{"😀", "🎉"}, AccessibilityText: "party", Size: 1200},
			{ImageFileName: "02.webp", Emojis: []string{}},
			{ImageFileName: "03.webp", Emojis: []string{"☕"}},
		},
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stickers.db")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())

	// Reopening applies no migrations twice
	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSaveAndGetPack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pack := samplePack("my_pack")

	require.NoError(t, s.SavePack(ctx, pack))

	got, err := s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	assert.Equal(t, pack, got)
}

func TestSavePack_ReplacesStickers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pack := samplePack("my_pack")
	require.NoError(t, s.SavePack(ctx, pack))

	pack.Name = "Renamed"
	pack.Stickers = pack.Stickers[1:]
	require.NoError(t, s.SavePack(ctx, pack))

	got, err := s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.Len(t, got.Stickers, 2)
	assert.Equal(t, "02.webp", got.Stickers[0].ImageFileName)
}

func TestSavePack_DuplicateStickerRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePack(ctx, samplePack("my_pack")))

	bad := samplePack("my_pack")
	bad.Name = "Changed"
	bad.Stickers = append(bad.Stickers, bad.Stickers[0])
	assert.Error(t, s.SavePack(ctx, bad))

	got, err := s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	assert.Equal(t, "Fun Pack", got.Name)
	assert.Len(t, got.Stickers, 3)
}

func TestGetPack_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetPack(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPackNotFound)
}

func TestListPacks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	packs, err := s.ListPacks(ctx)
	require.NoError(t, err)
	assert.Empty(t, packs)

	require.NoError(t, s.SavePack(ctx, samplePack("b_pack")))
	require.NoError(t, s.SavePack(ctx, samplePack("a_pack")))

	packs, err = s.ListPacks(ctx)
	require.NoError(t, err)
	require.Len(t, packs, 2)
	assert.Equal(t, "a_pack", packs[0].Identifier)
	assert.Equal(t, "b_pack", packs[1].Identifier)
	assert.Len(t, packs[1].Stickers, 3)
}

func TestDeletePack_Cascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePack(ctx, samplePack("my_pack")))
	require.NoError(t, s.QuarantineSticker(ctx, "my_pack", "01.webp", validate.KindFileSize))

	require.NoError(t, s.DeletePack(ctx, "my_pack"))

	_, err := s.GetPack(ctx, "my_pack")
	assert.ErrorIs(t, err, ErrPackNotFound)

	quarantined, err := s.ListQuarantined(ctx)
	require.NoError(t, err)
	assert.Empty(t, quarantined)

	assert.ErrorIs(t, s.DeletePack(ctx, "my_pack"), ErrPackNotFound)
}

func TestQuarantineLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePack(ctx, samplePack("my_pack")))

	require.NoError(t, s.QuarantineSticker(ctx, "my_pack", "02.webp", validate.KindStickerDimension))

	got, err := s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	assert.True(t, got.Stickers[1].Quarantined)
	assert.Equal(t, validate.KindStickerDimension, got.Stickers[1].LastError)
	assert.Len(t, got.ActiveStickers(), 2)

	quarantined, err := s.ListQuarantined(ctx)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, "my_pack", quarantined[0].PackIdentifier)
	assert.Equal(t, "02.webp", quarantined[0].Sticker.ImageFileName)

	require.NoError(t, s.ClearQuarantine(ctx, "my_pack", "02.webp"))
	got, err = s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	assert.False(t, got.Stickers[1].Quarantined)
	assert.Empty(t, got.Stickers[1].LastError)
}

func TestQuarantinedStickerSurvivesSave(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pack := samplePack("my_pack")
	pack.Stickers[2].Quarantined = true
	pack.Stickers[2].LastError = validate.KindFileType

	require.NoError(t, s.SavePack(ctx, pack))

	quarantined, err := s.ListQuarantined(ctx)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, validate.KindFileType, quarantined[0].Sticker.LastError)
}

func TestStickerNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePack(ctx, samplePack("my_pack")))

	assert.ErrorIs(t, s.QuarantineSticker(ctx, "my_pack", "nope.webp", validate.KindFileSize), ErrStickerNotFound)
	assert.ErrorIs(t, s.ClearQuarantine(ctx, "other", "01.webp"), ErrStickerNotFound)
	assert.ErrorIs(t, s.DeleteSticker(ctx, "my_pack", "nope.webp"), ErrStickerNotFound)
	assert.ErrorIs(t, s.UpdateAccessibilityText(ctx, "my_pack", "nope.webp", "x"), ErrStickerNotFound)
}

func TestDeleteAndUpdateSticker(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePack(ctx, samplePack("my_pack")))

	require.NoError(t, s.DeleteSticker(ctx, "my_pack", "01.webp"))
	require.NoError(t, s.UpdateAccessibilityText(ctx, "my_pack", "03.webp", "a cup of coffee"))

	got, err := s.GetPack(ctx, "my_pack")
	require.NoError(t, err)
	require.Len(t, got.Stickers, 2)
	assert.Equal(t, "02.webp", got.Stickers[0].ImageFileName)
	assert.Equal(t, "a cup of coffee", got.Stickers[1].AccessibilityText)
}
