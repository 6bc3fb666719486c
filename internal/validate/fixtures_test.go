package validate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// fakeAssets serves files keyed by "pack/file"
type fakeAssets struct {
	files map[string][]byte
	err   error
}

func (f *fakeAssets) Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[packIdentifier+"/"+fileName]
	if !ok {
		return nil, NotFound(packIdentifier, fileName)
	}
	return data, nil
}

func (f *fakeAssets) put(pack, file string, data []byte) {
	f.files[pack+"/"+file] = data
}

// fakeDecoder returns the ImageInfo registered for the exact file contents
type fakeDecoder struct {
	infos map[string]*ImageInfo
}

var errUndecodable = errors.New("undecodable")

func (d *fakeDecoder) Decode(data []byte) (*ImageInfo, error) {
	info, ok := d.infos[string(data)]
	if !ok {
		return nil, errUndecodable
	}
	copied := *info
	return &copied, nil
}

type fixture struct {
	pack    *StickerPack
	assets  *fakeAssets
	decoder *fakeDecoder
}

func (f *fixture) validator() *PackValidator {
	return NewPackValidator(StandardLimits(), f.assets, f.decoder)
}

func (f *fixture) limitsValidator(l Limits) *PackValidator {
	return NewPackValidator(l, f.assets, f.decoder)
}

// setSticker replaces the contents of sticker i with a file the decoder
// reports as info.
func (f *fixture) setSticker(i int, info ImageInfo) {
	key := fmt.Sprintf("custom-%d-%d", i, len(f.decoder.infos))
	f.decoder.infos[key] = &info
	f.assets.put(f.pack.Identifier, f.pack.Stickers[i].ImageFileName, []byte(key))
}

func staticInfo() ImageInfo {
	return ImageInfo{Format: "webp", Width: 512, Height: 512, FrameCount: 1}
}

func animatedInfo(frames int, frameDuration time.Duration) ImageInfo {
	durations := make([]time.Duration, frames)
	for i := range durations {
		durations[i] = frameDuration
	}
	return ImageInfo{
		Format:         "webp",
		Width:          512,
		Height:         512,
		FrameCount:     frames,
		FrameDurations: durations,
		Duration:       time.Duration(frames) * frameDuration,
	}
}

// newFixture builds a pack that passes every rule: "my_pack" by Acme with
// n 512x512 stickers and a 96x96 PNG tray image.
func newFixture(n int, animated bool) *fixture {
	f := &fixture{
		assets:  &fakeAssets{files: map[string][]byte{}},
		decoder: &fakeDecoder{infos: map[string]*ImageInfo{}},
	}
	f.pack = &StickerPack{
		Identifier:          "my_pack",
		Name:                "Fun Pack",
		Publisher:           "Acme",
		TrayImageFile:       "tray.png",
		ImageDataVersion:    "1",
		AnimatedStickerPack: animated,
	}

	f.decoder.infos["tray"] = &ImageInfo{Format: "png", Width: 96, Height: 96, FrameCount: 1}
	f.assets.put("my_pack", "tray.png", []byte("tray"))

	if animated {
		info := animatedInfo(10, 100*time.Millisecond)
		f.decoder.infos["animated"] = &info
	} else {
		info := staticInfo()
		f.decoder.infos["static"] = &info
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%02d.webp", i+1)
		f.pack.Stickers = append(f.pack.Stickers, Sticker{ImageFileName: name, Emojis: []string{"😀"}})
		if animated {
			f.assets.put("my_pack", name, []byte("animated"))
		} else {
			f.assets.put("my_pack", name, []byte("static"))
		}
	}
	return f
}
