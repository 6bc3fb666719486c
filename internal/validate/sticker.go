package validate

import (
	"context"
	"errors"
	"fmt"
)

// StickerValidator checks one sticker against the static or animated envelope
type StickerValidator struct {
	limits  Limits
	fetcher AssetFetcher
	decoder ImageDecoder
}

// NewStickerValidator creates a sticker validator
func NewStickerValidator(limits Limits, fetcher AssetFetcher, decoder ImageDecoder) *StickerValidator {
	return &StickerValidator{
		limits:  limits,
		fetcher: fetcher,
		decoder: decoder,
	}
}

// Verify checks the sticker's metadata, fetches its file and checks the file.
// animated is the owning pack's declared mode; the file's own frame count is
// only checked for conformance with it. A fetch failure is returned as
// KindAssetFetch so callers can tell it apart from content violations.
func (v *StickerValidator) Verify(ctx context.Context, packIdentifier string, sticker Sticker, animated bool) error {
	if err := v.VerifyMetadata(packIdentifier, sticker, animated); err != nil {
		return err
	}

	data, err := v.fetcher.Fetch(ctx, packIdentifier, sticker.ImageFileName)
	if err != nil {
		return &Error{
			Kind:           KindAssetFetch,
			PackIdentifier: packIdentifier,
			FileName:       sticker.ImageFileName,
			Reason:         "cannot read sticker file",
			Err:            err,
		}
	}

	return v.checkData(packIdentifier, sticker.ImageFileName, data, animated)
}

// VerifyData runs the same checks as Verify against bytes the caller has
// already fetched.
func (v *StickerValidator) VerifyData(packIdentifier string, sticker Sticker, data []byte, animated bool) error {
	if err := v.VerifyMetadata(packIdentifier, sticker, animated); err != nil {
		return err
	}
	return v.checkData(packIdentifier, sticker.ImageFileName, data, animated)
}

// VerifyMetadata runs the checks that need no asset bytes: file name, emoji
// count and accessibility text.
func (v *StickerValidator) VerifyMetadata(packIdentifier string, sticker Sticker, animated bool) error {
	if sticker.ImageFileName == "" {
		return stickerError(KindInvalidStickerPath, packIdentifier, "", "sticker image file name is empty")
	}

	if n := len(sticker.Emojis); n > v.limits.EmojiMaxCount {
		return stickerError(KindInvalidEmoji, packIdentifier, sticker.ImageFileName,
			"sticker has %d emojis, max %d", n, v.limits.EmojiMaxCount)
	}

	if sticker.AccessibilityText != "" {
		max := v.limits.AccessibilityMax(animated)
		if n := CharCount(sticker.AccessibilityText); n > max {
			return stickerError(KindInvalidAccessibility, packIdentifier, sticker.ImageFileName,
				"accessibility text is %d characters, max %d", n, max)
		}
	}

	return nil
}

func (v *StickerValidator) checkData(packIdentifier, fileName string, data []byte, animated bool) error {
	maxBytes := v.limits.StickerMaxBytes(animated)
	if size := int64(len(data)); size > maxBytes {
		return stickerError(KindFileSize, packIdentifier, fileName,
			"sticker file is %d KB, max %d KB", size/1024, maxBytes/1024)
	}

	info, err := v.decoder.Decode(data)
	if err != nil {
		return &Error{
			Kind:           KindFileType,
			PackIdentifier: packIdentifier,
			FileName:       fileName,
			Reason:         "sticker is not a decodable WebP image",
			Err:            err,
		}
	}
	if info.Format != "webp" {
		return stickerError(KindFileType, packIdentifier, fileName, "sticker is %s, must be webp", info.Format)
	}

	dim := v.limits.StickerDim
	if info.Width != dim || info.Height != dim {
		return stickerError(KindStickerDimension, packIdentifier, fileName,
			"sticker is %dx%d, must be %dx%d", info.Width, info.Height, dim, dim)
	}

	if !animated {
		if info.FrameCount != 1 {
			return stickerError(KindStickerType, packIdentifier, fileName,
				"static pack sticker has %d frames, must have 1", info.FrameCount)
		}
		return nil
	}

	if info.FrameCount <= 1 {
		return stickerError(KindStickerType, packIdentifier, fileName,
			"animated pack sticker has %d frame(s), must have more than 1", info.FrameCount)
	}
	for i, d := range info.FrameDurations {
		if d < v.limits.MinFrameDuration {
			return stickerError(KindStickerDuration, packIdentifier, fileName,
				"frame %d lasts %d ms, min %d ms", i, d.Milliseconds(), v.limits.MinFrameDuration.Milliseconds())
		}
	}
	if info.Duration > v.limits.MaxAnimationDuration {
		return stickerError(KindStickerDuration, packIdentifier, fileName,
			"animation lasts %d ms, max %d ms", info.Duration.Milliseconds(), v.limits.MaxAnimationDuration.Milliseconds())
	}

	return nil
}

// IsAssetFetch reports whether err is a sticker fetch failure
func IsAssetFetch(err error) bool {
	return KindOf(err) == KindAssetFetch
}

// IsNotFound reports whether err was caused by a missing asset
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound)
}

// NotFound builds the error an AssetFetcher returns for a missing file
func NotFound(packIdentifier, fileName string) error {
	return fmt.Errorf("%w: %s/%s", ErrAssetNotFound, packIdentifier, fileName)
}
