// Package imaging inspects and converts sticker image files.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Import for image format support
	_ "image/jpeg" // Import for image format support
	_ "image/png"  // Import for image format support
	"io"
	"time"

	"golang.org/x/image/riff"
	"golang.org/x/image/webp"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

var (
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}
)

const (
	vp8xChunkLen      = 10
	anmfHeaderLen     = 16
	vp8xAnimationFlag = 1 << 1
)

// ErrNoImageData is returned for a WebP container without a VP8, VP8L or VP8X chunk
var ErrNoImageData = errors.New("webp: no image data")

// Decoder implements validate.ImageDecoder. WebP files are read chunk by
// chunk so animation frames and their durations are reported; other formats
// are handed to the registered image decoders and always report one frame.
type Decoder struct{}

// NewDecoder creates a Decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads the header data of an encoded image
func (d *Decoder) Decode(data []byte) (*validate.ImageInfo, error) {
	if DetectMimeType(data) == "image/webp" {
		return decodeWebP(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &validate.ImageInfo{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		FrameCount: 1,
	}, nil
}

func decodeWebP(data []byte) (*validate.ImageInfo, error) {
	formType, r, err := riff.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read riff container: %w", err)
	}
	if formType != fccWEBP {
		return nil, fmt.Errorf("riff form type %q is not WEBP", formType[:])
	}

	info := &validate.ImageInfo{Format: "webp"}
	seenVP8X := false

	for {
		id, length, chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read webp chunk: %w", err)
		}

		switch id {
		case fccVP8X:
			if length < vp8xChunkLen {
				return nil, fmt.Errorf("webp: VP8X chunk is %d bytes, want %d", length, vp8xChunkLen)
			}
			var buf [vp8xChunkLen]byte
			if _, err := io.ReadFull(chunk, buf[:]); err != nil {
				return nil, fmt.Errorf("failed to read VP8X chunk: %w", err)
			}
			seenVP8X = true
			info.Width = int(u24(buf[4:7])) + 1
			info.Height = int(u24(buf[7:10])) + 1
			if buf[0]&vp8xAnimationFlag == 0 {
				info.FrameCount = 1
				return info, nil
			}

		case fccANMF:
			if length < anmfHeaderLen {
				return nil, fmt.Errorf("webp: ANMF chunk is %d bytes, want at least %d", length, anmfHeaderLen)
			}
			var buf [anmfHeaderLen]byte
			if _, err := io.ReadFull(chunk, buf[:]); err != nil {
				return nil, fmt.Errorf("failed to read ANMF chunk: %w", err)
			}
			d := time.Duration(u24(buf[12:15])) * time.Millisecond
			info.FrameDurations = append(info.FrameDurations, d)
			info.Duration += d

		case fccVP8, fccVP8L:
			if seenVP8X {
				continue
			}
			cfg, err := webp.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("failed to decode webp: %w", err)
			}
			info.Width = cfg.Width
			info.Height = cfg.Height
			info.FrameCount = 1
			return info, nil
		}
	}

	if !seenVP8X {
		return nil, ErrNoImageData
	}
	info.FrameCount = len(info.FrameDurations)
	return info, nil
}

// u24 reads a little-endian 24-bit integer
func u24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
