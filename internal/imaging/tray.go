package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultTraySize is the edge length of generated tray icons
const DefaultTraySize = 96

// TrayIcon renders the first frame of an image into a size x size PNG.
// The source is scaled to fit and centered on a transparent background.
func TrayIcon(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("tray size must be positive, got %d", size)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, fitRect(src.Bounds(), size), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode tray icon: %w", err)
	}
	return buf.Bytes(), nil
}

// fitRect returns the largest rectangle with the aspect ratio of b that fits
// centered in a size x size square.
func fitRect(b image.Rectangle, size int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.Rect(0, 0, size, size)
	}

	dw, dh := size, size
	if w > h {
		dh = max(1, h*size/w)
	} else if h > w {
		dw = max(1, w*size/h)
	}

	x := (size - dw) / 2
	y := (size - dh) / 2
	return image.Rect(x, y, x+dw, y+dh)
}
