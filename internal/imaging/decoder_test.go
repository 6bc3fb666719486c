package imaging

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riffChunk encodes one chunk with its header and padding byte
func riffChunk(id string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// webpFile wraps chunks in a RIFF/WEBP container
func webpFile(chunks ...[]byte) []byte {
	body := []byte("WEBP")
	for _, c := range chunks {
		body = append(body, c...)
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func put24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// vp8lHeader is the 5-byte lossless bitstream header, enough for DecodeConfig
func vp8lHeader(w, h int) []byte {
	v := uint32(w-1) | uint32(h-1)<<14 | 1<<28
	return []byte{0x2f, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func vp8x(w, h int, animated bool) []byte {
	p := make([]byte, 10)
	if animated {
		p[0] = vp8xAnimationFlag
	}
	put24(p[4:7], w-1)
	put24(p[7:10], h-1)
	return riffChunk("VP8X", p)
}

func anmf(w, h int, duration time.Duration) []byte {
	p := make([]byte, 16)
	put24(p[6:9], w-1)
	put24(p[9:12], h-1)
	put24(p[12:15], int(duration/time.Millisecond))
	p = append(p, riffChunk("VP8L", vp8lHeader(w, h))...)
	return riffChunk("ANMF", p)
}

func staticWebP(w, h int) []byte {
	return webpFile(riffChunk("VP8L", vp8lHeader(w, h)))
}

func animatedWebP(w, h int, durations ...time.Duration) []byte {
	chunks := [][]byte{vp8x(w, h, true), riffChunk("ANIM", make([]byte, 6))}
	for _, d := range durations {
		chunks = append(chunks, anmf(w, h, d))
	}
	return webpFile(chunks...)
}

func TestDecode_StaticWebP(t *testing.T) {
	info, err := NewDecoder().Decode(staticWebP(512, 512))
	require.NoError(t, err)

	assert.Equal(t, "webp", info.Format)
	assert.Equal(t, 512, info.Width)
	assert.Equal(t, 512, info.Height)
	assert.Equal(t, 1, info.FrameCount)
	assert.Zero(t, info.Duration)
}

func TestDecode_ExtendedStillWebP(t *testing.T) {
	data := webpFile(vp8x(300, 200, false), riffChunk("VP8L", vp8lHeader(300, 200)))

	info, err := NewDecoder().Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 300, info.Width)
	assert.Equal(t, 200, info.Height)
	assert.Equal(t, 1, info.FrameCount)
}

func TestDecode_AnimatedWebP(t *testing.T) {
	data := animatedWebP(512, 512, 100*time.Millisecond, 40*time.Millisecond, 7*time.Millisecond)

	info, err := NewDecoder().Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "webp", info.Format)
	assert.Equal(t, 512, info.Width)
	assert.Equal(t, 512, info.Height)
	assert.Equal(t, 3, info.FrameCount)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 40 * time.Millisecond, 7 * time.Millisecond}, info.FrameDurations)
	assert.Equal(t, 147*time.Millisecond, info.Duration)
}

func TestDecode_AnimatedWebPSingleFrame(t *testing.T) {
	info, err := NewDecoder().Decode(animatedWebP(512, 512, 500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, info.FrameCount)
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 96, 64))))

	info, err := NewDecoder().Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 96, info.Width)
	assert.Equal(t, 64, info.Height)
	assert.Equal(t, 1, info.FrameCount)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated riff", []byte("RIFF\x10\x00\x00\x00WEBP")},
		{"no image chunk", webpFile(riffChunk("EXIF", []byte{1, 2}))},
		{"short VP8X", webpFile(riffChunk("VP8X", []byte{0, 0, 0, 0}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder().Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestDecode_NoImageDataSentinel(t *testing.T) {
	_, err := NewDecoder().Decode(webpFile(riffChunk("ICCP", []byte{1, 2, 3, 4})))
	assert.ErrorIs(t, err, ErrNoImageData)
}
