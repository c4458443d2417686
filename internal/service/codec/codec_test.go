package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assettracker/internal/detection"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	img, err := Decode(pngBytes(t, 64, 48))
	require.NoError(t, err)

	assert.Equal(t, image.Pt(64, 48), img.Bounds().Size())
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"text", []byte("definitely not an image")},
		{"truncated png", pngBytes(t, 16, 16)[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, detection.ErrDecodeFailure)
		})
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	img, err := Decode(pngBytes(t, 30, 20))
	require.NoError(t, err)

	data, err := JPEGBytes(img)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), back.Bounds().Size())
}

func TestEncodePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))

	cfg, format, err := image.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, cfg.Width)
}
