package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

func fromBytes(data []byte, declaredType, source string) *Asset {
	return &Asset{Data: bytes.Clone(data), MIMEType: sniff(data, declaredType), Source: source}
}

func fixture(t *testing.T, name string) *Asset {
	t.Helper()
	asset, err := LoadFile(filepath.Join("testdata", name), 0)
	require.NoError(t, err)
	return asset
}

func testImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(8, 6, c)))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(4, 4, color.RGBA{R: 255, A: 255}), nil))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(5, 5, color.RGBA{B: 200, A: 255}), &jpeg.Options{Quality: 50}))
	return buf.Bytes()
}
