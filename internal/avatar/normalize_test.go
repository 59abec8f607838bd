package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProducesCanonicalType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		asset func(t *testing.T) *Asset
		w, h  int
	}{
		{name: "png", asset: func(t *testing.T) *Asset { return fromBytes(pngBytes(t, color.NRGBA{G: 255, A: 255}), "", "t") }, w: 8, h: 6},
		{name: "gif", asset: func(t *testing.T) *Asset { return fromBytes(gifBytes(t), "", "t") }, w: 4, h: 4},
		{name: "jpeg", asset: func(t *testing.T) *Asset { return fromBytes(jpegBytes(t), "", "t") }, w: 5, h: 5},
		{name: "webp lossless", asset: func(t *testing.T) *Asset { return fixture(t, "lossless.webp") }, w: 75, h: 100},
		{name: "webp lossy", asset: func(t *testing.T) *Asset { return fixture(t, "lossy.webp") }, w: 150, h: 100},
		{name: "mislabelled png", asset: func(t *testing.T) *Asset {
			return &Asset{Data: pngBytes(t, color.NRGBA{A: 255}), MIMEType: "application/octet-stream"}
		}, w: 8, h: 6},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Normalize(tt.asset(t))
			require.NoError(t, err)
			assert.Equal(t, CanonicalMIMEType, out.MIMEType)
			assert.True(t, out.Normalized())

			decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, tt.w, tt.h), decoded.Bounds())
		})
	}
}

func TestNormalizeFlattensTransparencyOntoWhite(t *testing.T) {
	t.Parallel()

	out, err := Normalize(fromBytes(pngBytes(t, color.NRGBA{}), "image/png", "t"))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(2, 2).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeRejectsNonImages(t *testing.T) {
	t.Parallel()

	tests := map[string]*Asset{
		"nil":   nil,
		"empty": {MIMEType: "image/png"},
		"text":  fromBytes([]byte("definitely not an image"), "text/plain", "t"),
		"truncated png": func() *Asset {
			data := pngBytes(t, color.NRGBA{A: 255})
			return fromBytes(data[:20], "image/png", "t")
		}(),
	}

	for name, asset := range tests {
		asset := asset
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Normalize(asset)
			var decodeErr *ImageDecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestNormalizerQualityAffectsSize(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	asset := fromBytes(buf.Bytes(), "", "t")

	low, err := Normalizer{Quality: 10}.Normalize(asset)
	require.NoError(t, err)
	high, err := Normalizer{Quality: 95}.Normalize(asset)
	require.NoError(t, err)
	assert.Less(t, len(low.Data), len(high.Data))

	fallback, err := Normalizer{Quality: 0}.Normalize(asset)
	require.NoError(t, err)
	assert.Equal(t, CanonicalMIMEType, fallback.MIMEType)
}
