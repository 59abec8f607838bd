package avatar

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Decoders for accepted source formats.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

// Normalizer re-encodes any decodable image into the canonical JPEG encoding.
type Normalizer struct {
	Quality int
}

// Normalize converts asset with DefaultQuality.
func Normalize(asset *Asset) (*Asset, error) {
	return Normalizer{Quality: DefaultQuality}.Normalize(asset)
}

// Normalize decodes asset, flattens transparency onto white and encodes it as JPEG.
// Already canonical inputs are re-encoded too so quality and metadata are uniform.
func (n Normalizer) Normalize(asset *Asset) (*Asset, error) {
	if asset == nil || len(asset.Data) == 0 {
		return nil, &ImageDecodeError{Err: errors.New("no image data")}
	}

	src, format, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return nil, &ImageDecodeError{MIMEType: asset.MIMEType, Err: err}
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, &ImageDecodeError{MIMEType: "image/" + format, Err: errors.New("image has no pixels")}
	}

	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)

	quality := n.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, &EncodeError{Err: err}
	}
	if buf.Len() == 0 {
		return nil, &EncodeError{}
	}

	return &Asset{Data: buf.Bytes(), MIMEType: CanonicalMIMEType, Source: asset.Source}, nil
}
