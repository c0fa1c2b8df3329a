package httpapi

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/banshee-data/visionfusion/internal/imaging"
	"github.com/banshee-data/visionfusion/internal/state"
)

// jpegQuality is the default JPEG encoding quality used by the HTTP image
// endpoints.
const jpegQuality = 100

// bgrImage adapts an imaging.ByteImage (dense BGR byte buffer) to the
// standard image.Image interface so it can be handed to image/jpeg. No
// copy of the pixel buffer is made.
type bgrImage struct {
	img imaging.ByteImage
}

func (b bgrImage) ColorModel() color.Model { return color.RGBAModel }

func (b bgrImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.img.Width, b.img.Height)
}

func (b bgrImage) At(x, y int) color.Color {
	px := b.img.At(x, y)
	if len(px) < 3 {
		v := px[0]
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return color.RGBA{R: px[2], G: px[1], B: px[0], A: 255}
}

// encodeJPEG encodes a BGR byte image as a JPEG at the given quality.
func encodeJPEG(img imaging.ByteImage, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, bgrImage{img: img}, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jpegBytes returns the JPEG bytes for an image payload: already-encoded
// bytes are returned verbatim, a raw buffer is encoded at jpegQuality.
func jpegBytes(payload state.ImagePayload) ([]byte, error) {
	if payload.Encoded != nil {
		return payload.Encoded, nil
	}
	if payload.Raw != nil {
		return encodeJPEG(*payload.Raw, jpegQuality)
	}
	return nil, errors.New("image payload has neither raw nor encoded data")
}
