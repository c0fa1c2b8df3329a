// Package imaging holds the two image representations shared by the
// pyramid, quality, and fusion packages: an 8-bit BGR byte image (the wire
// and device representation) and a float64 image normalized to [0,1] (the
// representation pyramid arithmetic is performed in).
package imaging

import (
	"fmt"
	"math"
)

// ByteImage is a dense row-major 8-bit-per-channel image, channel order
// BGR. Pix has length Height*Width*Channels.
type ByteImage struct {
	Width, Height, Channels int
	Pix                     []byte
}

// NewByteImage allocates a zeroed byte image.
func NewByteImage(width, height, channels int) ByteImage {
	return ByteImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// At returns the channel values at (x,y).
func (img ByteImage) At(x, y int) []byte {
	i := (y*img.Width + x) * img.Channels
	return img.Pix[i : i+img.Channels]
}

// SameShape reports whether two byte images share width, height and channel count.
func (img ByteImage) SameShape(other ByteImage) bool {
	return img.Width == other.Width && img.Height == other.Height && img.Channels == other.Channels
}

func (img ByteImage) String() string {
	return fmt.Sprintf("ByteImage(%dx%d x%d)", img.Width, img.Height, img.Channels)
}

// FloatImage is a dense row-major float64 image normalized to [0,1]
// (before fusion accumulation, which may transiently leave that range).
type FloatImage struct {
	Width, Height, Channels int
	Pix                     []float64
}

// NewFloatImage allocates a zeroed float image.
func NewFloatImage(width, height, channels int) FloatImage {
	return FloatImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float64, width*height*channels),
	}
}

// At returns the channel values at (x,y).
func (img FloatImage) At(x, y int) []float64 {
	i := (y*img.Width + x) * img.Channels
	return img.Pix[i : i+img.Channels]
}

// ToFloat normalizes a byte image to [0,1] float64.
func ToFloat(img ByteImage) FloatImage {
	out := NewFloatImage(img.Width, img.Height, img.Channels)
	for i, v := range img.Pix {
		out.Pix[i] = float64(v) / 255.0
	}
	return out
}

// ToByte clamps a float image to [0,1], scales to [0,255] and rounds to bytes.
func ToByte(img FloatImage) ByteImage {
	out := NewByteImage(img.Width, img.Height, img.Channels)
	for i, v := range img.Pix {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out.Pix[i] = byte(v*255.0 + 0.5)
	}
	return out
}

// Gray converts a BGR float image to a single-channel float image using the
// standard luma weights (applied in BGR order).
func Gray(img FloatImage) FloatImage {
	if img.Channels == 1 {
		out := NewFloatImage(img.Width, img.Height, 1)
		copy(out.Pix, img.Pix)
		return out
	}
	out := NewFloatImage(img.Width, img.Height, 1)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.At(x, y)
			b, g, r := px[0], px[1], px[2]
			out.Pix[y*img.Width+x] = 0.114*b + 0.587*g + 0.299*r
		}
	}
	return out
}

// Broadcast3 replicates a single-channel image across three channels.
func Broadcast3(img FloatImage) FloatImage {
	out := NewFloatImage(img.Width, img.Height, 3)
	for i := 0; i < img.Width*img.Height; i++ {
		v := img.Pix[i]
		out.Pix[i*3+0] = v
		out.Pix[i*3+1] = v
		out.Pix[i*3+2] = v
	}
	return out
}

// AllFinite reports whether every sample is a finite float (not NaN/Inf).
func AllFinite(img FloatImage) bool {
	for _, v := range img.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
