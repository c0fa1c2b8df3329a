// Package fusion implements Mertens-style exposure fusion: a bracket of
// differently-exposed byte images is blended into a single composite using
// per-pixel quality weights (internal/quality) combined across a
// multi-resolution Laplacian pyramid (internal/pyramid).
package fusion

import (
	"errors"
	"fmt"

	"github.com/banshee-data/visionfusion/internal/imaging"
	"github.com/banshee-data/visionfusion/internal/pyramid"
	"github.com/banshee-data/visionfusion/internal/quality"
)

// Sentinel errors for the fusion engine's contract violations, surfaced to
// the capture worker (internal/capture), which logs them.
var (
	ErrEmptyBracket   = errors.New("fusion: empty bracket")
	ErrShapeMismatch  = errors.New("fusion: bracket images have mismatched shapes")
	ErrNonFiniteInput = errors.New("fusion: bracket contains non-finite pixel data")
)

// Fuse combines a bracket of N>=1 identically-shaped byte images into one
// composite of the same shape, using the supplied quality weights. An
// empty bracket, mismatched shapes, or non-finite pixel data is rejected.
func Fuse(bracket []imaging.ByteImage, w quality.Weights) (imaging.ByteImage, error) {
	if len(bracket) == 0 {
		return imaging.ByteImage{}, ErrEmptyBracket
	}
	shape := bracket[0]
	for _, img := range bracket[1:] {
		if !img.SameShape(shape) {
			return imaging.ByteImage{}, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, shape, img)
		}
	}

	weightMaps := quality.WeightMaps(bracket, w)
	depth := pyramid.Depth(min(shape.Height, shape.Width))

	var blended []imaging.FloatImage
	for i, img := range bracket {
		norm := imaging.ToFloat(img)
		if !imaging.AllFinite(norm) {
			return imaging.ByteImage{}, ErrNonFiniteInput
		}
		lap := pyramid.Laplacian(norm, depth)
		gauss := pyramid.Gaussian(weightMaps[i], depth)

		if blended == nil {
			blended = make([]imaging.FloatImage, len(lap))
			for k := range blended {
				blended[k] = imaging.NewFloatImage(lap[k].Width, lap[k].Height, lap[k].Channels)
			}
		}
		for k := range lap {
			wk := imaging.Broadcast3(gauss[k])
			for px := range blended[k].Pix {
				blended[k].Pix[px] += wk.Pix[px] * lap[k].Pix[px]
			}
		}
	}

	result := pyramid.Reconstruct(blended)
	return imaging.ToByte(result), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
