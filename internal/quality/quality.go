// Package quality computes the per-pixel quality measures — contrast,
// saturation, well-exposedness — and the normalized weight maps derived
// from them that drive the exposure-fusion engine's blend.
package quality

import (
	"math"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Epsilon prevents division by zero when every quality score in a bracket
// vanishes at a pixel.
const Epsilon = 1e-12

// Weights are the per-measure exponents applied when combining contrast,
// saturation, and well-exposedness into a single quality score.
type Weights struct {
	Contrast        float64
	Saturation      float64
	WellExposedness float64
}

// DefaultWeights weights all three measures equally.
func DefaultWeights() Weights {
	return Weights{Contrast: 1, Saturation: 1, WellExposedness: 1}
}

// Contrast is the absolute value of the standard 4-neighbor Laplacian
// applied to the grayscale of a normalized [0,1] image.
func Contrast(gray imaging.FloatImage) imaging.FloatImage {
	w, h := gray.Width, gray.Height
	out := imaging.NewFloatImage(w, h, 1)
	at := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return gray.Pix[clampY(y, h)*w+clampX(x, w)]
		}
		return gray.Pix[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lap := at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*at(x, y)
			out.Pix[y*w+x] = math.Abs(lap)
		}
	}
	return out
}

func clampX(x, w int) int {
	if x < 0 {
		return 0
	}
	if x >= w {
		return w - 1
	}
	return x
}

func clampY(y, h int) int {
	if y < 0 {
		return 0
	}
	if y >= h {
		return h - 1
	}
	return y
}

// Saturation is the population standard deviation across channels at every
// pixel of a normalized [0,1] image.
func Saturation(img imaging.FloatImage) imaging.FloatImage {
	w, h, c := img.Width, img.Height, img.Channels
	out := imaging.NewFloatImage(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.At(x, y)
			var mean float64
			for _, v := range px {
				mean += v
			}
			mean /= float64(c)
			var variance float64
			for _, v := range px {
				d := v - mean
				variance += d * d
			}
			variance /= float64(c)
			out.Pix[y*w+x] = math.Sqrt(variance)
		}
	}
	return out
}

// sigma is the standard deviation of the well-exposedness Gaussian, fixed
// at 0.2 centered on mid-grey (0.5).
const sigma = 0.2

// WellExposedness is the product, across channels, of a Gaussian peaking at
// 0.5 with standard deviation sigma.
func WellExposedness(img imaging.FloatImage) imaging.FloatImage {
	w, h := img.Width, img.Height
	out := imaging.NewFloatImage(w, h, 1)
	const twoSigmaSq = 2 * sigma * sigma
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.At(x, y)
			score := 1.0
			for _, v := range px {
				d := v - 0.5
				score *= math.Exp(-d * d / twoSigmaSq)
			}
			out.Pix[y*w+x] = score
		}
	}
	return out
}

// WeightMap computes the unnormalized quality weight for one bracket image:
// contrast^wc * saturation^ws * well-exposedness^we + epsilon.
func WeightMap(img imaging.ByteImage, w Weights) imaging.FloatImage {
	norm := imaging.ToFloat(img)
	gray := imaging.Gray(norm)
	c := Contrast(gray)
	s := Saturation(norm)
	e := WellExposedness(norm)

	out := imaging.NewFloatImage(img.Width, img.Height, 1)
	for i := range out.Pix {
		out.Pix[i] = math.Pow(c.Pix[i], w.Contrast)*math.Pow(s.Pix[i], w.Saturation)*math.Pow(e.Pix[i], w.WellExposedness) + Epsilon
	}
	return out
}

// Normalize scales a set of weight maps so that they sum to 1 at every
// pixel.
func Normalize(maps []imaging.FloatImage) []imaging.FloatImage {
	n := len(maps)
	out := make([]imaging.FloatImage, n)
	for i := range maps {
		out[i] = imaging.NewFloatImage(maps[i].Width, maps[i].Height, 1)
	}
	for px := range maps[0].Pix {
		var total float64
		for i := 0; i < n; i++ {
			total += maps[i].Pix[px]
		}
		if total < Epsilon {
			total = Epsilon
		}
		for i := 0; i < n; i++ {
			out[i].Pix[px] = maps[i].Pix[px] / total
		}
	}
	return out
}

// WeightMaps computes and normalizes the weight maps for an entire bracket.
func WeightMaps(bracket []imaging.ByteImage, w Weights) []imaging.FloatImage {
	raw := make([]imaging.FloatImage, len(bracket))
	for i, img := range bracket {
		raw[i] = WeightMap(img, w)
	}
	return Normalize(raw)
}
