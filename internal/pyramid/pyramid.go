// Package pyramid implements the Gaussian/Laplacian multi-resolution
// primitives used by the exposure-fusion engine: separable binomial
// blur, 2x decimation, 2x zero-insert upsampling, and pyramid
// construction/reconstruction. All arithmetic is float64; callers convert
// to/from 8-bit images at the boundary (internal/imaging).
package pyramid

import (
	"math"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// kernel is the 5-tap binomial approximation to a Gaussian, [1,4,6,4,1]/16.
var kernel = [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// reflect clamps an index into [0,n) by edge replication, matching the
// border behaviour of a symmetric image filter at the frame edges.
func reflect(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// blur applies the separable 5-tap kernel (optionally scaled) to img.
func blur(img imaging.FloatImage, scale float64) imaging.FloatImage {
	w, h, c := img.Width, img.Height, img.Channels
	tmp := imaging.NewFloatImage(w, h, c)
	out := imaging.NewFloatImage(w, h, c)

	// horizontal pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum float64
				for k := -2; k <= 2; k++ {
					xi := reflect(x+k, w)
					sum += kernel[k+2] * img.Pix[(y*w+xi)*c+ch]
				}
				tmp.Pix[(y*w+x)*c+ch] = sum
			}
		}
	}
	// vertical pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum float64
				for k := -2; k <= 2; k++ {
					yi := reflect(y+k, h)
					sum += kernel[k+2] * tmp.Pix[(yi*w+x)*c+ch]
				}
				out.Pix[(y*w+x)*c+ch] = sum * scale
			}
		}
	}
	return out
}

// Downsample applies the binomial blur then decimates by 2, producing an
// image of size ((H+1)/2, (W+1)/2).
func Downsample(img imaging.FloatImage) imaging.FloatImage {
	blurred := blur(img, 1.0)
	nh := (img.Height + 1) / 2
	nw := (img.Width + 1) / 2
	out := imaging.NewFloatImage(nw, nh, img.Channels)
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			for ch := 0; ch < img.Channels; ch++ {
				out.Pix[(y*nw+x)*img.Channels+ch] = blurred.Pix[(y*2*img.Width+x*2)*img.Channels+ch]
			}
		}
	}
	return out
}

// Upsample zero-inserts img to 2x and blurs with the kernel scaled by 4 to
// compensate for the inserted zeros, then crops/pads to the caller-supplied
// destination size (needed to hit an odd-sized original exactly).
func Upsample(img imaging.FloatImage, dstHeight, dstWidth int) imaging.FloatImage {
	zw, zh := img.Width*2, img.Height*2
	zeroed := imaging.NewFloatImage(zw, zh, img.Channels)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for ch := 0; ch < img.Channels; ch++ {
				zeroed.Pix[(y*2*zw+x*2)*img.Channels+ch] = img.Pix[(y*img.Width+x)*img.Channels+ch]
			}
		}
	}
	blurred := blur(zeroed, 4.0)

	out := imaging.NewFloatImage(dstWidth, dstHeight, img.Channels)
	copyH := min(dstHeight, zh)
	copyW := min(dstWidth, zw)
	for y := 0; y < copyH; y++ {
		for x := 0; x < copyW; x++ {
			for ch := 0; ch < img.Channels; ch++ {
				out.Pix[(y*dstWidth+x)*img.Channels+ch] = blurred.Pix[(y*zw+x)*img.Channels+ch]
			}
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Depth picks the pyramid depth for an image whose smaller spatial
// dimension is m: floor(log2(m)) - 2, minimum 1.
func Depth(m int) int {
	if m < 1 {
		m = 1
	}
	d := int(math.Floor(math.Log2(float64(m)))) - 2
	if d < 1 {
		d = 1
	}
	return d
}

// Gaussian builds a Gaussian pyramid of up to depth levels, halting early
// if either spatial dimension would fall below 2.
func Gaussian(img imaging.FloatImage, depth int) []imaging.FloatImage {
	levels := make([]imaging.FloatImage, 0, depth)
	levels = append(levels, img)
	cur := img
	for len(levels) < depth {
		if (cur.Height+1)/2 < 2 || (cur.Width+1)/2 < 2 {
			break
		}
		cur = Downsample(cur)
		levels = append(levels, cur)
	}
	return levels
}

// Laplacian builds a Laplacian pyramid from a Gaussian pyramid: bandpass
// residuals at levels 0..L-2, the coarsest Gaussian level at L-1.
func Laplacian(img imaging.FloatImage, depth int) []imaging.FloatImage {
	gauss := Gaussian(img, depth)
	n := len(gauss)
	lap := make([]imaging.FloatImage, n)
	for k := 0; k < n-1; k++ {
		up := Upsample(gauss[k+1], gauss[k].Height, gauss[k].Width)
		diff := imaging.NewFloatImage(gauss[k].Width, gauss[k].Height, gauss[k].Channels)
		for i := range diff.Pix {
			diff.Pix[i] = gauss[k].Pix[i] - up.Pix[i]
		}
		lap[k] = diff
	}
	lap[n-1] = gauss[n-1]
	return lap
}

// Reconstruct rebuilds an image from a Laplacian pyramid.
func Reconstruct(lap []imaging.FloatImage) imaging.FloatImage {
	n := len(lap)
	img := lap[n-1]
	for k := n - 2; k >= 0; k-- {
		up := Upsample(img, lap[k].Height, lap[k].Width)
		sum := imaging.NewFloatImage(lap[k].Width, lap[k].Height, lap[k].Channels)
		for i := range sum.Pix {
			sum.Pix[i] = up.Pix[i] + lap[k].Pix[i]
		}
		img = sum
	}
	return img
}
