package quality

import (
	"math"
	"testing"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

func solidImage(w, h int, b, g, r byte) imaging.ByteImage {
	img := imaging.NewByteImage(w, h, 3)
	for i := 0; i < w*h; i++ {
		img.Pix[i*3+0] = b
		img.Pix[i*3+1] = g
		img.Pix[i*3+2] = r
	}
	return img
}

func TestWeightMapsSumToOne(t *testing.T) {
	bracket := []imaging.ByteImage{
		solidImage(16, 16, 30, 40, 50),
		solidImage(16, 16, 120, 130, 140),
		solidImage(16, 16, 220, 210, 200),
	}
	maps := WeightMaps(bracket, DefaultWeights())
	var maxDev float64
	for px := range maps[0].Pix {
		var sum float64
		for _, m := range maps {
			sum += m.Pix[px]
		}
		if d := math.Abs(sum - 1.0); d > maxDev {
			maxDev = d
		}
	}
	if maxDev > 1e-6 {
		t.Errorf("max deviation from unity sum = %g, want <= 1e-6", maxDev)
	}
}

func TestWellExposednessPeaksAtMidGrey(t *testing.T) {
	img := imaging.NewFloatImage(1, 1, 3)
	img.Pix[0], img.Pix[1], img.Pix[2] = 0.5, 0.5, 0.5
	e := WellExposedness(img)
	if math.Abs(e.Pix[0]-1.0) > 1e-9 {
		t.Errorf("well-exposedness at mid-grey = %g, want 1.0", e.Pix[0])
	}

	dark := imaging.NewFloatImage(1, 1, 3)
	darkScore := WellExposedness(dark).Pix[0]
	if darkScore >= e.Pix[0] {
		t.Errorf("well-exposedness at black (%g) should be less than at mid-grey (%g)", darkScore, e.Pix[0])
	}
}

func TestSaturationZeroForGrayPixel(t *testing.T) {
	img := imaging.NewFloatImage(1, 1, 3)
	img.Pix[0], img.Pix[1], img.Pix[2] = 0.3, 0.3, 0.3
	s := Saturation(img)
	if s.Pix[0] != 0 {
		t.Errorf("saturation of a gray pixel = %g, want 0", s.Pix[0])
	}
}

func TestContrastFlatImageIsZero(t *testing.T) {
	flat := imaging.NewFloatImage(8, 8, 1)
	for i := range flat.Pix {
		flat.Pix[i] = 0.42
	}
	c := Contrast(flat)
	for _, v := range c.Pix {
		if v != 0 {
			t.Fatalf("contrast of a flat image must be 0, got %g", v)
		}
	}
}
