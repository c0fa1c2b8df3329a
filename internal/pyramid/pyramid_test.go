package pyramid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

func randomImage(w, h, c int, seed int64) imaging.FloatImage {
	r := rand.New(rand.NewSource(seed))
	img := imaging.NewFloatImage(w, h, c)
	for i := range img.Pix {
		img.Pix[i] = r.Float64()
	}
	return img
}

func TestDownsampleDimensions(t *testing.T) {
	cases := []struct{ w, h int }{
		{64, 64}, {65, 65}, {31, 40}, {2, 2},
	}
	for _, c := range cases {
		img := randomImage(c.w, c.h, 3, 1)
		out := Downsample(img)
		wantH, wantW := (c.h+1)/2, (c.w+1)/2
		if out.Height != wantH || out.Width != wantW {
			t.Errorf("Downsample(%dx%d) = %dx%d, want %dx%d", c.h, c.w, out.Height, out.Width, wantH, wantW)
		}
	}
}

func TestDepth(t *testing.T) {
	cases := []struct {
		m    int
		want int
	}{
		{4, 1}, {8, 1}, {16, 2}, {64, 4}, {256, 6}, {1, 1},
	}
	for _, c := range cases {
		if got := Depth(c.m); got != c.want {
			t.Errorf("Depth(%d) = %d, want %d", c.m, got, c.want)
		}
	}
}

func TestLaplacianReconstruct(t *testing.T) {
	img := randomImage(67, 53, 3, 42)
	depth := Depth(min(img.Height, img.Width))
	lap := Laplacian(img, depth)
	rec := Reconstruct(lap)

	if rec.Width != img.Width || rec.Height != img.Height {
		t.Fatalf("reconstructed shape %dx%d, want %dx%d", rec.Height, rec.Width, img.Height, img.Width)
	}
	var maxAbs float64
	for i := range img.Pix {
		d := math.Abs(img.Pix[i] - rec.Pix[i])
		if d > maxAbs {
			maxAbs = d
		}
	}
	if maxAbs > 1e-6 {
		t.Errorf("reconstruction error %g exceeds 1e-6", maxAbs)
	}
}

func TestUpsampleExactTargetSize(t *testing.T) {
	// Odd-sized original exercises the explicit dstsize contract.
	img := randomImage(5, 5, 1, 3)
	down := Downsample(img)
	up := Upsample(down, img.Height, img.Width)
	if up.Height != img.Height || up.Width != img.Width {
		t.Fatalf("Upsample shape = %dx%d, want %dx%d", up.Height, up.Width, img.Height, img.Width)
	}
}
