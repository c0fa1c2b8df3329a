package fusion

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/visionfusion/internal/imaging"
	"github.com/banshee-data/visionfusion/internal/quality"
)

func solidImage(w, h int, v byte) imaging.ByteImage {
	img := imaging.NewByteImage(w, h, 3)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func meanPixel(img imaging.ByteImage) float64 {
	var sum float64
	for _, v := range img.Pix {
		sum += float64(v)
	}
	return sum / float64(len(img.Pix))
}

// Scenario 1: two-image bracket, flat inputs — the composite's mean lands
// between the two extremes (flat frames have zero contrast, so both weight
// maps reduce to epsilon and blend equally).
func TestFuseTwoImageFlatBracket(t *testing.T) {
	bracket := []imaging.ByteImage{solidImage(64, 64, 50), solidImage(64, 64, 200)}
	out, err := Fuse(bracket, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if out.Width != 64 || out.Height != 64 || out.Channels != 3 {
		t.Fatalf("output shape = %v, want 64x64x3", out)
	}
	mean := meanPixel(out)
	if mean < 80 || mean > 170 {
		t.Errorf("mean pixel value = %g, want in [80, 170]", mean)
	}
}

// Scenario 2: single-frame fusion equals the input within rounding error.
func TestFuseSingleImage(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	img := imaging.NewByteImage(32, 32, 3)
	r.Read(img.Pix)

	out, err := Fuse([]imaging.ByteImage{img}, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	for i := range img.Pix {
		d := int(img.Pix[i]) - int(out.Pix[i])
		if d < -2 || d > 2 {
			t.Fatalf("pixel %d: got %d, want %d +/- 2", i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestFuseEmptyBracket(t *testing.T) {
	_, err := Fuse(nil, quality.DefaultWeights())
	if err != ErrEmptyBracket {
		t.Fatalf("err = %v, want ErrEmptyBracket", err)
	}
}

func TestFuseShapeMismatch(t *testing.T) {
	bracket := []imaging.ByteImage{solidImage(16, 16, 10), solidImage(8, 8, 10)}
	_, err := Fuse(bracket, quality.DefaultWeights())
	if err == nil {
		t.Fatal("expected a shape mismatch error")
	}
}

// Order-independence: fusing a permuted bracket matches the original
// within floating-point summation tolerance.
func TestFuseOrderIndependent(t *testing.T) {
	bracket := []imaging.ByteImage{solidImage(32, 32, 40), solidImage(32, 32, 128), solidImage(32, 32, 220)}
	permuted := []imaging.ByteImage{bracket[2], bracket[0], bracket[1]}

	outA, err := Fuse(bracket, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Fuse(bracket) error: %v", err)
	}
	outB, err := Fuse(permuted, quality.DefaultWeights())
	if err != nil {
		t.Fatalf("Fuse(permuted) error: %v", err)
	}
	for i := range outA.Pix {
		d := int(outA.Pix[i]) - int(outB.Pix[i])
		if d < -1 || d > 1 {
			t.Fatalf("pixel %d differs by %d across permutation, want <= 1 LSB", i, d)
		}
	}
}
