package capture

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Adaptive settling loop parameters. settlingTMax bounds the wait per
// exposure step; changeThreshold detects the commanded step; stableDelta
// and stableCountRequired detect convergence on the new plateau.
const (
	settlingTMax        = 2 * time.Second
	changeThreshold     = 0.15
	stableDelta         = 1.0
	stableCountRequired = 3
	meanEpsilon         = 1e-9
)

// meanIntensity is the mean pixel value of a frame across all channels,
// computed with gonum/stat to match the rest of the codebase's convention
// of using gonum for plain statistical aggregates (population stddev in
// internal/quality is hand-rolled instead, since gonum's StdDev applies
// Bessel's correction and would not match the population variant used
// there).
func meanIntensity(img imaging.ByteImage) float64 {
	data := make([]float64, len(img.Pix))
	for i, v := range img.Pix {
		data[i] = float64(v)
	}
	return stat.Mean(data, nil)
}

// settle runs the two-phase settling loop (change detection, then
// stability detection) for the exposure step just commanded, given the
// last accepted bracket mean. It returns the last frame observed, its
// mean, and whether any frame was captured at all (false only if every
// grab failed).
func (w *Worker) settle(lastMean float64) (imaging.ByteImage, float64, bool) {
	start := w.clock.Now()
	hasChanged := false
	stableCount := 0
	prevB := 0.0

	var lastFrame imaging.ByteImage
	var currB float64
	gotFrame := false

	for w.clock.Since(start) < settlingTMax {
		frame, ok := w.device.Read()
		if !ok {
			break
		}
		if err := w.store.SetLatestFrame(w.id, frame); err != nil {
			w.logf("publish settling frame: %v", err)
		}

		currB = meanIntensity(frame)
		lastFrame = frame
		gotFrame = true
		if w.trace != nil {
			w.trace.Append(w.clock.Now(), currB)
		}

		if !hasChanged {
			denom := lastMean
			if denom < meanEpsilon {
				denom = meanEpsilon
			}
			if math.Abs(currB-lastMean)/denom > changeThreshold {
				hasChanged = true
			}
		} else {
			if math.Abs(currB-prevB) < stableDelta {
				stableCount++
			} else {
				stableCount = 0
			}
			if stableCount >= stableCountRequired {
				break
			}
		}
		prevB = currB
	}

	if !gotFrame {
		return imaging.ByteImage{}, lastMean, false
	}
	return lastFrame, currB, true
}
