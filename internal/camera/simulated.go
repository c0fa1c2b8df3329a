package camera

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sync"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// SimulatedDevice is the always-compiled software camera backend. It
// synthesizes frames whose mean intensity ramps toward a function of the
// configured exposure over successive Read calls, rather than jumping
// instantly — this gives the adaptive settling loop (internal/capture)
// something real to converge on in tests and in the default build.
type SimulatedDevice struct {
	mu sync.Mutex

	width, height int
	autoExposure  int
	exposure      int

	currentMean float64
	rng         *rand.Rand
	released    bool
}

// NewSimulatedDevice constructs a deterministic simulated device for
// camera id, seeded from id so repeated runs of the same configuration
// produce identical frame sequences.
func NewSimulatedDevice(id string, width, height int) *SimulatedDevice {
	h := fnv.New64a()
	h.Write([]byte(id))
	return &SimulatedDevice{
		width:        width,
		height:       height,
		autoExposure: AutoExposureAuto,
		exposure:     1000,
		currentMean:  128,
		rng:          rand.New(rand.NewSource(int64(h.Sum64()))),
	}
}

// OpenSimulated is a camera.Factory backed by SimulatedDevice.
func OpenSimulated(id string, width, height int) (Device, error) {
	return NewSimulatedDevice(id, width, height), nil
}

// targetMean maps a device-native exposure value to the mean intensity the
// simulated sensor would eventually settle at.
func targetMean(exposure int) float64 {
	e := float64(exposure)
	return 255.0 * e / (e + 500.0)
}

func (d *SimulatedDevice) Set(prop Property, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch prop {
	case PropFrameWidth:
		d.width = value
	case PropFrameHeight:
		d.height = value
	case PropAutoExposure:
		d.autoExposure = value
	case PropExposure:
		d.exposure = value
	}
	return nil
}

// Read produces the next frame, moving currentMean 40% of the way toward
// its exposure-determined target and adding small per-pixel noise.
func (d *SimulatedDevice) Read() (imaging.ByteImage, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return imaging.ByteImage{}, false
	}

	target := targetMean(d.exposure)
	d.currentMean += 0.4 * (target - d.currentMean)

	img := imaging.NewByteImage(d.width, d.height, 3)
	for i := range img.Pix {
		v := d.currentMean + d.rng.NormFloat64()*1.5
		img.Pix[i] = clampByte(v)
	}
	return img, true
}

func (d *SimulatedDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	return nil
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(math.Round(v))
}
