package camera

import "testing"

func TestSimulatedDeviceConvergesTowardExposureTarget(t *testing.T) {
	d := NewSimulatedDevice("0", 8, 8)
	if err := d.Set(PropExposure, 5000); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var last float64
	for i := 0; i < 60; i++ {
		frame, ok := d.Read()
		if !ok {
			t.Fatalf("Read failed at iteration %d", i)
		}
		last = meanOf(frame.Pix)
	}

	want := targetMean(5000)
	if diff := want - last; diff > 5 || diff < -5 {
		t.Errorf("mean after settling = %g, want within 5 of target %g", last, want)
	}
}

func TestSimulatedDeviceReadAfterReleaseFails(t *testing.T) {
	d := NewSimulatedDevice("0", 4, 4)
	if err := d.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok := d.Read(); ok {
		t.Error("Read after Release should fail")
	}
}

func TestSimulatedDeviceFrameShape(t *testing.T) {
	d := NewSimulatedDevice("cam-a", 16, 10)
	frame, ok := d.Read()
	if !ok {
		t.Fatal("Read failed")
	}
	if frame.Width != 16 || frame.Height != 10 || frame.Channels != 3 {
		t.Errorf("frame shape = %dx%dx%d, want 16x10x3", frame.Width, frame.Height, frame.Channels)
	}
}

func meanOf(pix []byte) float64 {
	var sum float64
	for _, v := range pix {
		sum += float64(v)
	}
	return sum / float64(len(pix))
}
