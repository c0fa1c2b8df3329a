package capture

import (
	"context"
	"testing"
	"time"

	"github.com/banshee-data/visionfusion/internal/camera"
	"github.com/banshee-data/visionfusion/internal/quality"
	"github.com/banshee-data/visionfusion/internal/state"
)

// Worker lifecycle under an externally requested bracket capture.
func TestWorkerLifecycleUnderRequested(t *testing.T) {
	store := state.NewSharedState("/", "0.0.0.0", 5000, map[string]state.CameraConfig{
		"0": {Width: 16, Height: 16},
	})
	dev := camera.NewSimulatedDevice("0", 16, 16)
	w := New(Config{ID: "0", Device: dev, Store: store, Weights: quality.DefaultWeights()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	if err := store.SetFusionState("0", state.StateRequested, ""); err != nil {
		t.Fatalf("seed REQUESTED: %v", err)
	}

	deadline := time.After(10 * time.Second)
	sawProcessing := false
	for {
		fs, err := store.FusionState("0")
		if err != nil {
			t.Fatalf("FusionState: %v", err)
		}
		if fs == state.StateProcessing {
			sawProcessing = true
		}
		if fs == state.StateReady {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for READY, last state %q", fs)
		case <-time.After(time.Millisecond):
		}
	}
	if !sawProcessing {
		t.Error("worker never observably passed through PROCESSING")
	}

	result, ok, err := store.FusedResult("0")
	if err != nil {
		t.Fatalf("FusedResult: %v", err)
	}
	if !ok {
		t.Fatal("fused_result should be non-absent after a successful bracket")
	}
	if result.Width != 16 || result.Height != 16 || result.Channels != 3 {
		t.Errorf("fused_result shape = %dx%dx%d, want 16x16x3", result.Width, result.Height, result.Channels)
	}

	if err := store.SetRunning(false); err != nil {
		t.Fatalf("SetRunning: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after is_running went false")
	}
}

// A REQUESTED observed while the worker is already past IDLE is ignored
// until the next IDLE checkpoint.
func TestRequestedDuringProcessingIsNotReentrant(t *testing.T) {
	store := state.NewSharedState("/", "0.0.0.0", 5000, map[string]state.CameraConfig{
		"0": {Width: 8, Height: 8},
	})
	dev := camera.NewSimulatedDevice("0", 8, 8)
	w := New(Config{ID: "0", Device: dev, Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	if err := store.SetFusionState("0", state.StateRequested, ""); err != nil {
		t.Fatalf("seed REQUESTED: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		fs, err := store.FusionState("0")
		if err != nil {
			t.Fatalf("FusionState: %v", err)
		}
		if fs == state.StateReady {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for READY, last state %q", fs)
		case <-time.After(time.Millisecond):
		}
	}

	if err := store.SetRunning(false); err != nil {
		t.Fatalf("SetRunning: %v", err)
	}
	<-done
}
