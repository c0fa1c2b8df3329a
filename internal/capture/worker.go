// Package capture implements the per-camera capture worker: a state machine
// interleaving live streaming with bracketed, exposure-fused capture.
package capture

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/visionfusion/internal/camera"
	"github.com/banshee-data/visionfusion/internal/fusion"
	"github.com/banshee-data/visionfusion/internal/imaging"
	"github.com/banshee-data/visionfusion/internal/monitoring"
	"github.com/banshee-data/visionfusion/internal/quality"
	"github.com/banshee-data/visionfusion/internal/state"
	"github.com/banshee-data/visionfusion/internal/timeutil"
)

// bracketExposures is the fixed device-native exposure sequence a bracket
// steps through; the exact units are device-specific and carried as
// opaque integers.
var bracketExposures = []int{5000, 1000, 20}

const liveLoopRetryDelay = 100 * time.Millisecond

// Config constructs a Worker.
type Config struct {
	ID      string
	Device  camera.Device
	Store   *state.Store
	Clock   timeutil.Clock
	Weights quality.Weights
	// Trace, if non-nil, receives every settling-loop sample for diagnostics.
	Trace *SettlingTrace
}

// Worker owns one camera device handle and drives one CameraRecord through
// the live-streaming / bracketed-capture state machine.
type Worker struct {
	id      string
	device  camera.Device
	store   *state.Store
	clock   timeutil.Clock
	weights quality.Weights
	trace   *SettlingTrace
}

// New constructs a Worker from cfg, defaulting an unset Clock to the real
// wall clock and unset Weights to quality.DefaultWeights.
func New(cfg Config) *Worker {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	weights := cfg.Weights
	if weights == (quality.Weights{}) {
		weights = quality.DefaultWeights()
	}
	return &Worker{
		id:      cfg.ID,
		device:  cfg.Device,
		store:   cfg.Store,
		clock:   clock,
		weights: weights,
		trace:   cfg.Trace,
	}
}

func (w *Worker) logf(format string, v ...interface{}) {
	monitoring.Logf("capture[%s]: "+format, append([]interface{}{w.id}, v...)...)
}

// Run drives the worker until ctx is cancelled or shared_state.is_running /
// the camera's own is_running flag goes false, releasing the device handle
// before returning.
func (w *Worker) Run(ctx context.Context) {
	defer func() {
		if err := w.device.Release(); err != nil {
			w.logf("release device: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !w.store.IsRunning() {
			return
		}
		running, err := w.store.CameraRunning(w.id)
		if err != nil {
			w.logf("read is_running: %v", err)
			return
		}
		if !running {
			return
		}

		fs, err := w.store.FusionState(w.id)
		if err != nil {
			w.logf("read fusion_state: %v", err)
			w.clock.Sleep(liveLoopRetryDelay)
			continue
		}

		if fs == state.StateRequested {
			w.runBracket(ctx)
			continue
		}
		w.liveStep()
	}
}

// liveStep grabs and publishes one frame; on failure it sleeps the fixed
// retry delay.
func (w *Worker) liveStep() {
	frame, ok := w.device.Read()
	if !ok {
		w.clock.Sleep(liveLoopRetryDelay)
		return
	}
	if err := w.store.SetLatestFrame(w.id, frame); err != nil {
		w.logf("publish latest frame: %v", err)
	}
}

// runBracket drives the REQUESTED -> PROCESSING -> READY transition: steps
// the device through bracketExposures, fuses the accumulated bracket, and
// publishes the result.
func (w *Worker) runBracket(ctx context.Context) {
	requestID := uuid.NewString()
	if err := w.store.SetFusionState(w.id, state.StateProcessing, requestID); err != nil {
		w.logf("transition to PROCESSING: %v", err)
		return
	}

	if err := w.device.Set(camera.PropAutoExposure, camera.AutoExposureManual); err != nil {
		w.logf("enable manual exposure: %v", err)
	}

	// A bracket in progress always runs to completion; ctx cancellation is
	// honored by Run's outer loop before the next bracket starts, not
	// mid-bracket.
	var bracket []imaging.ByteImage
	lastMean := 0.0
	for _, exposure := range bracketExposures {
		if err := w.device.Set(camera.PropExposure, exposure); err != nil {
			w.logf("set exposure %d: %v", exposure, err)
			continue
		}
		frame, mean, ok := w.settle(lastMean)
		if !ok {
			continue
		}
		bracket = append(bracket, frame)
		lastMean = mean
	}

	if len(bracket) > 0 {
		if fused, err := fusion.Fuse(bracket, w.weights); err != nil {
			w.logf("fuse bracket of %d frames: %v", len(bracket), err)
		} else if err := w.store.SetFusedResult(w.id, fused); err != nil {
			w.logf("publish fused result: %v", err)
		}
	}

	if err := w.device.Set(camera.PropAutoExposure, camera.AutoExposureAuto); err != nil {
		w.logf("restore auto exposure: %v", err)
	}
	w.device.Read() // flush one frame left over from manual exposure

	// Transitions to READY unconditionally, even when the bracket produced
	// no frames: fused_result absence plus READY is a valid, observable end
	// state.
	if err := w.store.SetFusionState(w.id, state.StateReady, requestID); err != nil {
		w.logf("transition to READY: %v", err)
	}
}
