package state

import (
	"fmt"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Fusion states for CameraRecord.fusion_state. Only forward transitions
// IDLE -> REQUESTED -> PROCESSING -> READY -> IDLE are valid.
const (
	StateIdle       = "IDLE"
	StateRequested  = "REQUESTED"
	StateProcessing = "PROCESSING"
	StateReady      = "READY"
)

// CameraConfig is the fixed, worker-startup-time configuration of one
// camera; resolution is not hot-reconfigurable.
type CameraConfig struct {
	Width, Height int
}

// NewSharedState builds the root state tree: is_running, ipv4, port, and one
// CameraRecord per entry of cameras, all starting IDLE with no frames.
func NewSharedState(sep, ipv4 string, port int, cameras map[string]CameraConfig) *Store {
	s := New(sep)
	cameraMap := make(map[string]Value, len(cameras))
	for id, cfg := range cameras {
		cameraMap[id] = NewMap(map[string]Value{
			"id":                NewString(id),
			"width":             NewInt(int64(cfg.Width)),
			"height":            NewInt(int64(cfg.Height)),
			"is_running":        NewBool(true),
			"latest_frame_ok":   NewBool(false),
			"latest_frame_data": Null,
			"fused_result":      Null,
			"fusion_state":      NewString(StateIdle),
		})
	}
	root := NewMap(map[string]Value{
		"is_running": NewBool(true),
		"ipv4":       NewString(ipv4),
		"port":       NewInt(int64(port)),
		"camera":     NewMap(cameraMap),
	})
	s.root = root
	return s
}

func cameraPath(id, field string) string {
	return fmt.Sprintf("camera/%s/%s", id, field)
}

// IsRunning reports the global shutdown flag.
func (s *Store) IsRunning() bool {
	v, err := s.Get("is_running")
	if err != nil {
		return false
	}
	return v.Bool
}

// SetRunning sets the global shutdown flag.
func (s *Store) SetRunning(running bool) error {
	return s.Set("is_running", NewBool(running))
}

// CameraRunning reports a single camera's is_running flag.
func (s *Store) CameraRunning(id string) (bool, error) {
	v, err := s.Get(cameraPath(id, "is_running"))
	if err != nil {
		return false, err
	}
	return v.Bool, nil
}

// SetCameraRunning sets a single camera's is_running flag.
func (s *Store) SetCameraRunning(id string, running bool) error {
	return s.Set(cameraPath(id, "is_running"), NewBool(running))
}

// LatestFrame returns the most recently published live frame for a camera
// and whether a frame has ever been published.
func (s *Store) LatestFrame(id string) (imaging.ByteImage, bool, error) {
	okV, err := s.Get(cameraPath(id, "latest_frame_ok"))
	if err != nil {
		return imaging.ByteImage{}, false, err
	}
	if !okV.Bool {
		return imaging.ByteImage{}, false, nil
	}
	imgV, err := s.Get(cameraPath(id, "latest_frame_data"))
	if err != nil {
		return imaging.ByteImage{}, false, err
	}
	if imgV.Kind != KindImage || imgV.Image == nil || imgV.Image.Raw == nil {
		return imaging.ByteImage{}, false, nil
	}
	return *imgV.Image.Raw, true, nil
}

// SetLatestFrame publishes a new frame buffer; it never mutates a
// previously published buffer in place, so concurrent readers always see
// a complete frame.
func (s *Store) SetLatestFrame(id string, frame imaging.ByteImage) error {
	if err := s.Set(cameraPath(id, "latest_frame_data"), NewRawImage(frame)); err != nil {
		return err
	}
	return s.Set(cameraPath(id, "latest_frame_ok"), NewBool(true))
}

// FusedResult returns the most recent fused composite for a camera, and
// whether one has been published yet.
func (s *Store) FusedResult(id string) (imaging.ByteImage, bool, error) {
	v, err := s.Get(cameraPath(id, "fused_result"))
	if err != nil {
		return imaging.ByteImage{}, false, err
	}
	if v.Kind != KindImage || v.Image == nil || v.Image.Raw == nil {
		return imaging.ByteImage{}, false, nil
	}
	return *v.Image.Raw, true, nil
}

// SetFusedResult publishes a new fused composite.
func (s *Store) SetFusedResult(id string, result imaging.ByteImage) error {
	return s.Set(cameraPath(id, "fused_result"), NewRawImage(result))
}

// FusionState returns a camera's current fusion_state.
func (s *Store) FusionState(id string) (string, error) {
	v, err := s.Get(cameraPath(id, "fusion_state"))
	if err != nil {
		return "", err
	}
	return v.String, nil
}

// SetFusionState transitions a camera's fusion_state and, if the value
// actually changed, notifies registered transition listeners with the
// request_id correlating this bracket.
func (s *Store) SetFusionState(id, newState, requestID string) error {
	prev, err := s.FusionState(id)
	if err != nil {
		return err
	}
	if err := s.Set(cameraPath(id, "fusion_state"), NewString(newState)); err != nil {
		return err
	}
	if prev != newState {
		s.notify(id, prev, newState, requestID)
	}
	return nil
}
