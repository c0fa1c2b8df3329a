// Package camera abstracts over a video capture device: open, set a
// property, grab a frame, release. Two backends satisfy Device — a real
// GoCV-backed capture under the "gocv" build tag, and an always-compiled
// simulated device used by the default build and the test suite.
package camera

import (
	"errors"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Property identifies a settable device property.
type Property int

const (
	PropFrameWidth Property = iota
	PropFrameHeight
	PropAutoExposure
	PropExposure
)

// AutoExposure values for PropAutoExposure: "auto" or "manual".
const (
	AutoExposureAuto = iota
	AutoExposureManual
)

// ErrDeviceOpenFailed and ErrDeviceReadFailed are the two camera-adapter
// error kinds. An open failure returned by Open is not retried: cmd/visiond
// exits on it. A failed grab is reported by Read as ok=false rather than as
// ErrDeviceReadFailed, and the capture worker's live loop sleeps and retries.
var (
	ErrDeviceOpenFailed = errors.New("camera: device open failed")
	ErrDeviceReadFailed = errors.New("camera: device read failed")
)

// Device is a thin handle over a video source.
type Device interface {
	// Set configures a device property; see Property.
	Set(prop Property, value int) error
	// Read grabs the most recent frame. ok is false on a failed grab; the
	// caller's policy is to sleep 100ms and retry.
	Read() (frame imaging.ByteImage, ok bool)
	// Release closes the underlying device handle.
	Release() error
}

// Factory opens a Device for a given camera id at the given frame
// dimensions. Exactly one concrete Factory is linked into a build,
// selected by the "gocv" build tag (see factory_gocv.go / factory_sim.go).
type Factory func(id string, width, height int) (Device, error)
