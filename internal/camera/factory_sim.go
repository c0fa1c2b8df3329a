//go:build !gocv

package camera

// Open is the camera.Factory linked into builds without the "gocv" tag: the
// simulated backend. Real hardware support requires building with
// "-tags gocv" and an OpenCV installation (see factory_gocv.go).
func Open(id string, width, height int) (Device, error) {
	return OpenSimulated(id, width, height)
}
