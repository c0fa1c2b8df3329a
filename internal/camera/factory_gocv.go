//go:build gocv

package camera

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Open is the camera.Factory linked into builds tagged "gocv": a real
// hardware backend over OpenCV's VideoCapture, indexed by id parsed as a
// decimal integer (the configured device index); a non-numeric id fails.
func Open(id string, width, height int) (Device, error) {
	index, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: camera id %q is not a device index", ErrDeviceOpenFailed, id)
	}
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceOpenFailed, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	return &gocvDevice{vc: vc, mat: gocv.NewMat()}, nil
}

// gocvDevice wraps an OpenCV VideoCapture behind the Device interface.
type gocvDevice struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

func (d *gocvDevice) Set(prop Property, value int) error {
	switch prop {
	case PropFrameWidth:
		d.vc.Set(gocv.VideoCaptureFrameWidth, float64(value))
	case PropFrameHeight:
		d.vc.Set(gocv.VideoCaptureFrameHeight, float64(value))
	case PropAutoExposure:
		if value == AutoExposureManual {
			d.vc.Set(gocv.VideoCaptureAutoExposure, 0.25)
		} else {
			d.vc.Set(gocv.VideoCaptureAutoExposure, 0.75)
		}
	case PropExposure:
		d.vc.Set(gocv.VideoCaptureExposure, float64(value))
	}
	return nil
}

func (d *gocvDevice) Read() (imaging.ByteImage, bool) {
	if ok := d.vc.Read(&d.mat); !ok || d.mat.Empty() {
		return imaging.ByteImage{}, false
	}
	img := imaging.NewByteImage(d.mat.Cols(), d.mat.Rows(), d.mat.Channels())
	copy(img.Pix, d.mat.ToBytes())
	return img, true
}

func (d *gocvDevice) Release() error {
	d.mat.Close()
	return d.vc.Close()
}
