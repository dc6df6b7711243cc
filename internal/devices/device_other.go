//go:build !linux

package devices

import "github.com/smazurov/framesource/internal/types"

// Open returns ErrUnsupported on platforms without V4L2.
func Open(string, Options) (types.CaptureDevice, error) {
	return nil, ErrUnsupported
}

// List returns ErrUnsupported on platforms without V4L2.
func List() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}

// Formats returns ErrUnsupported on platforms without V4L2.
func Formats(string) ([]FormatInfo, error) {
	return nil, ErrUnsupported
}
