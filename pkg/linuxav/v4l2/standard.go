//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrStandardsNotSupported is returned when the device has no analog
// standards (typical for UVC webcams and HDMI receivers).
var ErrStandardsNotSupported = errors.New("video standards not supported")

// Standard returns the currently selected video standard (VIDIOC_G_STD).
func (d *Device) Standard() (uint64, error) {
	var id uint64
	if err := ioctl(d.fd, vidiocGStd, unsafe.Pointer(&id)); err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.ENODATA) {
			return 0, ErrStandardsNotSupported
		}
		return 0, fmt.Errorf("VIDIOC_G_STD failed: %w", err)
	}
	return id, nil
}

// Standards enumerates every standard the device supports (VIDIOC_ENUMSTD).
// Enumeration stops at the first index the driver rejects.
func (d *Device) Standards() ([]Standard, error) {
	var stds []Standard

	for i := uint32(0); ; i++ {
		std := v4l2Standard{index: i}
		if err := ioctl(d.fd, vidiocEnumstd, unsafe.Pointer(&std)); err != nil {
			if i == 0 && (errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.ENODATA)) {
				return nil, ErrStandardsNotSupported
			}
			break
		}

		stds = append(stds, Standard{
			Index: std.index,
			ID:    std.id,
			Name:  cstr(std.name[:]),
			FramePeriod: Fract{
				Numerator:   std.frameperiod.numerator,
				Denominator: std.frameperiod.denominator,
			},
			FrameLines: std.framelines,
		})
	}

	return stds, nil
}

// CropCap queries cropping capabilities (VIDIOC_CROPCAP).
func (d *Device) CropCap() (CropCap, error) {
	cc := v4l2Cropcap{typ: v4l2BufTypeVideoCapture}
	if err := ioctl(d.fd, vidiocCropcap, unsafe.Pointer(&cc)); err != nil {
		return CropCap{}, fmt.Errorf("VIDIOC_CROPCAP failed: %w", err)
	}
	return CropCap{
		BoundsWidth:  cc.bounds.width,
		BoundsHeight: cc.bounds.height,
		PixelAspect: Fract{
			Numerator:   cc.pixelaspect.numerator,
			Denominator: cc.pixelaspect.denominator,
		},
	}, nil
}
