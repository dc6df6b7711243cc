//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Formats returns all pixel formats the device can capture.
func (d *Device) Formats() ([]FormatInfo, error) {
	var formats []FormatInfo

	for i := uint32(0); ; i++ {
		fmtdesc := v4l2Fmtdesc{
			index: i,
			typ:   v4l2BufTypeVideoCapture,
		}

		if err := ioctl(d.fd, vidiocEnumFmt, unsafe.Pointer(&fmtdesc)); err != nil {
			if errors.Is(err, unix.EINVAL) {
				break // End of enumeration
			}
			return nil, fmt.Errorf("failed to enumerate format %d: %w", i, err)
		}

		formats = append(formats, FormatInfo{
			PixelFormat: fmtdesc.pixelformat,
			FormatName:  cstr(fmtdesc.description[:]),
			Emulated:    fmtdesc.flags&v4l2FmtFlagEmulated != 0,
		})
	}

	return formats, nil
}

// Format returns the current capture format (VIDIOC_G_FMT).
func (d *Device) Format() (PixFormat, error) {
	f := v4l2Format{typ: v4l2BufTypeVideoCapture}
	if err := ioctl(d.fd, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, fmt.Errorf("VIDIOC_G_FMT failed: %w", err)
	}
	return decodePixFormat(&f.pix), nil
}

// SetFormat requests a capture format (VIDIOC_S_FMT). The driver may adjust
// the request; callers should re-read the format to see what was applied.
func (d *Device) SetFormat(pix PixFormat) error {
	f := v4l2Format{typ: v4l2BufTypeVideoCapture}
	if err := ioctl(d.fd, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("VIDIOC_G_FMT failed: %w", err)
	}

	f.pix.width = pix.Width
	f.pix.height = pix.Height
	f.pix.pixelformat = pix.PixelFormat
	f.pix.field = pix.Field
	f.pix.bytesperline = 0 // let the driver compute the stride
	f.pix.sizeimage = 0

	if err := ioctl(d.fd, vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("VIDIOC_S_FMT failed: %w", err)
	}
	return nil
}

func decodePixFormat(p *v4l2PixFormat) PixFormat {
	return PixFormat{
		Width:        p.width,
		Height:       p.height,
		PixelFormat:  p.pixelformat,
		Field:        p.field,
		BytesPerLine: p.bytesperline,
		SizeImage:    p.sizeimage,
		Colorspace:   p.colorspace,
	}
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}
