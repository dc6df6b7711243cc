// Package devices opens V4L2 capture nodes as types.CaptureDevice and
// lists the capture devices present on the system.
package devices

import (
	"errors"
	"time"
)

// ErrUnsupported is returned on platforms without V4L2.
var ErrUnsupported = errors.New("video capture not supported on this platform")

// DefaultReadTimeout bounds a single frame read.
const DefaultReadTimeout = time.Second

// Options control how a device is opened.
type Options struct {
	// ReadTimeout bounds each ReadFrame call. Zero uses DefaultReadTimeout;
	// a negative value waits forever.
	ReadTimeout time.Duration
}

// DeviceInfo describes a capture device found by List.
type DeviceInfo struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Device node"`
	DeviceName string `json:"device_name" example:"USB Video" doc:"Card name reported by the driver"`
	DeviceID   string `json:"device_id" example:"usb-MACROSILICON_USB_Video-video-index0" doc:"Stable identifier"`
	Caps       uint32 `json:"caps" doc:"V4L2 capability bits"`
}

// FormatInfo is a pixel format a device can deliver.
type FormatInfo struct {
	FourCC      string `json:"fourcc" example:"UYVY" doc:"Pixel format code"`
	Description string `json:"description" example:"UYVY 4:2:2" doc:"Driver description"`
	Emulated    bool   `json:"emulated" doc:"Whether the format is converted in software"`
}
