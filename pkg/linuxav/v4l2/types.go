//go:build linux

package v4l2

import "fmt"

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	Caps       uint32
}

// Capability is the decoded result of VIDIOC_QUERYCAP.
type Capability struct {
	Driver  string
	Card    string
	BusInfo string
	Version uint32
	Caps    uint32 // effective capabilities (device_caps when reported)
}

// VersionString formats the kernel-encoded driver version as major.minor.patch.
func (c Capability) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", c.Version>>16&0xff, c.Version>>8&0xff, c.Version&0xff)
}

// CanCapture reports whether the device supports video capture.
func (c Capability) CanCapture() bool {
	return c.Caps&v4l2CapVideoCapture != 0
}

// CanRead reports whether the device supports the read() I/O method.
func (c Capability) CanRead() bool {
	return c.Caps&v4l2CapReadWrite != 0
}

// CanStream reports whether the device supports streaming I/O.
func (c Capability) CanStream() bool {
	return c.Caps&v4l2CapStreaming != 0
}

func (c Capability) streamOnly() bool {
	return !c.CanRead() && c.CanStream()
}

// FormatInfo contains information about a supported pixel format.
type FormatInfo struct {
	PixelFormat uint32
	FormatName  string
	Emulated    bool
}

// PixFormat is the single-planar capture format (struct v4l2_pix_format).
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
}

// Standard describes one analog video standard supported by a device.
type Standard struct {
	Index       uint32
	ID          uint64
	Name        string
	FramePeriod Fract
	FrameLines  uint32
}

// Fract is a V4L2 fraction.
type Fract struct {
	Numerator   uint32
	Denominator uint32
}

// CropCap describes the cropping bounds and pixel aspect of a device.
// PixelAspect is expressed as y/x, matching the kernel definition.
type CropCap struct {
	BoundsWidth  uint32
	BoundsHeight uint32
	PixelAspect  Fract
}

// Pixel formats.
const (
	PixFmtUYVY  = 0x59565955 // 'UYVY'
	PixFmtYUYV  = 0x56595559 // 'YUYV'
	PixFmtRGB24 = 0x33424752 // 'RGB3'
	PixFmtMJPEG = 0x47504A4D // 'MJPG'
	PixFmtH264  = 0x34363248 // 'H264'
	PixFmtNV12  = 0x3231564E // 'NV12'
)

// Capability flags.
const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapReadWrite    = 0x01000000
	v4l2CapStreaming    = 0x04000000
	v4l2CapDeviceCaps   = 0x80000000
)

// Format flags.
const (
	v4l2FmtFlagEmulated = 0x0002
)

// Buffer type.
const (
	v4l2BufTypeVideoCapture = 1
)

// Buffer memory.
const (
	v4l2MemoryMmap = 1
)
