package types

import (
	"fmt"
	"strings"
)

// Encoding is the pixel encoding frames are captured in.
type Encoding int

const (
	EncodingUYVY Encoding = iota
	EncodingRGB24
)

// FourCC codes as reported by V4L2 drivers.
const (
	FourCCUYVY  uint32 = 0x59565955 // 'UYVY'
	FourCCRGB24 uint32 = 0x33424752 // 'RGB3'
)

// ParseEncoding maps a config string ("uyvy", "rgb24") to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uyvy", "":
		return EncodingUYVY, nil
	case "rgb24", "rgb3", "rgb":
		return EncodingRGB24, nil
	default:
		return 0, fmt.Errorf("unknown pixel encoding %q", s)
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingUYVY:
		return "uyvy"
	case EncodingRGB24:
		return "rgb24"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// BytesPerPixel returns the average number of bytes one pixel occupies.
func (e Encoding) BytesPerPixel() int {
	switch e {
	case EncodingUYVY:
		return 2
	case EncodingRGB24:
		return 3
	default:
		return 0
	}
}

// FourCC returns the V4L2 pixel format code for the encoding.
func (e Encoding) FourCC() uint32 {
	switch e {
	case EncodingUYVY:
		return FourCCUYVY
	case EncodingRGB24:
		return FourCCRGB24
	default:
		return 0
	}
}

// Rational is an unsigned fraction.
type Rational struct {
	Num uint32 `json:"num"`
	Den uint32 `json:"den"`
}

// Square is the 1:1 pixel aspect ratio.
var Square = Rational{Num: 1, Den: 1}

// IsZero reports whether either component is zero.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// Float returns Num/Den, or 0 for a zero denominator.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d:%d", r.Num, r.Den)
}

// CaptureFormat is the negotiated geometry of a capture session.
// It does not change while the session is loaded.
type CaptureFormat struct {
	Width       uint32   `json:"width"`
	Height      uint32   `json:"height"`
	Encoding    Encoding `json:"encoding"`
	FrameSize   uint32   `json:"frame_size"`
	PixelAspect Rational `json:"pixel_aspect"`
}

// NewCaptureFormat fills FrameSize from the geometry and encoding.
func NewCaptureFormat(width, height uint32, enc Encoding, aspect Rational) CaptureFormat {
	return CaptureFormat{
		Width:       width,
		Height:      height,
		Encoding:    enc,
		FrameSize:   width * height * uint32(enc.BytesPerPixel()),
		PixelAspect: aspect,
	}
}

// Pixels returns Width*Height.
func (f CaptureFormat) Pixels() int {
	return int(f.Width) * int(f.Height)
}

// DisplayAspect returns the width:height ratio of the displayed picture.
func (f CaptureFormat) DisplayAspect() float64 {
	if f.Height == 0 {
		return 0
	}
	pa := f.PixelAspect
	if pa.IsZero() {
		pa = Square
	}
	return float64(f.Width) * float64(pa.Num) / (float64(f.Height) * float64(pa.Den))
}

// PixFormat is a device-level format as reported by the driver.
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32 // fourcc
	BytesPerLine uint32
	SizeImage    uint32
}

// StandardID is an opaque analog video standard bitfield.
type StandardID uint64

// Standard describes one video standard a device supports.
type Standard struct {
	Index uint32
	Name  string
	ID    StandardID
}

// PixelFormat is a host display pixel format. RGB565 is the only format
// the core produces.
type PixelFormat int

const PixelFormatRGB565 PixelFormat = 2

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("pixelformat(%d)", int(p))
	}
}
