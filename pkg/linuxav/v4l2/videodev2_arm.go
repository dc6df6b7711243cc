//go:build linux && arm

package v4l2

import "unsafe"

// Compile-time struct size assertions for 32-bit ARM.
// These will cause build failures if struct sizes don't match kernel expectations.
var (
	_ [104]byte = [unsafe.Sizeof(v4l2Capability{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(v4l2Fmtdesc{})]byte{}
	_ [48]byte  = [unsafe.Sizeof(v4l2PixFormat{})]byte{}
	_ [204]byte = [unsafe.Sizeof(v4l2Format{})]byte{}
	_ [8]byte   = [unsafe.Sizeof(v4l2Fract{})]byte{}
	_ [72]byte  = [unsafe.Sizeof(v4l2Standard{})]byte{}
	_ [44]byte  = [unsafe.Sizeof(v4l2Cropcap{})]byte{}
	_ [20]byte  = [unsafe.Sizeof(v4l2Requestbuffers{})]byte{}
	_ [68]byte  = [unsafe.Sizeof(v4l2Buffer{})]byte{}
)

// IOCTL constants for 32-bit ARM.
// Only v4l2_format differs from 64-bit: its union has 4-byte pointers.
const (
	vidiocQuerycap  = 0x80685600
	vidiocEnumFmt   = 0xc0405602
	vidiocGFmt      = 0xc0cc5604
	vidiocSFmt      = 0xc0cc5605
	vidiocGStd      = 0x80085617
	vidiocEnumstd   = 0xc0485619
	vidiocCropcap   = 0xc02c563a
	vidiocReqbufs   = 0xc0145608
	vidiocQuerybuf  = 0xc0445609
	vidiocQbuf      = 0xc044560f
	vidiocDqbuf     = 0xc0445611
	vidiocStreamon  = 0x40045612
	vidiocStreamoff = 0x40045613
)

type v4l2Capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

type v4l2Fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbusCode    uint32
	reserved    [3]uint32
}

type v4l2PixFormat struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcrEnc     uint32
	quantization uint32
	xferFunc     uint32
}

// v4l2Format has size 204 bytes on 32-bit: no padding before the union.
type v4l2Format struct {
	typ uint32
	pix v4l2PixFormat
	_   [152]byte
}

type v4l2Fract struct {
	numerator   uint32
	denominator uint32
}

// v4l2Standard is 72 bytes: EABI aligns the 64-bit id to 8 bytes, Go on
// arm does not, so both paddings are explicit.
type v4l2Standard struct {
	index       uint32
	_           [4]byte
	id          uint64
	name        [24]byte
	frameperiod v4l2Fract
	framelines  uint32
	reserved    [4]uint32
	_           [4]byte
}

type v4l2Rect struct {
	left   int32
	top    int32
	width  uint32
	height uint32
}

type v4l2Cropcap struct {
	typ         uint32
	bounds      v4l2Rect
	defrect     v4l2Rect
	pixelaspect v4l2Fract
}

type v4l2Requestbuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

// v4l2Buffer has size 68 bytes with a 32-bit struct timeval.
type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	timestamp [2]int32
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	offset    uint32
	length    uint32
	reserved2 uint32
	requestFD int32
}
