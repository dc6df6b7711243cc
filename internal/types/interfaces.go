package types

import "errors"

// ErrStandardsUnsupported is returned by CaptureDevice.Standard and
// CaptureDevice.Standards when the device has no analog video standards.
var ErrStandardsUnsupported = errors.New("video standards not supported")

// DeviceInfo is what a capture device reports about itself.
type DeviceInfo struct {
	Path    string `json:"path"`
	Driver  string `json:"driver"`
	Card    string `json:"card"`
	BusInfo string `json:"bus_info"`
	Version string `json:"version"`
}

// CaptureDevice is an open video capture device.
type CaptureDevice interface {
	Info() DeviceInfo
	Format() (PixFormat, error)
	SetFormat(PixFormat) error
	Standard() (StandardID, error)
	Standards() ([]Standard, error)
	PixelAspect() (Rational, error)
	// ReadFrame reads one frame into buf and returns the byte count.
	ReadFrame(buf []byte) (int, error)
	Close() error
}

// AudioSource is an open stereo S16LE capture stream.
type AudioSource interface {
	// ReadFrames fills buf with interleaved left/right samples and returns
	// the number of frames read.
	ReadFrames(buf []int16) (int, error)
	Close() error
}

// Host is the runtime that drives ticks and consumes output.
type Host interface {
	PollInput()
	SetPixelFormat(PixelFormat) bool
	// PresentFrame lends buf for the duration of the call only.
	PresentFrame(buf []uint16, width, height, pitch int)
	EmitAudioFrame(left, right int16)
}

// AudioBatchSink is implemented by hosts that accept whole interleaved
// batches instead of one frame at a time.
type AudioBatchSink interface {
	EmitAudioBatch(samples []int16)
}

// ErrReadTimeout marks a frame read that hit the capture guard timeout.
// It is transient like any other read failure.
var ErrReadTimeout = errors.New("frame read timed out")
