// Package session owns the buffers of one capture session and runs the
// per-tick capture loop.
//
// A Session is created by Load with its device and host bound for its whole
// lifetime. It is not safe for concurrent use: the host calls Tick from a
// single goroutine.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/frameconv"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/negotiate"
	"github.com/smazurov/framesource/internal/types"
)

var (
	// ErrNegotiationFailed wraps the negotiator's error.
	ErrNegotiationFailed = errors.New("format negotiation failed")
	// ErrAllocationFailed means the frame buffers could not be sized or allocated.
	ErrAllocationFailed = errors.New("frame buffer allocation failed")
	// ErrPixelFormatRejected means the host refused RGB565 output.
	ErrPixelFormatRejected = errors.New("host rejected RGB565 pixel format")
)

// DefaultMaxFrameBytes bounds the raw buffer when Options.MaxFrameBytes is zero.
const DefaultMaxFrameBytes = 64 << 20

// warnEvery is how many consecutive failed or short reads pass between
// warnings.
const warnEvery = 60

// Options configure Load.
type Options struct {
	Encoding      types.Encoding
	SetFormat     bool
	MaxFrameBytes int
	Logger        *slog.Logger
	Events        *events.Bus
}

// Session holds the negotiated format and the paired raw/display buffers.
type Session struct {
	dev    types.CaptureDevice
	host   types.Host
	format types.CaptureFormat
	conv   frameconv.Converter

	raw     []byte
	display []uint16

	logger   *slog.Logger
	bus      *events.Bus
	failures int
	short    int
	frames   uint64
}

// Load negotiates the device format, allocates both frame buffers and
// switches the host to RGB565. On any failure nothing is retained and the
// returned session is nil.
func Load(dev types.CaptureDevice, host types.Host, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("session")
	}
	devPath := dev.Info().Path

	fail := func(reason string, err error) (*Session, error) {
		logger.Error("Session load failed", "device", devPath, "reason", reason, "error", err)
		opts.Events.Publish(events.SessionLoadFailedEvent{
			DevicePath: devPath,
			Reason:     reason,
			Error:      err.Error(),
			Timestamp:  time.Now().Format(time.RFC3339),
		})
		return nil, err
	}

	format, err := negotiate.Negotiate(dev, negotiate.Options{
		Encoding:  opts.Encoding,
		SetFormat: opts.SetFormat,
		Logger:    logging.GetLogger("negotiate"),
	})
	if err != nil {
		return fail("negotiation", fmt.Errorf("%w: %w", ErrNegotiationFailed, err))
	}

	conv, err := frameconv.ForEncoding(format.Encoding)
	if err != nil {
		return fail("negotiation", fmt.Errorf("%w: %w", ErrNegotiationFailed, err))
	}

	raw, display, err := allocate(format, opts.MaxFrameBytes)
	if err != nil {
		return fail("allocation", err)
	}

	if !host.SetPixelFormat(types.PixelFormatRGB565) {
		return fail("pixel_format", ErrPixelFormatRejected)
	}

	s := &Session{
		dev:     dev,
		host:    host,
		format:  format,
		conv:    conv,
		raw:     raw,
		display: display,
		logger:  logger.With("device", devPath),
		bus:     opts.Events,
	}

	s.logger.Info("Session loaded",
		"width", format.Width,
		"height", format.Height,
		"encoding", format.Encoding.String(),
		"frame_size", format.FrameSize)
	s.bus.Publish(events.SessionLoadedEvent{
		DevicePath:  devPath,
		Width:       format.Width,
		Height:      format.Height,
		Encoding:    format.Encoding.String(),
		FrameSize:   format.FrameSize,
		AspectRatio: format.DisplayAspect(),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	return s, nil
}

// allocate returns zeroed raw and display buffers for format.
func allocate(format types.CaptureFormat, limit int) ([]byte, []uint16, error) {
	if limit <= 0 {
		limit = DefaultMaxFrameBytes
	}

	rawSize := int(format.FrameSize)
	pixels := format.Pixels()
	if rawSize == 0 || pixels == 0 {
		return nil, nil, fmt.Errorf("%w: empty frame %dx%d", ErrAllocationFailed, format.Width, format.Height)
	}
	if rawSize != pixels*format.Encoding.BytesPerPixel() {
		return nil, nil, fmt.Errorf("%w: frame size %d does not match %dx%d %s",
			ErrAllocationFailed, rawSize, format.Width, format.Height, format.Encoding)
	}
	if rawSize > limit || pixels*2 > limit {
		return nil, nil, fmt.Errorf("%w: %d byte frame exceeds limit of %d", ErrAllocationFailed, rawSize, limit)
	}

	return make([]byte, rawSize), make([]uint16, pixels), nil
}

// Format returns the negotiated capture format.
func (s *Session) Format() types.CaptureFormat {
	return s.format
}

// Loaded reports whether the session still holds its buffers.
func (s *Session) Loaded() bool {
	return s != nil && s.raw != nil
}

// Frames returns the number of frames presented so far.
func (s *Session) Frames() uint64 {
	return s.frames
}

// Tick reads one frame, converts it and presents it to the host.
//
// A failed read keeps both buffers untouched, so the previous picture is
// presented again. A short read converts whatever the raw buffer holds.
// Read errors never leave Tick.
func (s *Session) Tick() {
	if !s.Loaded() {
		return
	}

	fresh := true
	n, err := s.dev.ReadFrame(s.raw)
	switch {
	case err != nil:
		fresh = false
		s.readFailed(err)
	case n < len(s.raw):
		s.recovered()
		s.shortRead(n)
	default:
		s.recovered()
		if s.short > 0 {
			s.logger.Info("Full frame reads resumed", "short_reads", s.short)
			s.short = 0
		}
	}

	if fresh {
		s.conv.Convert(s.raw, s.display)
	}

	w := int(s.format.Width)
	s.host.PresentFrame(s.display, w, int(s.format.Height), w*2)
	s.frames++
	s.bus.Publish(events.FramePresentedEvent{Fresh: fresh})
}

func (s *Session) readFailed(err error) {
	s.failures++
	timeout := errors.Is(err, types.ErrReadTimeout)

	if s.failures == 1 || s.failures%warnEvery == 0 {
		s.logger.Warn("Frame read failed, holding previous frame",
			"error", err,
			"consecutive", s.failures,
			"timeout", timeout)
	}

	s.bus.Publish(events.FrameReadFailedEvent{
		DevicePath:  s.dev.Info().Path,
		Error:       err.Error(),
		Consecutive: s.failures,
		Timeout:     timeout,
	})
}

func (s *Session) shortRead(n int) {
	s.short++
	if s.short == 1 || s.short%warnEvery == 0 {
		s.logger.Warn("Short frame read, rest of the frame is from the previous read",
			"bytes", n,
			"expected", len(s.raw),
			"consecutive", s.short)
	}
}

func (s *Session) recovered() {
	if s.failures > 0 {
		s.logger.Info("Frame reads recovered", "failed_reads", s.failures)
		s.failures = 0
	}
}

// Unload releases both buffers. Calling it again, or on a nil session, is a no-op.
func (s *Session) Unload() {
	if !s.Loaded() {
		return
	}

	s.raw = nil
	s.display = nil

	s.logger.Info("Session unloaded", "frames", s.frames)
	s.bus.Publish(events.SessionUnloadedEvent{
		DevicePath: s.dev.Info().Path,
		Frames:     s.frames,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}
