// Package negotiate settles the capture format of a video device before a
// session starts.
package negotiate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/types"
)

var (
	// ErrQueryFailed means the device could not report its format or standard.
	ErrQueryFailed = errors.New("device query failed")
	// ErrFormatRejected means the device refused or altered the requested
	// encoding, or reported geometry that cannot be captured.
	ErrFormatRejected = errors.New("pixel format rejected")
	// ErrStandardNotFound means the active video standard is missing from
	// the device's own list of supported standards.
	ErrStandardNotFound = errors.New("active video standard not enumerated")
)

// Options control negotiation.
type Options struct {
	Encoding types.Encoding
	// SetFormat requests Encoding from the device. When false the device
	// must already be configured for it.
	SetFormat bool
	Logger    logging.Logger
}

// Negotiate queries dev and returns the format a session should capture in.
// It only reads device state, apart from the optional format request, so
// repeated calls against an unchanged device return the same result.
func Negotiate(dev types.CaptureDevice, opts Options) (types.CaptureFormat, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("negotiate")
	}

	bpp := opts.Encoding.BytesPerPixel()
	if bpp == 0 {
		return types.CaptureFormat{}, fmt.Errorf("%w: unknown encoding %v", ErrFormatRejected, opts.Encoding)
	}

	pix, err := dev.Format()
	if err != nil {
		return types.CaptureFormat{}, fmt.Errorf("%w: get format: %w", ErrQueryFailed, err)
	}

	want := opts.Encoding.FourCC()
	if opts.SetFormat {
		req := pix
		req.PixelFormat = want
		req.BytesPerLine = 0
		req.SizeImage = 0
		if err := dev.SetFormat(req); err != nil {
			return types.CaptureFormat{}, fmt.Errorf("%w: set %s: %w", ErrFormatRejected, opts.Encoding, err)
		}
		if pix, err = dev.Format(); err != nil {
			return types.CaptureFormat{}, fmt.Errorf("%w: %w", ErrFormatRejected, err)
		}
	}
	if pix.PixelFormat != want {
		return types.CaptureFormat{}, fmt.Errorf("%w: device is using %s, want %s",
			ErrFormatRejected, fourcc(pix.PixelFormat), fourcc(want))
	}

	if err := checkGeometry(pix, opts.Encoding); err != nil {
		return types.CaptureFormat{}, err
	}

	if err := matchStandard(dev, logger); err != nil {
		return types.CaptureFormat{}, err
	}

	aspect, err := dev.PixelAspect()
	if err != nil || aspect.IsZero() {
		aspect = types.Square
	}

	format := types.NewCaptureFormat(pix.Width, pix.Height, opts.Encoding, aspect)
	logger.Info("Negotiated capture format",
		"width", format.Width,
		"height", format.Height,
		"encoding", format.Encoding.String(),
		"frame_size", format.FrameSize,
		"pixel_aspect", format.PixelAspect.String())
	return format, nil
}

func checkGeometry(pix types.PixFormat, enc types.Encoding) error {
	if pix.Width == 0 || pix.Height == 0 {
		return fmt.Errorf("%w: empty geometry %dx%d", ErrFormatRejected, pix.Width, pix.Height)
	}
	if enc == types.EncodingUYVY && pix.Width%2 != 0 {
		return fmt.Errorf("%w: odd width %d for 4:2:2 capture", ErrFormatRejected, pix.Width)
	}
	stride := pix.Width * uint32(enc.BytesPerPixel())
	if pix.BytesPerLine != 0 && pix.BytesPerLine != stride {
		return fmt.Errorf("%w: padded rows (%d bytes per line, want %d)", ErrFormatRejected, pix.BytesPerLine, stride)
	}
	return nil
}

func matchStandard(dev types.CaptureDevice, logger logging.Logger) error {
	current, err := dev.Standard()
	if errors.Is(err, types.ErrStandardsUnsupported) {
		logger.Debug("Device has no video standards, skipping match")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: get standard: %w", ErrQueryFailed, err)
	}

	standards, err := dev.Standards()
	if err != nil && !errors.Is(err, types.ErrStandardsUnsupported) {
		return fmt.Errorf("%w: enumerate standards: %w", ErrQueryFailed, err)
	}

	var found *types.Standard
	for i := range standards {
		s := &standards[i]
		active := s.ID == current
		logger.Debug("Video standard", "index", s.Index, "name", s.Name, "id", fmt.Sprintf("%#x", uint64(s.ID)), "active", active)
		if active && found == nil {
			found = s
		}
	}
	if found == nil {
		return fmt.Errorf("%w: id %#x among %d standards", ErrStandardNotFound, uint64(current), len(standards))
	}

	logger.Info("Using video standard", slog.String("name", found.Name))
	return nil
}

func fourcc(code uint32) string {
	b := []byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
	return string(b)
}
