//go:build linux

package devices

import (
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/internal/types"
	"github.com/smazurov/framesource/pkg/linuxav/v4l2"
)

// captureDevice adapts *v4l2.Device to types.CaptureDevice.
type captureDevice struct {
	dev     *v4l2.Device
	info    types.DeviceInfo
	timeout time.Duration
}

// Open opens a V4L2 capture node that supports read() or streaming I/O.
// path may be a /dev node or a stable ID from /dev/v4l/by-id or by-path.
func Open(path string, opts Options) (types.CaptureDevice, error) {
	resolved, err := ResolveDevicePath(path)
	if err != nil {
		return nil, err
	}

	dev, err := v4l2.Open(resolved)
	if err != nil {
		return nil, err
	}

	caps := dev.Capability()
	if err := checkIO(caps); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}
	if dev.Streaming() {
		logging.GetLogger("capture").Info("Device lacks read() support, capturing through mmap streaming", "device", resolved)
	}

	timeout := opts.ReadTimeout
	switch {
	case timeout == 0:
		timeout = DefaultReadTimeout
	case timeout < 0:
		timeout = 0
	}

	return &captureDevice{
		dev: dev,
		info: types.DeviceInfo{
			Path:    resolved,
			Driver:  caps.Driver,
			Card:    caps.Card,
			BusInfo: caps.BusInfo,
			Version: caps.VersionString(),
		},
		timeout: timeout,
	}, nil
}

// ErrNoCaptureIO is returned when a node supports neither read() nor
// streaming I/O.
var ErrNoCaptureIO = errors.New("device supports neither read() nor streaming I/O")

func checkIO(caps v4l2.Capability) error {
	if !caps.CanRead() && !caps.CanStream() {
		return ErrNoCaptureIO
	}
	return nil
}

func (c *captureDevice) Info() types.DeviceInfo {
	return c.info
}

func (c *captureDevice) Format() (types.PixFormat, error) {
	pix, err := c.dev.Format()
	if err != nil {
		return types.PixFormat{}, err
	}
	return types.PixFormat{
		Width:        pix.Width,
		Height:       pix.Height,
		PixelFormat:  pix.PixelFormat,
		BytesPerLine: pix.BytesPerLine,
		SizeImage:    pix.SizeImage,
	}, nil
}

func (c *captureDevice) SetFormat(f types.PixFormat) error {
	return c.dev.SetFormat(v4l2.PixFormat{
		Width:        f.Width,
		Height:       f.Height,
		PixelFormat:  f.PixelFormat,
		BytesPerLine: f.BytesPerLine,
		SizeImage:    f.SizeImage,
	})
}

func (c *captureDevice) Standard() (types.StandardID, error) {
	id, err := c.dev.Standard()
	if errors.Is(err, v4l2.ErrStandardsNotSupported) {
		return 0, fmt.Errorf("%w: %w", types.ErrStandardsUnsupported, err)
	}
	return types.StandardID(id), err
}

func (c *captureDevice) Standards() ([]types.Standard, error) {
	stds, err := c.dev.Standards()
	if errors.Is(err, v4l2.ErrStandardsNotSupported) {
		return nil, fmt.Errorf("%w: %w", types.ErrStandardsUnsupported, err)
	}
	if err != nil {
		return nil, err
	}

	out := make([]types.Standard, len(stds))
	for i, s := range stds {
		out[i] = types.Standard{Index: s.Index, Name: s.Name, ID: types.StandardID(s.ID)}
	}
	return out, nil
}

// PixelAspect converts the kernel's y/x pixel aspect into width:height.
func (c *captureDevice) PixelAspect() (types.Rational, error) {
	cc, err := c.dev.CropCap()
	if err != nil {
		return types.Rational{}, err
	}
	return pixelAspect(cc.PixelAspect), nil
}

func pixelAspect(f v4l2.Fract) types.Rational {
	return types.Rational{Num: f.Denominator, Den: f.Numerator}
}

func (c *captureDevice) ReadFrame(buf []byte) (int, error) {
	n, err := c.dev.ReadFrame(buf, c.timeout)
	if errors.Is(err, v4l2.ErrReadTimeout) {
		return n, fmt.Errorf("%w after %s", types.ErrReadTimeout, c.timeout)
	}
	return n, err
}

func (c *captureDevice) Close() error {
	return c.dev.Close()
}

// List returns the capture devices on the system.
func List() ([]DeviceInfo, error) {
	found, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, len(found))
	for i, d := range found {
		devices[i] = DeviceInfo{
			DevicePath: d.DevicePath,
			DeviceName: d.DeviceName,
			DeviceID:   d.DeviceID,
			Caps:       d.Caps,
		}
	}
	return devices, nil
}

// Formats lists the pixel formats of the device at path.
func Formats(path string) ([]FormatInfo, error) {
	resolved, err := ResolveDevicePath(path)
	if err != nil {
		return nil, err
	}

	dev, err := v4l2.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	found, err := dev.Formats()
	if err != nil {
		return nil, err
	}

	formats := make([]FormatInfo, len(found))
	for i, f := range found {
		formats[i] = FormatInfo{
			FourCC:      v4l2.FormatFourCC(f.PixelFormat),
			Description: f.FormatName,
			Emulated:    f.Emulated,
		}
	}
	return formats, nil
}
