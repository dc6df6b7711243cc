//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrOverrun is returned by ReadFrames after the capture buffer overflowed.
// The stream has already been re-prepared; the next read continues capture.
var ErrOverrun = errors.New("capture overrun")

// ErrRateMismatch is returned by OpenCapture when the hardware settles on a
// sample rate other than the one requested.
var ErrRateMismatch = errors.New("sample rate not supported")

// CaptureConfig describes the requested PCM stream.
type CaptureConfig struct {
	Rate     int
	Channels int
	Format   int // one of the Format* constants
}

// PCM is an open interleaved capture stream.
type PCM struct {
	device   string
	fd       int
	channels int
	rate     int
}

// OpenCapture opens alsaDevice ("hw:CARD,DEVICE") for blocking interleaved
// capture and applies the hardware parameters in cfg.
func OpenCapture(alsaDevice string, cfg CaptureConfig) (*PCM, error) {
	if cfg.Channels <= 0 || cfg.Rate <= 0 {
		return nil, fmt.Errorf("invalid capture config: %d channels at %d Hz", cfg.Channels, cfg.Rate)
	}
	if cfg.Format != FormatS16LE {
		return nil, fmt.Errorf("unsupported sample format %s", FormatName(cfg.Format))
	}

	cardNum, devNum, err := ParseALSADevice(alsaDevice)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(pcmCapturePath(cardNum, devNum), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", alsaDevice, err)
	}

	hw := sndPCMHwParams{}
	hw.init()
	hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)
	hw.setMask(sndrvPCMHwParamFormat, uint32(cfg.Format))
	hw.setInterval(sndrvPCMHwParamChannels, uint32(cfg.Channels))
	hw.setInterval(sndrvPCMHwParamRate, uint32(cfg.Rate))

	if err := ioctl(fd, sndrvPCMIoctlHwParams, unsafe.Pointer(&hw)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("couldn't set hw params on %s: %w", alsaDevice, err)
	}

	if rate, _ := hw.getInterval(sndrvPCMHwParamRate); rate != uint32(cfg.Rate) {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: requested %d, hardware returned %d", ErrRateMismatch, cfg.Rate, rate)
	}

	if err := ioctl(fd, sndrvPCMIoctlPrepare, nil); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("couldn't prepare %s: %w", alsaDevice, err)
	}

	return &PCM{
		device:   alsaDevice,
		fd:       fd,
		channels: cfg.Channels,
		rate:     cfg.Rate,
	}, nil
}

// Device returns the ALSA device string the stream was opened on.
func (p *PCM) Device() string {
	return p.device
}

// Rate returns the negotiated sample rate.
func (p *PCM) Rate() int {
	return p.rate
}

// ReadFrames reads up to len(buf)/channels interleaved frames into buf and
// returns the number of frames read. It blocks until at least one period
// of audio is available.
func (p *PCM) ReadFrames(buf []int16) (int, error) {
	if p.fd < 0 {
		return 0, unix.EBADF
	}
	frames := len(buf) / p.channels
	if frames == 0 {
		return 0, nil
	}

	xfer := newXferi(unsafe.Pointer(&buf[0]), frames)
	err := ioctl(p.fd, sndrvPCMIoctlReadiFrames, unsafe.Pointer(&xfer))
	runtime.KeepAlive(buf)
	if err != nil {
		if errors.Is(err, unix.EPIPE) {
			if prepErr := ioctl(p.fd, sndrvPCMIoctlPrepare, nil); prepErr != nil {
				return 0, fmt.Errorf("overrun recovery failed: %w", prepErr)
			}
			return 0, ErrOverrun
		}
		return 0, fmt.Errorf("read failed: %w", err)
	}

	return int(xfer.result), nil
}

// Close stops the stream and releases the device. Calling Close twice is a no-op.
func (p *PCM) Close() error {
	if p.fd < 0 {
		return nil
	}
	_ = ioctl(p.fd, sndrvPCMIoctlDrop, nil)
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}
