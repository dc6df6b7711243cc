//go:build linux

package audio

import (
	"github.com/smazurov/framesource/internal/types"
	"github.com/smazurov/framesource/pkg/linuxav/alsa"
)

// ErrOverrun reports lost samples; the stream keeps running.
var ErrOverrun = alsa.ErrOverrun

// source adapts *alsa.PCM to types.AudioSource.
type source struct {
	pcm *alsa.PCM
}

// Open opens device ("hw:CARD,DEVICE") for stereo S16LE capture at
// sampleRate. The hardware must support the rate exactly.
func Open(device string, sampleRate int) (types.AudioSource, error) {
	pcm, err := alsa.OpenCapture(device, alsa.CaptureConfig{
		Rate:     sampleRate,
		Channels: Channels,
		Format:   alsa.FormatS16LE,
	})
	if err != nil {
		return nil, err
	}
	return &source{pcm: pcm}, nil
}

// ReadFrames reads interleaved stereo frames. An overrun returns zero
// frames with ErrOverrun after the stream has been restarted.
func (s *source) ReadFrames(buf []int16) (int, error) {
	return s.pcm.ReadFrames(buf)
}

func (s *source) Close() error {
	return s.pcm.Close()
}

// List returns the ALSA capture devices on the system.
func List() ([]Device, error) {
	found, err := alsa.ListDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(found))
	for i, d := range found {
		devices[i] = Device{
			CardNumber:     d.CardNumber,
			CardName:       d.CardName,
			DeviceNumber:   d.DeviceNumber,
			DeviceName:     d.DeviceName,
			ALSADevice:     d.ALSADevice,
			SupportedRates: d.SupportedRates,
			MinChannels:    d.MinChannels,
			MaxChannels:    d.MaxChannels,
			Formats:        d.SupportedFormats,
		}
	}
	return devices, nil
}
