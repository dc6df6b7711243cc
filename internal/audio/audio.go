// Package audio opens ALSA capture devices as types.AudioSource.
package audio

import "errors"

// ErrUnsupported is returned on platforms without ALSA.
var ErrUnsupported = errors.New("audio capture not supported on this platform")

// Channels is fixed at stereo.
const Channels = 2

// Device describes an ALSA capture device found by List.
type Device struct {
	CardNumber     int      `json:"card_number" example:"1" doc:"ALSA card number"`
	CardName       string   `json:"card_name" example:"USB Audio" doc:"Card long name"`
	DeviceNumber   int      `json:"device_number" example:"0" doc:"PCM device number"`
	DeviceName     string   `json:"device_name" example:"USB Audio" doc:"PCM name"`
	ALSADevice     string   `json:"alsa_device" example:"hw:1,0" doc:"Device string for configuration"`
	SupportedRates []int    `json:"supported_rates,omitempty" doc:"Common sample rates within the hardware range"`
	MinChannels    int      `json:"min_channels,omitempty"`
	MaxChannels    int      `json:"max_channels,omitempty"`
	Formats        []string `json:"formats,omitempty" example:"S16_LE" doc:"Sample formats"`
}

// SupportsStereoS16 reports whether the device can be opened by Open at
// the given rate, as far as the refined hardware ranges tell.
func (d Device) SupportsStereoS16(rate int) bool {
	if d.MinChannels > Channels || (d.MaxChannels != 0 && d.MaxChannels < Channels) {
		return false
	}
	rateOK := len(d.SupportedRates) == 0
	for _, r := range d.SupportedRates {
		if r == rate {
			rateOK = true
			break
		}
	}
	formatOK := len(d.Formats) == 0
	for _, f := range d.Formats {
		if f == "S16_LE" {
			formatOK = true
			break
		}
	}
	return rateOK && formatOK
}
