//go:build linux

package alsa

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestFormatALSADevice(t *testing.T) {
	tests := []struct {
		card, device int
		want         string
	}{
		{0, 0, "hw:0,0"},
		{1, 0, "hw:1,0"},
		{10, 5, "hw:10,5"},
	}
	for _, tt := range tests {
		if got := FormatALSADevice(tt.card, tt.device); got != tt.want {
			t.Errorf("FormatALSADevice(%d, %d) = %q, want %q", tt.card, tt.device, got, tt.want)
		}
	}
}

func TestFormatALSADeviceRoundTrip(t *testing.T) {
	card, device, err := ParseALSADevice(FormatALSADevice(3, 7))
	if err != nil {
		t.Fatalf("ParseALSADevice: %v", err)
	}
	if card != 3 || device != 7 {
		t.Errorf("got card %d device %d, want 3 and 7", card, device)
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		format int
		want   string
	}{
		{FormatS16LE, "S16_LE"},
		{FormatS24LE, "S24_LE"},
		{FormatFloat64BE, "FLOAT64_BE"},
		{FormatMuLaw, "MU_LAW"},
		{-1, "UNKNOWN"},
		{18, "UNKNOWN"},
		{100, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := FormatName(tt.format); got != tt.want {
			t.Errorf("FormatName(%d) = %q, want %q", tt.format, got, tt.want)
		}
	}
	for _, f := range CommonFormats {
		if FormatName(f) == "UNKNOWN" {
			t.Errorf("probed format %d has no name", f)
		}
	}
}

func TestParseALSADevice(t *testing.T) {
	tests := []struct {
		name       string
		device     string
		wantCard   int
		wantDevice int
		wantErr    bool
	}{
		{name: "card and device", device: "hw:1,0", wantCard: 1, wantDevice: 0},
		{name: "multi digit", device: "hw:12,3", wantCard: 12, wantDevice: 3},
		{name: "card only", device: "hw:2", wantCard: 2, wantDevice: 0},
		{name: "plugin name", device: "default", wantErr: true},
		{name: "plughw is not a raw device", device: "plughw:1,0", wantErr: true},
		{name: "empty", device: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, dev, err := ParseALSADevice(tt.device)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseALSADevice(%q) expected error, got card=%d device=%d", tt.device, card, dev)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseALSADevice(%q) error = %v", tt.device, err)
			}
			if card != tt.wantCard || dev != tt.wantDevice {
				t.Errorf("ParseALSADevice(%q) = (%d, %d), want (%d, %d)",
					tt.device, card, dev, tt.wantCard, tt.wantDevice)
			}
		})
	}
}

func TestPCMCapturePath(t *testing.T) {
	if got := pcmCapturePath(1, 0); got != "/dev/snd/pcmC1D0c" {
		t.Errorf("pcmCapturePath(1, 0) = %q, want /dev/snd/pcmC1D0c", got)
	}
}

func TestHwParamsMaskAndInterval(t *testing.T) {
	hw := sndPCMHwParams{}
	hw.init()

	if !hw.checkMask(sndrvPCMHwParamFormat, FormatS32LE) {
		t.Error("fresh hw params should allow every format")
	}

	hw.setMask(sndrvPCMHwParamFormat, FormatS16LE)
	if !hw.checkMask(sndrvPCMHwParamFormat, FormatS16LE) {
		t.Error("S16_LE should be set after setMask")
	}
	if hw.checkMask(sndrvPCMHwParamFormat, FormatS32LE) {
		t.Error("S32_LE should be cleared after setMask(S16_LE)")
	}

	minVal, maxVal := hw.getInterval(sndrvPCMHwParamRate)
	if minVal != 0 || maxVal != 0xFFFFFFFF {
		t.Errorf("fresh rate interval = [%d, %d], want [0, max]", minVal, maxVal)
	}

	hw.setInterval(sndrvPCMHwParamRate, 48000)
	minVal, maxVal = hw.getInterval(sndrvPCMHwParamRate)
	if minVal != 48000 || maxVal != 48000 {
		t.Errorf("rate interval = [%d, %d], want [48000, 48000]", minVal, maxVal)
	}
	if bit := hw.intervals[sndrvPCMHwParamRate-sndrvPCMHwParamFirstInterval].bit; bit != intervalInteger {
		t.Errorf("rate interval bit = %b, want integer flag %b", bit, intervalInteger)
	}
}

func TestOpenCaptureRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		device string
		cfg    CaptureConfig
	}{
		{name: "zero channels", device: "hw:0,0", cfg: CaptureConfig{Rate: 48000, Channels: 0, Format: FormatS16LE}},
		{name: "zero rate", device: "hw:0,0", cfg: CaptureConfig{Rate: 0, Channels: 2, Format: FormatS16LE}},
		{name: "float samples", device: "hw:0,0", cfg: CaptureConfig{Rate: 48000, Channels: 2, Format: FormatFloatLE}},
		{name: "non hw device", device: "default", cfg: CaptureConfig{Rate: 48000, Channels: 2, Format: FormatS16LE}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := OpenCapture(tt.device, tt.cfg)
			if err == nil {
				_ = pcm.Close()
				t.Fatal("OpenCapture() expected error")
			}
		})
	}
}

func TestClosedPCM(t *testing.T) {
	pcm := &PCM{device: "hw:9,9", fd: -1, channels: 2}

	if err := pcm.Close(); err != nil {
		t.Errorf("Close() on closed PCM = %v, want nil", err)
	}
	if _, err := pcm.ReadFrames(make([]int16, 64)); !errors.Is(err, unix.EBADF) {
		t.Errorf("ReadFrames() on closed PCM error = %v, want EBADF", err)
	}
}
