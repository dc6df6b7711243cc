//go:build linux

package hotplug

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected *Event
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: nil,
		},
		{
			name:     "no @ separator",
			input:    []byte("invalid"),
			expected: nil,
		},
		{
			name:     "missing action",
			input:    []byte("@/devices/foo"),
			expected: nil,
		},
		{
			name:     "libudev rebroadcast is ignored",
			input:    []byte("libudev\x00\xfe\xed\xca\xfeadd@/devices/video0\x00"),
			expected: nil,
		},
		{
			name:  "capture card removed",
			input: []byte("remove@/devices/pci0000:00/0000:03:00.0/video4linux/video0\x00ACTION=remove\x00SUBSYSTEM=video4linux\x00DEVNAME=video0\x00MAJOR=81\x00"),
			expected: &Event{
				Action:    "remove",
				KObj:      "/devices/pci0000:00/0000:03:00.0/video4linux/video0",
				Subsystem: "video4linux",
				DevName:   "video0",
				Env: map[string]string{
					"ACTION":    "remove",
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "video0",
					"MAJOR":     "81",
				},
			},
		},
		{
			name:  "pcm device added",
			input: []byte("add@/devices/usb1/1-1/sound/card1/pcmC1D0c\x00SUBSYSTEM=sound\x00DEVNAME=snd/pcmC1D0c\x00"),
			expected: &Event{
				Action:    "add",
				KObj:      "/devices/usb1/1-1/sound/card1/pcmC1D0c",
				Subsystem: "sound",
				DevName:   "snd/pcmC1D0c",
				Env: map[string]string{
					"SUBSYSTEM": "sound",
					"DEVNAME":   "snd/pcmC1D0c",
				},
			},
		},
		{
			name:  "value containing equals",
			input: []byte("change@/dev/foo\x00KEY=val=ue\x00=novalue\x00junk\x00"),
			expected: &Event{
				Action: "change",
				KObj:   "/dev/foo",
				Env:    map[string]string{"KEY": "val=ue"},
			},
		},
		{
			name:  "very long path",
			input: []byte("add@/devices/" + strings.Repeat("a", 500) + "\x00"),
			expected: &Event{
				Action: "add",
				KObj:   "/devices/" + strings.Repeat("a", 500),
				Env:    map[string]string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUEvent(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseUEvent() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestEventDeviceNode(t *testing.T) {
	tests := []struct {
		devName string
		want    string
	}{
		{"video0", "/dev/video0"},
		{"snd/pcmC1D0c", "/dev/snd/pcmC1D0c"},
		{"/dev/video2", "/dev/video2"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := (Event{DevName: tt.devName}).DeviceNode(); got != tt.want {
			t.Errorf("DeviceNode(%q) = %q, want %q", tt.devName, got, tt.want)
		}
	}
}

func TestMonitorAccepts(t *testing.T) {
	all := &Monitor{subsystems: map[string]struct{}{}}
	if !all.accepts(&Event{Subsystem: "usb"}) {
		t.Error("monitor without filters should accept every subsystem")
	}

	filtered := &Monitor{subsystems: map[string]struct{}{
		SubsystemVideo4Linux: {},
		SubsystemSound:       {},
	}}
	if !filtered.accepts(&Event{Subsystem: SubsystemVideo4Linux}) {
		t.Error("video4linux event should pass the filter")
	}
	if !filtered.accepts(&Event{Subsystem: SubsystemSound}) {
		t.Error("sound event should pass the filter")
	}
	if filtered.accepts(&Event{Subsystem: "block"}) {
		t.Error("block event should be filtered out")
	}
}
