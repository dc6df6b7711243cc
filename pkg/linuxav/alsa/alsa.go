//go:build linux

// Package alsa provides pure Go bindings to the ALSA (Advanced Linux Sound Architecture)
// kernel interface for capture device enumeration and interleaved PCM capture.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use ListDevices to discover all ALSA audio capture devices:
//
//	devices, err := alsa.ListDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s (%s)\n", dev.ALSADevice, dev.DeviceName, dev.CardName)
//	}
//
// # Capture
//
// Open a hw device for interleaved signed 16-bit stereo capture:
//
//	pcm, err := alsa.OpenCapture("hw:1,0", alsa.CaptureConfig{Rate: 48000, Channels: 2, Format: alsa.FormatS16LE})
//	defer pcm.Close()
//
//	buf := make([]int16, 64) // 32 stereo frames
//	frames, err := pcm.ReadFrames(buf)
package alsa
