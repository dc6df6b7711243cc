//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, format negotiation and read()-based frame capture.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Capture
//
// Open a device, negotiate its format and read frames:
//
//	dev, err := v4l2.Open("/dev/video0")
//	defer dev.Close()
//
//	pix, _ := dev.Format()
//	pix.PixelFormat = v4l2.PixFmtUYVY
//	_ = dev.SetFormat(pix)
//
//	buf := make([]byte, pix.SizeImage)
//	n, err := dev.ReadFrame(buf, time.Second)
//
// # Analog Standards
//
// Capture cards with analog inputs report the active video standard and the
// list of standards they support:
//
//	id, _ := dev.Standard()
//	stds, _ := dev.Standards()
package v4l2
