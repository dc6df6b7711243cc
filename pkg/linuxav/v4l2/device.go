//go:build linux

package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"
)

// ErrNotCaptureDevice is returned by Open when the node cannot capture video.
var ErrNotCaptureDevice = errors.New("not a video capture device")

// Device is an open V4L2 capture device. Frames are read with read() when
// the driver supports it and through mmap streaming otherwise.
type Device struct {
	path      string
	fd        int
	caps      Capability
	streaming bool
	stream    *stream
}

// Open opens the device at path and queries its capabilities.
func Open(path string) (*Device, error) {
	fd, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	cap := v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		close(fd)
		return nil, fmt.Errorf("VIDIOC_QUERYCAP failed on %s: %w", path, err)
	}

	caps := decodeCapability(&cap)
	if !caps.CanCapture() {
		close(fd)
		return nil, fmt.Errorf("%s: %w", path, ErrNotCaptureDevice)
	}

	return &Device{
		path:      path,
		fd:        fd,
		caps:      caps,
		streaming: caps.streamOnly(),
	}, nil
}

// Path returns the device node path.
func (d *Device) Path() string {
	return d.path
}

// Capability returns the capabilities queried at open time.
func (d *Device) Capability() Capability {
	return d.caps
}

// Streaming reports whether frames are captured through mmap streaming.
func (d *Device) Streaming() bool {
	return d.streaming
}

// Close stops any running stream and releases the device file descriptor.
// Calling Close twice is a no-op.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	var errs []error
	if d.stream != nil {
		errs = append(errs, d.stream.queue.release(d.stream.bufs))
		d.stream = nil
	}
	errs = append(errs, close(d.fd))
	d.fd = -1
	return errors.Join(errs...)
}

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		devicePath := "/dev/" + entry.Name()

		fd, err := open(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to open video device", "path", devicePath, "error", err)
			continue
		}

		cap := v4l2Capability{}
		if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
			slog.With("component", "linuxav").Debug("failed to query device capabilities", "path", devicePath, "error", err)
			close(fd)
			continue
		}
		close(fd)

		caps := decodeCapability(&cap)
		if !caps.CanCapture() {
			continue
		}

		indexValue := readSysfsInt(filepath.Join("/sys/class/video4linux", entry.Name(), "index"))

		stableID := findStableID(entry.Name(), indexValue)
		if stableID == "" {
			if strings.HasPrefix(caps.BusInfo, "usb-") {
				stableID = fmt.Sprintf("%s-video-index%d", caps.BusInfo, indexValue)
			} else {
				stableID = fmt.Sprintf("platform-%s-video-index%d", caps.BusInfo, indexValue)
			}
		}

		devices = append(devices, DeviceInfo{
			DevicePath: devicePath,
			DeviceName: caps.Card,
			DeviceID:   stableID,
			Caps:       caps.Caps,
		})
	}

	return devices, nil
}

// GetDevicePathByID finds the device path for a given stable device ID.
func GetDevicePathByID(deviceID string) (string, error) {
	devices, err := FindDevices()
	if err != nil {
		return "", fmt.Errorf("failed to find devices: %w", err)
	}

	for _, device := range devices {
		if device.DeviceID == deviceID {
			return device.DevicePath, nil
		}
	}

	return "", fmt.Errorf("device with ID %s not found", deviceID)
}

func decodeCapability(cap *v4l2Capability) Capability {
	caps := cap.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = cap.deviceCaps
	}
	return Capability{
		Driver:  cstr(cap.driver[:]),
		Card:    cstr(cap.card[:]),
		BusInfo: cstr(cap.busInfo[:]),
		Version: cap.version,
		Caps:    caps,
	}
}

// findStableID looks for a stable ID symlink in /dev/v4l/by-id/
func findStableID(deviceName string, indexValue int) string {
	byIDDir := "/dev/v4l/by-id"
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	expectedSuffix := fmt.Sprintf("-video-index%d", indexValue)

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		target, err := os.Readlink(filepath.Join(byIDDir, entry.Name()))
		if err != nil {
			continue
		}

		if filepath.Base(target) == deviceName && strings.HasSuffix(entry.Name(), expectedSuffix) {
			return entry.Name()
		}
	}

	return ""
}

func readSysfsInt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	val, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return val
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
