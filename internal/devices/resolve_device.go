package devices

import (
	"fmt"
	"os"
	"strings"
)

// ResolveDevicePath turns a configured device into a node path. Paths under
// /dev are returned as is; anything else is looked up as a stable ID in
// /dev/v4l/by-id and then /dev/v4l/by-path.
func ResolveDevicePath(device string) (string, error) {
	if device == "" {
		return "", fmt.Errorf("no capture device configured")
	}
	if strings.HasPrefix(device, "/dev/") {
		return device, nil
	}

	for _, dir := range []string{"/dev/v4l/by-id/", "/dev/v4l/by-path/"} {
		devicePath := dir + device
		if _, err := os.Stat(devicePath); err == nil {
			return devicePath, nil
		}
	}

	return "", fmt.Errorf("no stable symlink found for device ID: %s", device)
}
