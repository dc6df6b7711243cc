//go:build !linux

package host

import (
	"context"
	"errors"

	"github.com/smazurov/framesource/internal/events"
)

// WatchHotplug is unavailable without netlink.
func WatchHotplug(context.Context, *events.Bus, DeviceNodes) error {
	return errors.New("hotplug monitoring not supported on this platform")
}
