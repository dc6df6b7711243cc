//go:build linux

package host

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/framesource/internal/events"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/smazurov/framesource/pkg/linuxav/hotplug"
)

// WatchHotplug publishes a DeviceHotplugEvent for every video4linux and
// sound uevent until ctx is cancelled. Removal of a node in use is logged
// as an error; nothing is reopened.
func WatchHotplug(ctx context.Context, bus *events.Bus, nodes DeviceNodes) error {
	mon, err := hotplug.NewMonitor(hotplug.SubsystemVideo4Linux, hotplug.SubsystemSound)
	if err != nil {
		return err
	}
	defer mon.Close()

	logger := logging.GetLogger("hotplug")
	logger.Info("Watching device hotplug", "video", nodes.Video, "audio", nodes.Audio)

	err = mon.Run(ctx, func(e hotplug.Event) {
		node := e.DeviceNode()
		if node == "" {
			return
		}
		inUse := nodes.Contains(node)

		switch {
		case inUse && e.Action == hotplug.ActionRemove:
			logger.Error("Device in use was removed", "device", node, "subsystem", e.Subsystem)
		case inUse:
			logger.Info("Device event", "device", node, "action", e.Action)
		default:
			logger.Debug("Device event", "device", node, "action", e.Action, "subsystem", e.Subsystem)
		}

		bus.Publish(events.DeviceHotplugEvent{
			Action:     e.Action,
			Subsystem:  e.Subsystem,
			DevicePath: node,
			InUse:      inUse,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
