package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/framesource/internal/events"
)

// registerSSERoutes streams session lifecycle, read failures and hotplug
// events. Per-frame and audio events are left to /metrics.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time session, capture failure and device hotplug events",
		Tags:        []string{"events"},
	}, map[string]any{
		"session-loaded":      events.SessionLoadedEvent{},
		"session-unloaded":    events.SessionUnloadedEvent{},
		"session-load-failed": events.SessionLoadFailedEvent{},
		"frame-read-failed":   events.FrameReadFailedEvent{},
		"device-hotplug":      events.DeviceHotplugEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		bus := s.opts.EventBus
		if bus == nil {
			return
		}

		eventCh := make(chan events.Event, 16)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.SessionLoadedEvent](bus, eventCh),
			events.SubscribeToChannel[events.SessionUnloadedEvent](bus, eventCh),
			events.SubscribeToChannel[events.SessionLoadFailedEvent](bus, eventCh),
			events.SubscribeToChannel[events.FrameReadFailedEvent](bus, eventCh),
			events.SubscribeToChannel[events.DeviceHotplugEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
