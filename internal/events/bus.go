package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Subscribers run on the dispatcher's goroutines, never on the publisher's.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers. A nil bus drops the event.
// Usage: bus.Publish(SessionLoadedEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case SessionLoadedEvent:
		event.Publish(b.dispatcher, e)
	case SessionUnloadedEvent:
		event.Publish(b.dispatcher, e)
	case SessionLoadFailedEvent:
		event.Publish(b.dispatcher, e)
	case FramePresentedEvent:
		event.Publish(b.dispatcher, e)
	case FrameReadFailedEvent:
		event.Publish(b.dispatcher, e)
	case AudioBatchEvent:
		event.Publish(b.dispatcher, e)
	case DeviceHotplugEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e FrameReadFailedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SessionLoadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionUnloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionLoadFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FramePresentedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameReadFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AudioBatchEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceHotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unknown handler types get a no-op unsubscribe
		return func() {}
	}
}

// Close stops the dispatcher. Pending deliveries may be dropped.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
