package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch without blocking.
// Events are dropped while ch is full, so a slow reader never stalls the
// capture loop.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- Event) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
