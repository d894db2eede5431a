// Package events fans pipeline notifications out to independent observers
// such as the metrics collectors.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Subscribers run on their own goroutines, so publishing never waits for
// them.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case RuntimeEvent:
		event.Publish(b.dispatcher, e)
	case ComponentStateEvent:
		event.Publish(b.dispatcher, e)
	case PortToggledEvent:
		event.Publish(b.dispatcher, e)
	case PortFlushedEvent:
		event.Publish(b.dispatcher, e)
	case PhaseChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler type
// selects the events it receives. Returns an unsubscribe function; unknown
// handler types get a no-op.
//
//	unsub := bus.Subscribe(func(e PhaseChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RuntimeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ComponentStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PortToggledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PortFlushedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PhaseChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

