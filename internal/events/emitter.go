package events

import (
	"time"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// Emitter publishes pipeline notifications on a Bus. It implements
// ports.EventEmitter.
type Emitter struct {
	bus *Bus
	now func() time.Time
}

// NewEmitter creates an emitter publishing on bus.
func NewEmitter(bus *Bus) *Emitter {
	return &Emitter{bus: bus, now: time.Now}
}

// OnRuntimeEvent publishes a RuntimeEvent.
func (e *Emitter) OnRuntimeEvent(ev domain.Event) {
	e.bus.Publish(RuntimeEvent{Event: ev, Timestamp: e.now()})
}

// OnComponentState publishes a ComponentStateEvent.
func (e *Emitter) OnComponentState(component string, previous, current domain.State) {
	e.bus.Publish(ComponentStateEvent{
		Component: component,
		Previous:  previous,
		Current:   current,
		Timestamp: e.now(),
	})
}

// OnPortToggled publishes a PortToggledEvent.
func (e *Emitter) OnPortToggled(component string, port uint32, enabled bool) {
	e.bus.Publish(PortToggledEvent{Component: component, Port: port, Enabled: enabled, Timestamp: e.now()})
}

// OnFlushed publishes a PortFlushedEvent.
func (e *Emitter) OnFlushed(component string, port uint32) {
	e.bus.Publish(PortFlushedEvent{Component: component, Port: port, Timestamp: e.now()})
}

// OnPhaseChange publishes a PhaseChangedEvent.
func (e *Emitter) OnPhaseChange(previous, current domain.Phase, reason string) {
	e.bus.Publish(PhaseChangedEvent{
		Previous:  previous,
		Current:   current,
		Reason:    reason,
		Timestamp: e.now(),
	})
}
