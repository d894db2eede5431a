package events

import (
	"time"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// Event type constants for kelindar/event.
const (
	TypeRuntimeEvent uint32 = iota + 1
	TypeComponentState
	TypePortToggled
	TypePortFlushed
	TypePhaseChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RuntimeEvent is a notification delivered by the component runtime.
type RuntimeEvent struct {
	Event     domain.Event
	Timestamp time.Time
}

// Type returns the event type identifier for RuntimeEvent.
func (e RuntimeEvent) Type() uint32 { return TypeRuntimeEvent }

// ComponentStateEvent reports a confirmed component state change.
type ComponentStateEvent struct {
	Component string
	Previous  domain.State
	Current   domain.State
	Timestamp time.Time
}

// Type returns the event type identifier for ComponentStateEvent.
func (e ComponentStateEvent) Type() uint32 { return TypeComponentState }

// PortToggledEvent reports a confirmed port enable or disable.
type PortToggledEvent struct {
	Component string
	Port      uint32
	Enabled   bool
	Timestamp time.Time
}

// Type returns the event type identifier for PortToggledEvent.
func (e PortToggledEvent) Type() uint32 { return TypePortToggled }

// PortFlushedEvent reports a confirmed port flush.
type PortFlushedEvent struct {
	Component string
	Port      uint32
	Timestamp time.Time
}

// Type returns the event type identifier for PortFlushedEvent.
func (e PortFlushedEvent) Type() uint32 { return TypePortFlushed }

// PhaseChangedEvent reports a pipeline phase change.
type PhaseChangedEvent struct {
	Previous  domain.Phase
	Current   domain.Phase
	Reason    string
	Timestamp time.Time
}

// Type returns the event type identifier for PhaseChangedEvent.
func (e PhaseChangedEvent) Type() uint32 { return TypePhaseChanged }
