package ports

import "github.com/bft-labs/rpicamview/internal/domain"

// EventEmitter is notified of everything observable the pipeline does.
// Implementations must not block.
type EventEmitter interface {
	OnRuntimeEvent(ev domain.Event)
	OnComponentState(component string, previous, current domain.State)
	OnPortToggled(component string, port uint32, enabled bool)
	OnFlushed(component string, port uint32)
	OnPhaseChange(previous, current domain.Phase, reason string)
}
