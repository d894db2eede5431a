package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Lifecycle tracks the phase of the whole pipeline.
//
//	Unconfigured -> Configuring -> Streaming -> TearingDown -> Released
//
// Any phase except Released may move to Failed; Failed is terminal.
type Lifecycle struct {
	mu      sync.RWMutex
	phase   domain.Phase
	logger  ports.Logger
	emitter ports.EventEmitter
}

// NewLifecycle creates a phase tracker in PhaseUnconfigured.
func NewLifecycle(logger ports.Logger, emitter ports.EventEmitter) *Lifecycle {
	return &Lifecycle{
		phase:   domain.PhaseUnconfigured,
		logger:  logger,
		emitter: emitter,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() domain.Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// TransitionTo attempts to move to a new phase.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(next domain.Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase

	var ok bool
	switch prev {
	case domain.PhaseUnconfigured:
		ok = next == domain.PhaseConfiguring || next == domain.PhaseFailed
	case domain.PhaseConfiguring:
		ok = next == domain.PhaseStreaming || next == domain.PhaseFailed
	case domain.PhaseStreaming:
		ok = next == domain.PhaseTearingDown || next == domain.PhaseFailed
	case domain.PhaseTearingDown:
		ok = next == domain.PhaseReleased || next == domain.PhaseFailed
	}
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: pipeline %s -> %s", domain.ErrInvalidTransition, prev, next)
	}

	l.phase = next
	l.mu.Unlock()

	// Emit event outside of lock
	if l.emitter != nil {
		l.emitter.OnPhaseChange(prev, next, reason)
	}

	l.logger.Info("pipeline phase",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

// Fail moves the pipeline to PhaseFailed unless it already ended.
func (l *Lifecycle) Fail(err error) {
	switch l.Phase() {
	case domain.PhaseReleased, domain.PhaseFailed:
		return
	}
	_ = l.TransitionTo(domain.PhaseFailed, err.Error())
}
