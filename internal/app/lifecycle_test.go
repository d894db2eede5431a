package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter records everything the pipeline reports.
type mockEmitter struct {
	mu      sync.Mutex
	phases  []phaseChangeEvent
	states  []string
	toggles int
	flushes []uint32
	runtime []domain.Event
}

type phaseChangeEvent struct {
	previous domain.Phase
	current  domain.Phase
	reason   string
}

func (m *mockEmitter) OnRuntimeEvent(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runtime = append(m.runtime, ev)
}

func (m *mockEmitter) OnComponentState(component string, previous, current domain.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, component+":"+current.String())
}

func (m *mockEmitter) OnPortToggled(component string, port uint32, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles++
}

func (m *mockEmitter) OnFlushed(component string, port uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes = append(m.flushes, port)
}

func (m *mockEmitter) OnPhaseChange(previous, current domain.Phase, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases = append(m.phases, phaseChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Phases() []phaseChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]phaseChangeEvent{}, m.phases...)
}

func (m *mockEmitter) States() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.states...)
}

func (m *mockEmitter) Flushes() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32{}, m.flushes...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.Phase() != domain.PhaseUnconfigured {
		t.Errorf("initial phase = %v, want Unconfigured", l.Phase())
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.Phase
		to   domain.Phase
	}{
		{"unconfigured to configuring", domain.PhaseUnconfigured, domain.PhaseConfiguring},
		{"configuring to streaming", domain.PhaseConfiguring, domain.PhaseStreaming},
		{"configuring to failed", domain.PhaseConfiguring, domain.PhaseFailed},
		{"streaming to tearing down", domain.PhaseStreaming, domain.PhaseTearingDown},
		{"streaming to failed", domain.PhaseStreaming, domain.PhaseFailed},
		{"tearing down to released", domain.PhaseTearingDown, domain.PhaseReleased},
		{"tearing down to failed", domain.PhaseTearingDown, domain.PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.phase = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Fatalf("TransitionTo() error = %v", err)
			}
			if l.Phase() != tt.to {
				t.Errorf("phase = %v after transition, want %v", l.Phase(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.Phase
		to   domain.Phase
	}{
		{"unconfigured to streaming", domain.PhaseUnconfigured, domain.PhaseStreaming},
		{"configuring to tearing down", domain.PhaseConfiguring, domain.PhaseTearingDown},
		{"streaming to configuring", domain.PhaseStreaming, domain.PhaseConfiguring},
		{"streaming to released", domain.PhaseStreaming, domain.PhaseReleased},
		{"released to configuring", domain.PhaseReleased, domain.PhaseConfiguring},
		{"released to failed", domain.PhaseReleased, domain.PhaseFailed},
		{"failed to configuring", domain.PhaseFailed, domain.PhaseConfiguring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.phase = tt.from

			err := l.TransitionTo(tt.to, "test")

			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("TransitionTo() error = %v, want ErrInvalidTransition", err)
			}
			// Phase should not change on invalid transition
			if l.Phase() != tt.from {
				t.Errorf("phase changed to %v on invalid transition, want %v", l.Phase(), tt.from)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(domain.PhaseConfiguring, "setup")
	_ = l.TransitionTo(domain.PhaseStreaming, "capture started")

	events := emitter.Phases()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].previous != domain.PhaseUnconfigured || events[0].current != domain.PhaseConfiguring {
		t.Errorf("event 0: got %v->%v, want Unconfigured->Configuring", events[0].previous, events[0].current)
	}
	if events[1].previous != domain.PhaseConfiguring || events[1].current != domain.PhaseStreaming {
		t.Errorf("event 1: got %v->%v, want Configuring->Streaming", events[1].previous, events[1].current)
	}
	if events[1].reason != "capture started" {
		t.Errorf("event 1 reason = %q", events[1].reason)
	}
}

func TestLifecycle_Fail(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	_ = l.TransitionTo(domain.PhaseConfiguring, "setup")

	l.Fail(errors.New("boom"))
	if l.Phase() != domain.PhaseFailed {
		t.Fatalf("phase = %v, want Failed", l.Phase())
	}

	// Failing again is a no-op.
	l.Fail(errors.New("again"))
	if l.Phase() != domain.PhaseFailed {
		t.Fatalf("phase = %v, want Failed", l.Phase())
	}
}

func TestLifecycle_FailAfterRelease(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.phase = domain.PhaseReleased

	l.Fail(errors.New("late"))
	if l.Phase() != domain.PhaseReleased {
		t.Fatalf("phase = %v, want Released", l.Phase())
	}
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup

	// Concurrent phase reads
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.Phase()
			}
		}()
	}

	// Concurrent transitions (some will fail, which is expected)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(domain.PhaseConfiguring, "test")
			_ = l.TransitionTo(domain.PhaseStreaming, "test")
		}()
	}

	wg.Wait()

	if l.Phase() != domain.PhaseStreaming {
		t.Errorf("phase = %v, want Streaming", l.Phase())
	}
}
