package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/events"
)

func TestRecordRuntimeEvent(t *testing.T) {
	const comp = "metrics-test-camera"

	RecordRuntimeEvent(domain.CommandComplete(comp, domain.CommandFlush, 70))
	RecordRuntimeEvent(domain.ErrorEvent(comp, domain.ErrorHardware))

	if got := testutil.ToFloat64(runtimeEvents.WithLabelValues(comp, "command complete")); got != 1 {
		t.Errorf("command complete events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(runtimeEvents.WithLabelValues(comp, "error")); got != 1 {
		t.Errorf("error events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(runtimeErrors.WithLabelValues(comp, domain.ErrorHardware.Error())); got != 1 {
		t.Errorf("hardware errors = %v, want 1", got)
	}
}

func TestSetComponentState(t *testing.T) {
	const comp = "metrics-test-render"

	SetComponentState(comp, domain.StateIdle)
	SetComponentState(comp, domain.StateExecuting)

	if got := testutil.ToFloat64(componentState.WithLabelValues(comp)); got != float64(domain.StateExecuting) {
		t.Errorf("state gauge = %v, want %v", got, float64(domain.StateExecuting))
	}
	if got := testutil.ToFloat64(componentTransitions.WithLabelValues(comp, "Idle")); got != 1 {
		t.Errorf("Idle transitions = %v, want 1", got)
	}
}

func TestPortMetrics(t *testing.T) {
	const comp = "metrics-test-sink"

	SetPortEnabled(comp, 240, true)
	if got := testutil.ToFloat64(portEnabled.WithLabelValues(comp, "240")); got != 1 {
		t.Errorf("enabled gauge = %v, want 1", got)
	}
	SetPortEnabled(comp, 240, false)
	if got := testutil.ToFloat64(portEnabled.WithLabelValues(comp, "240")); got != 0 {
		t.Errorf("enabled gauge = %v, want 0", got)
	}

	RecordFlush(comp, 240)
	RecordFlush(comp, 240)
	if got := testutil.ToFloat64(portFlushes.WithLabelValues(comp, "240")); got != 2 {
		t.Errorf("flushes = %v, want 2", got)
	}
}

func TestSubscribe(t *testing.T) {
	bus := events.New()
	unsub := Subscribe(bus)
	defer unsub()

	const comp = "metrics-test-bus"
	bus.Publish(events.PortFlushedEvent{Component: comp, Port: 71})

	deadline := time.Now().Add(time.Second)
	for testutil.ToFloat64(portFlushes.WithLabelValues(comp, "71")) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("flush not recorded from the bus")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(events.PhaseChangedEvent{Previous: domain.PhaseConfiguring, Current: domain.PhaseStreaming})
	for testutil.ToFloat64(pipelinePhase) != float64(domain.PhaseStreaming) {
		if time.Now().After(deadline) {
			t.Fatal("phase not recorded from the bus")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
