// Package metrics provides Prometheus metrics for the preview pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/events"
)

var (
	runtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpicamview",
		Subsystem: "runtime",
		Name:      "events_total",
		Help:      "Events delivered by the component runtime",
	}, []string{"component", "type"})

	runtimeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpicamview",
		Subsystem: "runtime",
		Name:      "errors_total",
		Help:      "Error events delivered by the component runtime",
	}, []string{"component", "code"})

	componentState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rpicamview",
		Subsystem: "component",
		Name:      "state",
		Help:      "Last confirmed lifecycle state of a component (0 invalid, 1 loaded, 2 idle, 3 executing)",
	}, []string{"component"})

	componentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpicamview",
		Subsystem: "component",
		Name:      "transitions_total",
		Help:      "Confirmed component state transitions by target state",
	}, []string{"component", "state"})

	portEnabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rpicamview",
		Subsystem: "port",
		Name:      "enabled",
		Help:      "Whether a port is enabled",
	}, []string{"component", "port"})

	portFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpicamview",
		Subsystem: "port",
		Name:      "flushes_total",
		Help:      "Confirmed port flushes",
	}, []string{"component", "port"})

	pipelinePhase = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rpicamview",
		Subsystem: "pipeline",
		Name:      "phase",
		Help:      "Current pipeline phase (0 unconfigured, 1 configuring, 2 streaming, 3 tearing down, 4 released, 5 failed)",
	})

	pipelinePhaseChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpicamview",
		Subsystem: "pipeline",
		Name:      "phase_changes_total",
		Help:      "Pipeline phase changes by target phase",
	}, []string{"phase"})
)

// RecordRuntimeEvent counts a runtime event.
func RecordRuntimeEvent(ev domain.Event) {
	runtimeEvents.WithLabelValues(ev.Component, ev.Type.String()).Inc()
	if ev.Type == domain.EventError {
		runtimeErrors.WithLabelValues(ev.Component, ev.Code.Error()).Inc()
	}
}

// SetComponentState records a confirmed component state.
func SetComponentState(component string, s domain.State) {
	componentState.WithLabelValues(component).Set(float64(s))
	componentTransitions.WithLabelValues(component, s.String()).Inc()
}

// SetPortEnabled records a confirmed port enable or disable.
func SetPortEnabled(component string, port uint32, enabled bool) {
	v := 0.0
	if enabled {
		v = 1
	}
	portEnabled.WithLabelValues(component, portLabel(port)).Set(v)
}

// RecordFlush counts a confirmed port flush.
func RecordFlush(component string, port uint32) {
	portFlushes.WithLabelValues(component, portLabel(port)).Inc()
}

// SetPhase records the pipeline phase.
func SetPhase(p domain.Phase) {
	pipelinePhase.Set(float64(p))
	pipelinePhaseChanges.WithLabelValues(p.String()).Inc()
}

func portLabel(port uint32) string {
	return strconv.FormatUint(uint64(port), 10)
}

// Subscribe feeds the collectors from bus. The returned function removes
// every subscription.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.RuntimeEvent) { RecordRuntimeEvent(e.Event) }),
		bus.Subscribe(func(e events.ComponentStateEvent) { SetComponentState(e.Component, e.Current) }),
		bus.Subscribe(func(e events.PortToggledEvent) { SetPortEnabled(e.Component, e.Port, e.Enabled) }),
		bus.Subscribe(func(e events.PortFlushedEvent) { RecordFlush(e.Component, e.Port) }),
		bus.Subscribe(func(e events.PhaseChangedEvent) { SetPhase(e.Current) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
