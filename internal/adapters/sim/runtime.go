// Package sim is an in-process component runtime that behaves like the
// camera, video_render and null_sink components without any hardware.
//
// Commands are accepted immediately and take effect when Advance runs, so a
// caller polling for completion observes the same asynchronous behavior as
// on the device. Events are delivered outside the runtime lock, on the
// goroutine calling Advance, which stands in for the runtime's own thread.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// ErrNotInitialized is returned when the runtime is used before Init.
var ErrNotInitialized = errors.New("sim: runtime not initialized")

// Operation names used in the call log and by FailOn.
const (
	OpInit              = "Init"
	OpDeinit            = "Deinit"
	OpGetHandle         = "GetHandle"
	OpSetupTunnel       = "SetupTunnel"
	OpSendCommand       = "SendCommand"
	OpGetState          = "GetState"
	OpGetPortDefinition = "GetPortDefinition"
	OpSetPortDefinition = "SetPortDefinition"
	OpSetParameter      = "SetParameter"
	OpSetConfig         = "SetConfig"
	OpAllocateBuffer    = "AllocateBuffer"
	OpFreeBuffer        = "FreeBuffer"
	OpFree              = "Free"
)

// Call is one request received by the runtime.
type Call struct {
	Component string
	Op        string
	Command   domain.Command
	Param     uint32
	Index     domain.Index
	Port      uint32
}

func (c Call) String() string {
	switch c.Op {
	case OpSendCommand:
		return fmt.Sprintf("%s %s(%s, %d)", c.Component, c.Op, c.Command, c.Param)
	case OpSetParameter, OpSetConfig:
		return fmt.Sprintf("%s %s(%s, %d)", c.Component, c.Op, c.Index, c.Port)
	default:
		return fmt.Sprintf("%s %s(%d)", c.Component, c.Op, c.Port)
	}
}

// Fault makes matching calls fail with Err. Zero fields match anything;
// Index only applies to SetParameter and SetConfig.
type Fault struct {
	Op        string
	Component string
	Index     domain.Index
	Err       error
}

func (f Fault) matches(c Call) bool {
	if f.Op != "" && f.Op != c.Op {
		return false
	}
	if f.Component != "" && f.Component != c.Component {
		return false
	}
	if f.Index != domain.IndexUnknown && f.Index != c.Index {
		return false
	}
	return true
}

// delivery is an event waiting to be handed to a component's handler.
type delivery struct {
	handler ports.EventHandler
	event   domain.Event
}

// Runtime is a simulated component runtime. It is safe for concurrent use.
type Runtime struct {
	mu          sync.Mutex
	initialized bool
	handles     []*Handle
	pending     []func() []delivery
	calls       []Call
	faults      []Fault
	suppress    []func(domain.Event) bool
	logger      ports.Logger
}

// New creates a simulated runtime. logger may be nil.
func New(logger ports.Logger) *Runtime {
	return &Runtime{logger: logger}
}

// FailOn registers a fault injected into every matching call.
func (r *Runtime) FailOn(f Fault) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, f)
}

// Suppress drops every queued event for which match returns true, as a
// component that never answers would.
func (r *Runtime) Suppress(match func(domain.Event) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppress = append(r.suppress, match)
}

// Calls returns the call log in order.
func (r *Runtime) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CountCalls counts logged calls for which match returns true.
func (r *Runtime) CountCalls(match func(Call) bool) int {
	n := 0
	for _, c := range r.Calls() {
		if match(c) {
			n++
		}
	}
	return n
}

// Handle returns the open handle of the named component, or nil.
func (r *Runtime) Handle(name string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handles {
		if h.name == name && !h.freed {
			return h
		}
	}
	return nil
}

// InjectError delivers an error event from the named component right away
// on the calling goroutine.
func (r *Runtime) InjectError(component string, code domain.ErrorCode) {
	r.mu.Lock()
	var handler ports.EventHandler
	for _, h := range r.handles {
		if h.name == component && !h.freed {
			handler = h.handler
		}
	}
	r.mu.Unlock()
	if handler != nil {
		handler.HandleEvent(domain.ErrorEvent(component, code))
	}
}

// Advance applies every queued effect and then delivers the resulting
// events. It reports whether anything happened.
func (r *Runtime) Advance() bool {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	var out []delivery
	for _, effect := range pending {
		for _, d := range effect() {
			if !r.suppressed(d.event) {
				out = append(out, d)
			}
		}
	}
	r.mu.Unlock()

	for _, d := range out {
		d.handler.HandleEvent(d.event)
	}
	return len(pending) > 0
}

// suppressed reports whether ev must be dropped. Callers hold mu.
func (r *Runtime) suppressed(ev domain.Event) bool {
	for _, match := range r.suppress {
		if match(ev) {
			return true
		}
	}
	return false
}

// Sleep advances the runtime instead of sleeping. It makes the runtime a
// ports.Sleeper so a single goroutine can drive the whole pipeline.
func (r *Runtime) Sleep(time.Duration) {
	r.Advance()
}

// Start advances the runtime every interval until ctx is done.
func (r *Runtime) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Advance()
			}
		}
	}()
}

// record logs c and returns the injected fault for it, if any. Callers hold mu.
func (r *Runtime) record(c Call) error {
	r.calls = append(r.calls, c)
	return r.fault(c)
}

// fault returns the injected fault for a read-only call without logging
// it. Callers hold mu.
func (r *Runtime) fault(c Call) error {
	for _, f := range r.faults {
		if f.matches(c) {
			return f.Err
		}
	}
	return nil
}

// queue schedules an effect for the next Advance. Callers hold mu.
func (r *Runtime) queue(effect func() []delivery) {
	r.pending = append(r.pending, effect)
}

// Init implements ports.Runtime.
func (r *Runtime) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: OpInit}); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

// Deinit implements ports.Runtime. Every handle must have been freed.
func (r *Runtime) Deinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: OpDeinit}); err != nil {
		return err
	}
	if !r.initialized {
		return ErrNotInitialized
	}
	for _, h := range r.handles {
		if !h.freed {
			return domain.ErrorIncorrectStateOperation
		}
	}
	r.initialized = false
	r.handles = nil
	return nil
}

// GetHandle implements ports.Runtime.
func (r *Runtime) GetHandle(name string, handler ports.EventHandler) (ports.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: OpGetHandle, Component: name}); err != nil {
		return nil, err
	}
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	tmpl, ok := templates[name]
	if !ok {
		return nil, domain.ErrorComponentNotFound
	}

	h := &Handle{
		rt:       r,
		name:     name,
		handler:  handler,
		state:    domain.StateLoaded,
		ports:    make(map[uint32]*port),
		settings: make(map[settingKey]domain.Setting),
		watched:  make(map[domain.Index]bool),
	}
	for _, t := range tmpl {
		h.ports[t.def.Index] = &port{def: t.def}
	}
	r.handles = append(r.handles, h)
	if r.logger != nil {
		r.logger.Debug("sim: component created", ports.String("component", name), ports.Int("ports", len(h.ports)))
	}
	return h, nil
}

// SetupTunnel implements ports.Runtime.
func (r *Runtime) SetupTunnel(src ports.Handle, srcPort uint32, dst ports.Handle, dstPort uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok1 := src.(*Handle)
	d, ok2 := dst.(*Handle)
	if !ok1 || !ok2 {
		return domain.ErrorInvalidComponent
	}
	if err := r.record(Call{Op: OpSetupTunnel, Component: s.name, Port: srcPort}); err != nil {
		return err
	}
	sp, dp := s.ports[srcPort], d.ports[dstPort]
	if sp == nil || dp == nil {
		return domain.ErrorBadPortIndex
	}
	if s.state != domain.StateLoaded || d.state != domain.StateLoaded {
		return domain.ErrorIncorrectStateOperation
	}
	if sp.def.Direction != domain.DirOutput || dp.def.Direction != domain.DirInput {
		return domain.ErrorPortsNotCompatible
	}
	if sp.def.Domain != dp.def.Domain {
		return domain.ErrorPortsNotCompatible
	}
	if sp.tunneled || dp.tunneled {
		return domain.ErrorIncorrectStateOperation
	}
	sp.tunneled, dp.tunneled = true, true
	// The input port takes on the format of the output it is linked to.
	index, enabled, dir := dp.def.Index, dp.def.Enabled, dp.def.Direction
	dp.def = sp.def
	dp.def.Index, dp.def.Enabled, dp.def.Direction = index, enabled, dir
	return nil
}

// HandleNames lists the components that currently have an open handle.
func (r *Runtime) HandleNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, h := range r.handles {
		if !h.freed {
			names = append(names, h.name)
		}
	}
	sort.Strings(names)
	return names
}
