package app

import (
	"fmt"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// HostBuffer is a buffer the host allocated on a component port.
type HostBuffer struct {
	owner *Component
	buf   ports.Buffer
	freed bool
}

// Port returns the port the buffer is bound to.
func (b *HostBuffer) Port() uint32 { return b.buf.Port() }

// Size returns the buffer size in bytes.
func (b *HostBuffer) Size() uint32 { return b.buf.Size() }

// StateMachine drives components and ports through their transitions.
// Every request is issued and then polled until the runtime reflects it.
type StateMachine struct {
	poll    *poller
	bridge  *EventBridge
	logger  ports.Logger
	emitter ports.EventEmitter
}

// NewStateMachine creates a state machine.
func NewStateMachine(poll *poller, bridge *EventBridge, logger ports.Logger, emitter ports.EventEmitter) *StateMachine {
	return &StateMachine{
		poll:    poll,
		bridge:  bridge,
		logger:  logger,
		emitter: emitter,
	}
}

// Transition moves c to state to and blocks until the runtime reports it.
// Only one step along Loaded <-> Idle <-> Executing is allowed per call.
func (m *StateMachine) Transition(c *Component, to domain.State) error {
	from := c.State()
	op := fmt.Sprintf("switch state of the %s component to %s", c.name, to)
	if !from.CanTransition(to) {
		return domain.NewError(domain.ErrStateTransition, op,
			fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to))
	}

	m.logger.Info("switching component state",
		ports.String("component", c.name),
		ports.String("from", from.String()),
		ports.String("to", to.String()),
	)
	if err := c.handle.SendCommand(domain.CommandStateSet, uint32(to)); err != nil {
		return domain.NewError(domain.ErrStateTransition, op, err)
	}
	err := m.poll.until(func() (bool, error) {
		s, err := c.handle.GetState()
		if err != nil {
			return false, domain.NewError(domain.ErrStateTransition, "get state of "+c.name, err)
		}
		return s == to, nil
	})
	if err != nil {
		return err
	}
	c.setState(to)
	if m.emitter != nil {
		m.emitter.OnComponentState(c.name, from, to)
	}
	return nil
}

// TransitionAll moves every component to state to, in order.
func (m *StateMachine) TransitionAll(cs []*Component, to domain.State) error {
	for _, c := range cs {
		if err := m.Transition(c, to); err != nil {
			return err
		}
	}
	return nil
}

// EnablePort enables a port and blocks until it reports enabled.
func (m *StateMachine) EnablePort(c *Component, port uint32) error {
	return m.setPort(c, port, true)
}

// DisablePort disables a port and blocks until it reports disabled.
func (m *StateMachine) DisablePort(c *Component, port uint32) error {
	return m.setPort(c, port, false)
}

func (m *StateMachine) setPort(c *Component, port uint32, enable bool) error {
	cmd, verb := domain.CommandPortDisable, "disable"
	if enable {
		cmd, verb = domain.CommandPortEnable, "enable"
	}
	m.logger.Info(verb+" port", ports.String("component", c.name), ports.Uint32("port", port))
	if err := c.handle.SendCommand(cmd, port); err != nil {
		return domain.NewError(domain.ErrStateTransition,
			fmt.Sprintf("%s %s port %d", verb, c.name, port), err)
	}
	if err := waitPortEnabled(m.poll, c, port, enable); err != nil {
		return err
	}
	if m.emitter != nil {
		m.emitter.OnPortToggled(c.name, port, enable)
	}
	return nil
}

// Flush discards in-flight buffers of a port and blocks until the runtime
// confirms the flush. Exactly one confirmation is consumed per call.
func (m *StateMachine) Flush(c *Component, port uint32) error {
	m.logger.Info("flushing port", ports.String("component", c.name), ports.Uint32("port", port))
	if err := c.handle.SendCommand(domain.CommandFlush, port); err != nil {
		return domain.NewError(domain.ErrStateTransition,
			fmt.Sprintf("flush buffers of %s port %d", c.name, port), err)
	}
	err := m.poll.until(func() (bool, error) {
		return m.bridge.ConsumeFlushed(), nil
	})
	if err != nil {
		return err
	}
	if m.emitter != nil {
		m.emitter.OnFlushed(c.name, port)
	}
	return nil
}

// AllocateBuffer allocates the host buffer of a port. The port must already
// be enabled; the size is the one the port asks for.
func (m *StateMachine) AllocateBuffer(c *Component, port uint32) (*HostBuffer, error) {
	op := fmt.Sprintf("allocate buffer for %s port %d", c.name, port)
	def, err := c.handle.GetPortDefinition(port)
	if err != nil {
		return nil, domain.NewError(domain.ErrConfiguration,
			fmt.Sprintf("get port definition for %s port %d", c.name, port), err)
	}
	if !def.Enabled {
		return nil, domain.NewError(domain.ErrResource, op, domain.ErrPortDisabled)
	}
	buf, err := c.handle.AllocateBuffer(port, def.BufferSize)
	if err != nil {
		return nil, domain.NewError(domain.ErrResource, op, err)
	}
	m.logger.Info("allocated buffer",
		ports.String("component", c.name),
		ports.Uint32("port", port),
		ports.Uint32("size", buf.Size()),
	)
	return &HostBuffer{owner: c, buf: buf}, nil
}

// FreeBuffer releases a host buffer. A buffer is freed exactly once.
func (m *StateMachine) FreeBuffer(b *HostBuffer) error {
	op := fmt.Sprintf("free buffer for %s port %d", b.owner.name, b.Port())
	if b.freed {
		return domain.NewError(domain.ErrResource, op, domain.ErrBufferFreed)
	}
	if err := b.owner.handle.FreeBuffer(b.Port(), b.buf); err != nil {
		return domain.NewError(domain.ErrResource, op, err)
	}
	b.freed = true
	return nil
}

// SetCapture switches capture on a camera output port. Capture may only be
// switched on once the component is executing.
func (m *StateMachine) SetCapture(c *Component, port uint32, on bool) error {
	verb := "off"
	if on {
		verb = "on"
	}
	op := fmt.Sprintf("switch %s capture on %s port %d", verb, c.name, port)
	if on && c.State() != domain.StateExecuting {
		return domain.NewError(domain.ErrStateTransition, op,
			fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, c.name, c.State()))
	}
	m.logger.Info("switching capture", ports.String("component", c.name), ports.Uint32("port", port), ports.Bool("on", on))
	if err := c.handle.SetParameter(domain.PortCapturing{PortIndex: port, Enabled: on}); err != nil {
		return domain.NewError(domain.ErrStateTransition, op, err)
	}
	return nil
}

// WaitCameraReady blocks until the camera signalled that its device number
// was applied.
func (m *StateMachine) WaitCameraReady() error {
	return m.poll.until(func() (bool, error) {
		return m.bridge.CameraReady(), nil
	})
}
