package ports

import "github.com/bft-labs/rpicamview/internal/domain"

// EventHandler receives asynchronous notifications from the runtime.
// It is called on a goroutine or thread the caller does not control and must
// be safe to call concurrently with everything else.
type EventHandler interface {
	HandleEvent(ev domain.Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ev domain.Event)

// HandleEvent calls f(ev).
func (f EventHandlerFunc) HandleEvent(ev domain.Event) { f(ev) }

// Runtime is the component runtime: it creates component handles and links
// their ports. All methods block until the runtime accepted or rejected the
// request; acceptance may be followed by asynchronous events.
type Runtime interface {
	// Init initializes the runtime. It must be called before GetHandle.
	Init() error

	// Deinit releases the runtime after every handle has been freed.
	Deinit() error

	// GetHandle creates a handle for the named component. Events for the
	// component are delivered to handler.
	GetHandle(name string, handler EventHandler) (Handle, error)

	// SetupTunnel links srcPort of src to dstPort of dst.
	SetupTunnel(src Handle, srcPort uint32, dst Handle, dstPort uint32) error
}

// Handle is an open component.
type Handle interface {
	// Name returns the short component name, e.g. "camera".
	Name() string

	// SendCommand issues an asynchronous command. For CommandStateSet param
	// is the target domain.State, otherwise the port index.
	SendCommand(cmd domain.Command, param uint32) error

	// GetState returns the current lifecycle state.
	GetState() (domain.State, error)

	// PortRange returns the ports of the given domain.
	PortRange(d domain.PortDomain) (domain.PortRange, error)

	// GetPortDefinition returns the descriptor of a port.
	GetPortDefinition(port uint32) (domain.PortDescriptor, error)

	// SetPortDefinition writes a full descriptor; def.Index selects the port.
	SetPortDefinition(def domain.PortDescriptor) error

	// SetParameter writes a parameter.
	SetParameter(s domain.Setting) error

	// SetConfig writes a config value.
	SetConfig(s domain.Setting) error

	// AllocateBuffer allocates a host buffer of size bytes on port.
	AllocateBuffer(port uint32, size uint32) (Buffer, error)

	// FreeBuffer releases a buffer returned by AllocateBuffer.
	FreeBuffer(port uint32, buf Buffer) error

	// Free releases the handle.
	Free() error
}

// Buffer is a host-owned buffer bound to a port.
type Buffer interface {
	Port() uint32
	Size() uint32
}
