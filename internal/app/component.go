package app

import (
	"sync"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Component is an open processing unit. It is shared by reference between
// the negotiator, the tunnel builder and the state machine; only the
// pipeline that opened it closes it.
type Component struct {
	name   string
	handle ports.Handle

	mu    sync.RWMutex
	state domain.State
	ports []uint32
}

func newComponent(name string, h ports.Handle) *Component {
	return &Component{name: name, handle: h, state: domain.StateLoaded}
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Handle returns the runtime handle.
func (c *Component) Handle() ports.Handle { return c.handle }

// State returns the last confirmed lifecycle state.
func (c *Component) State() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Component) setState(s domain.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Ports returns every port discovered when the component was opened.
func (c *Component) Ports() []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]uint32(nil), c.ports...)
}

func (c *Component) addPort(p uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ports = append(c.ports, p)
}
