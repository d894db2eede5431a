package app

import (
	"fmt"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// HandleManager opens and closes components.
type HandleManager struct {
	runtime ports.Runtime
	handler ports.EventHandler
	poll    *poller
	logger  ports.Logger
	emitter ports.EventEmitter
}

// NewHandleManager creates a handle manager whose components deliver their
// events to handler.
func NewHandleManager(rt ports.Runtime, handler ports.EventHandler, poll *poller, logger ports.Logger, emitter ports.EventEmitter) *HandleManager {
	return &HandleManager{
		runtime: rt,
		handler: handler,
		poll:    poll,
		logger:  logger,
		emitter: emitter,
	}
}

// Open creates a handle for the named component and disables every port it
// exposes, blocking until each disable is confirmed. A component returned by
// Open is in the Loaded state with all ports disabled.
func (m *HandleManager) Open(name string) (*Component, error) {
	m.logger.Info("initializing component", ports.String("component", name))

	h, err := m.runtime.GetHandle(name, m.handler)
	if err != nil {
		return nil, domain.NewError(domain.ErrInitialization, "get handle for component "+name, err)
	}
	c := newComponent(name, h)

	for _, d := range domain.PortDomains {
		rng, err := h.PortRange(d)
		if err != nil {
			// Components only answer for the domains they implement.
			continue
		}
		for _, port := range rng.Indices() {
			c.addPort(port)
			m.logger.Debug("disabling port",
				ports.String("component", name),
				ports.Uint32("port", port),
				ports.String("domain", d.String()),
			)
			if err := h.SendCommand(domain.CommandPortDisable, port); err != nil {
				return nil, domain.NewError(domain.ErrStateTransition,
					fmt.Sprintf("disable port %d of component %s", port, name), err)
			}
			if err := waitPortEnabled(m.poll, c, port, false); err != nil {
				return nil, err
			}
			if m.emitter != nil {
				m.emitter.OnPortToggled(name, port, false)
			}
		}
	}
	return c, nil
}

// Close frees the component handle. A failure here means the runtime state
// is inconsistent and is fatal.
func (m *HandleManager) Close(c *Component) error {
	if err := c.handle.Free(); err != nil {
		return domain.NewError(domain.ErrResource, "free "+c.name+" component handle", err)
	}
	m.logger.Debug("component handle freed", ports.String("component", c.name))
	return nil
}

// waitPortEnabled blocks until the port's enabled flag equals want.
func waitPortEnabled(p *poller, c *Component, port uint32, want bool) error {
	return p.until(func() (bool, error) {
		def, err := c.handle.GetPortDefinition(port)
		if err != nil {
			return false, domain.NewError(domain.ErrConfiguration,
				fmt.Sprintf("get port definition for %s port %d", c.name, port), err)
		}
		return def.Enabled == want, nil
	})
}
