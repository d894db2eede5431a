package app

import (
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// PortReport is the descriptor of one port as found right after the
// component was opened.
type PortReport struct {
	Component  string
	Descriptor domain.PortDescriptor
}

// Describe opens every component of the graph, reports the default
// descriptor of each of its ports and releases everything again. Nothing
// is configured and no component leaves Loaded.
func (p *Pipeline) Describe() ([]PortReport, error) {
	if err := p.runtime.Init(); err != nil {
		return nil, domain.NewError(domain.ErrInitialization, "runtime initialization", err)
	}

	var reports []PortReport
	for _, name := range []string{domain.ComponentCamera, domain.ComponentRender, domain.ComponentNullSink} {
		c, err := p.handles.Open(name)
		if err != nil {
			return nil, err
		}
		for _, port := range c.Ports() {
			def, err := p.negotiator.GetFormat(c, port)
			if err != nil {
				return nil, err
			}
			logPort(p.logger, "default port definition", name, def)
			reports = append(reports, PortReport{Component: name, Descriptor: def})
		}
		if err := p.handles.Close(c); err != nil {
			return nil, err
		}
	}

	if err := p.runtime.Deinit(); err != nil {
		return nil, domain.NewError(domain.ErrInitialization, "runtime de-initialization", err)
	}
	p.logger.Debug("described components", ports.Int("ports", len(reports)))
	return reports, nil
}
