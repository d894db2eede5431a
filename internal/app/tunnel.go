package app

import (
	"fmt"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Tunnel is a direct link from an output port to an input port.
type Tunnel struct {
	Src     *Component
	SrcPort uint32
	Dst     *Component
	DstPort uint32
}

func (t Tunnel) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", t.Src.name, t.SrcPort, t.Dst.name, t.DstPort)
}

type portKey struct {
	component *Component
	port      uint32
}

// TunnelBuilder links component ports. A port takes part in at most one
// tunnel, and tunnels can only be set up while both components are Loaded.
type TunnelBuilder struct {
	runtime ports.Runtime
	logger  ports.Logger
	used    map[portKey]bool
	tunnels []Tunnel
}

// NewTunnelBuilder creates a tunnel builder.
func NewTunnelBuilder(rt ports.Runtime, logger ports.Logger) *TunnelBuilder {
	return &TunnelBuilder{
		runtime: rt,
		logger:  logger,
		used:    make(map[portKey]bool),
	}
}

// Connect links srcPort of src to dstPort of dst.
func (b *TunnelBuilder) Connect(src *Component, srcPort uint32, dst *Component, dstPort uint32) (Tunnel, error) {
	t := Tunnel{Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort}
	op := "set up tunnel " + t.String()

	for _, c := range []*Component{src, dst} {
		if s := c.State(); s != domain.StateLoaded {
			return Tunnel{}, domain.NewError(domain.ErrStateTransition, op,
				fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, c.name, s))
		}
	}
	srcKey, dstKey := portKey{src, srcPort}, portKey{dst, dstPort}
	if b.used[srcKey] || b.used[dstKey] {
		return Tunnel{}, domain.NewError(domain.ErrConfiguration, op, domain.ErrPortAlreadyTunneled)
	}

	b.logger.Info("setting up tunnel", ports.String("tunnel", t.String()))
	if err := b.runtime.SetupTunnel(src.handle, srcPort, dst.handle, dstPort); err != nil {
		return Tunnel{}, domain.NewError(domain.ErrConfiguration, op, err)
	}
	b.used[srcKey] = true
	b.used[dstKey] = true
	b.tunnels = append(b.tunnels, t)
	return t, nil
}

// IsTunneled reports whether the port takes part in a tunnel.
func (b *TunnelBuilder) IsTunneled(c *Component, port uint32) bool {
	return b.used[portKey{c, port}]
}

// Tunnels returns the established tunnels in creation order.
func (b *TunnelBuilder) Tunnels() []Tunnel {
	return append([]Tunnel(nil), b.tunnels...)
}
