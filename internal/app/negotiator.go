package app

import (
	"fmt"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Negotiator reads and writes port descriptors and component settings.
// Any rejected get or set is a fatal ErrConfiguration.
type Negotiator struct {
	logger ports.Logger
}

// NewNegotiator creates a negotiator.
func NewNegotiator(logger ports.Logger) *Negotiator {
	return &Negotiator{logger: logger}
}

// GetFormat returns the current descriptor of a port.
func (n *Negotiator) GetFormat(c *Component, port uint32) (domain.PortDescriptor, error) {
	def, err := c.handle.GetPortDefinition(port)
	if err != nil {
		return domain.PortDescriptor{}, domain.NewError(domain.ErrConfiguration,
			fmt.Sprintf("get port definition for %s port %d", c.name, port), err)
	}
	return def, nil
}

// SetFormat writes a full descriptor; def.Index selects the port.
func (n *Negotiator) SetFormat(c *Component, def domain.PortDescriptor) error {
	if err := c.handle.SetPortDefinition(def); err != nil {
		return domain.NewError(domain.ErrConfiguration,
			fmt.Sprintf("set port definition for %s port %d", c.name, def.Index), err)
	}
	return nil
}

// UpdateFormat performs a read-modify-write of a port descriptor. Fields not
// touched by mutate are written back verbatim. It returns the descriptor as
// written.
func (n *Negotiator) UpdateFormat(c *Component, port uint32, mutate func(*domain.PortDescriptor)) (domain.PortDescriptor, error) {
	def, err := n.GetFormat(c, port)
	if err != nil {
		return domain.PortDescriptor{}, err
	}
	mutate(&def)
	def.Index = port
	if err := n.SetFormat(c, def); err != nil {
		return domain.PortDescriptor{}, err
	}
	return def, nil
}

// ConfigurePreview sizes the preview port to half of the display in each
// dimension at the given frame rate. The stride follows the width.
func (n *Negotiator) ConfigurePreview(c *Component, port uint32, display domain.Size, fps uint32) (domain.PortDescriptor, error) {
	return n.UpdateFormat(c, port, func(def *domain.PortDescriptor) {
		def.Video.Width = display.Width / 2
		def.Video.Height = display.Height / 2
		def.Video.Framerate = domain.FramerateQ16(fps)
		def.Video.Stride = int32(def.Video.Width)
	})
}

// DeriveFormat copies the entire descriptor of port from onto port to, so
// both outputs agree on format. Only the port index differs.
func (n *Negotiator) DeriveFormat(c *Component, from, to uint32) (domain.PortDescriptor, error) {
	def, err := n.GetFormat(c, from)
	if err != nil {
		return domain.PortDescriptor{}, err
	}
	def.Index = to
	if err := n.SetFormat(c, def); err != nil {
		return domain.PortDescriptor{}, err
	}
	return def, nil
}

// SetConfig writes a config value.
func (n *Negotiator) SetConfig(c *Component, s domain.Setting) error {
	n.logger.Debug("set config",
		ports.String("component", c.name),
		ports.String("index", s.Index().String()),
		ports.String("port", portName(s.Port())),
	)
	if err := c.handle.SetConfig(s); err != nil {
		return domain.NewError(domain.ErrConfiguration,
			fmt.Sprintf("set %s config of %s for %s", s.Index(), c.name, portName(s.Port())), err)
	}
	return nil
}

// SetParameter writes a parameter.
func (n *Negotiator) SetParameter(c *Component, s domain.Setting) error {
	n.logger.Debug("set parameter",
		ports.String("component", c.name),
		ports.String("index", s.Index().String()),
		ports.String("port", portName(s.Port())),
	)
	if err := c.handle.SetParameter(s); err != nil {
		return domain.NewError(domain.ErrConfiguration,
			fmt.Sprintf("set %s parameter of %s for %s", s.Index(), c.name, portName(s.Port())), err)
	}
	return nil
}

// SetFramerate sets the frame rate config of a port.
func (n *Negotiator) SetFramerate(c *Component, port uint32, rate domain.Q16) error {
	return n.SetConfig(c, domain.Framerate{PortIndex: port, Rate: rate})
}

// SetSharpness sets sharpness on port.
func (n *Negotiator) SetSharpness(c *Component, port uint32, v int32) error {
	return n.SetConfig(c, domain.Sharpness{PortIndex: port, Value: v})
}

// SetContrast sets contrast on port.
func (n *Negotiator) SetContrast(c *Component, port uint32, v int32) error {
	return n.SetConfig(c, domain.Contrast{PortIndex: port, Value: v})
}

// SetSaturation sets saturation on port.
func (n *Negotiator) SetSaturation(c *Component, port uint32, v int32) error {
	return n.SetConfig(c, domain.Saturation{PortIndex: port, Value: v})
}

// SetBrightness sets brightness on port.
func (n *Negotiator) SetBrightness(c *Component, port uint32, v uint32) error {
	return n.SetConfig(c, domain.Brightness{PortIndex: port, Value: v})
}

// SetExposure sets exposure compensation and sensitivity on port.
func (n *Negotiator) SetExposure(c *Component, port uint32, compensation int32, iso uint32, auto bool) error {
	return n.SetConfig(c, domain.ExposureValue{
		PortIndex:       port,
		Compensation:    compensation,
		Sensitivity:     iso,
		AutoSensitivity: auto,
	})
}

// SetStabilisation toggles frame stabilisation on port.
func (n *Negotiator) SetStabilisation(c *Component, port uint32, on bool) error {
	return n.SetConfig(c, domain.FrameStabilisation{PortIndex: port, Enabled: on})
}

// SetWhiteBalance selects the white balance mode on port.
func (n *Negotiator) SetWhiteBalance(c *Component, port uint32, mode domain.WhiteBalanceMode) error {
	return n.SetConfig(c, domain.WhiteBalance{PortIndex: port, Mode: mode})
}

// SetImageFilter selects the image filter on port.
func (n *Negotiator) SetImageFilter(c *Component, port uint32, f domain.ImageFilterType) error {
	return n.SetConfig(c, domain.ImageFilter{PortIndex: port, Filter: f})
}

// SetMirror sets the mirror mode of port.
func (n *Negotiator) SetMirror(c *Component, port uint32, mode domain.MirrorMode) error {
	return n.SetConfig(c, domain.Mirror{PortIndex: port, Mode: mode})
}

// ApplyTuning writes the whole tuning set in order and stops at the first
// rejection.
func (n *Negotiator) ApplyTuning(c *Component, t domain.CameraTuning, mirrorPort uint32) error {
	for _, s := range t.Settings(mirrorPort) {
		if err := n.SetConfig(c, s); err != nil {
			return err
		}
	}
	return nil
}

func portName(port uint32) string {
	if port == domain.AllPorts {
		return "all ports"
	}
	return fmt.Sprintf("port %d", port)
}
