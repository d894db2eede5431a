package sim

import (
	"sort"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

type port struct {
	def      domain.PortDescriptor
	tunneled bool
	buffers  int
}

// refresh derives the populated flag: an enabled port is populated once it
// is tunneled or owns a host buffer.
func (p *port) refresh() {
	p.def.Populated = p.def.Enabled && (p.tunneled || p.buffers > 0)
}

type settingKey struct {
	index domain.Index
	port  uint32
}

// Buffer is a host buffer allocated by the simulator.
type Buffer struct {
	owner *Handle
	port  uint32
	size  uint32
	freed bool
}

// Port implements ports.Buffer.
func (b *Buffer) Port() uint32 { return b.port }

// Size implements ports.Buffer.
func (b *Buffer) Size() uint32 { return b.size }

// Handle is an open simulated component. All state is guarded by the
// runtime lock.
type Handle struct {
	rt      *Runtime
	name    string
	handler ports.EventHandler

	state     domain.State
	ports     map[uint32]*port
	settings  map[settingKey]domain.Setting
	watched   map[domain.Index]bool
	capturing map[uint32]bool
	freed     bool
}

// Name implements ports.Handle.
func (h *Handle) Name() string { return h.name }

// SendCommand implements ports.Handle.
func (h *Handle) SendCommand(cmd domain.Command, param uint32) error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: OpSendCommand, Command: cmd, Param: param}); err != nil {
		return err
	}
	if h.freed {
		return domain.ErrorInvalidComponent
	}

	complete := func() []delivery {
		return []delivery{{handler: h.handler, event: domain.CommandComplete(h.name, cmd, param)}}
	}

	switch cmd {
	case domain.CommandStateSet:
		target := domain.State(param)
		if target == h.state {
			return domain.ErrorSameState
		}
		if !h.state.CanTransition(target) {
			return domain.ErrorIncorrectStateTransition
		}
		r.queue(func() []delivery {
			h.state = target
			return complete()
		})
	case domain.CommandFlush:
		if param != domain.AllPorts && h.ports[param] == nil {
			return domain.ErrorBadPortIndex
		}
		r.queue(complete)
	case domain.CommandPortEnable, domain.CommandPortDisable:
		p := h.ports[param]
		if p == nil {
			return domain.ErrorBadPortIndex
		}
		enable := cmd == domain.CommandPortEnable
		r.queue(func() []delivery {
			p.def.Enabled = enable
			p.refresh()
			return complete()
		})
	default:
		return domain.ErrorNotImplemented
	}
	return nil
}

// GetState implements ports.Handle.
func (h *Handle) GetState() (domain.State, error) {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.freed {
		return domain.StateInvalid, domain.ErrorInvalidComponent
	}
	return h.state, nil
}

// PortRange implements ports.Handle. A domain the component does not
// implement has an empty range.
func (h *Handle) PortRange(d domain.PortDomain) (domain.PortRange, error) {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()

	var indices []uint32
	for i, p := range h.ports {
		if p.def.Domain == d {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return domain.PortRange{}, nil
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })
	return domain.PortRange{Start: indices[0], Count: uint32(len(indices))}, nil
}

// GetPortDefinition implements ports.Handle.
func (h *Handle) GetPortDefinition(index uint32) (domain.PortDescriptor, error) {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fault(Call{Component: h.name, Op: OpGetPortDefinition, Port: index}); err != nil {
		return domain.PortDescriptor{}, err
	}
	p := h.ports[index]
	if p == nil {
		return domain.PortDescriptor{}, domain.ErrorBadPortIndex
	}
	return p.def, nil
}

// SetPortDefinition implements ports.Handle. Only the format and the buffer
// count are writable; buffer size and slice height follow the format.
func (h *Handle) SetPortDefinition(def domain.PortDescriptor) error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: OpSetPortDefinition, Port: def.Index}); err != nil {
		return err
	}
	p := h.ports[def.Index]
	if p == nil {
		return domain.ErrorBadPortIndex
	}
	if p.def.Enabled && h.state != domain.StateLoaded {
		return domain.ErrorIncorrectStateOperation
	}
	if def.Domain != p.def.Domain || def.BufferCountActual < p.def.BufferCountMin {
		return domain.ErrorBadParameter
	}

	next := p.def
	next.BufferCountActual = def.BufferCountActual
	switch p.def.Domain {
	case domain.DomainVideo:
		v := def.Video
		if v.Width == 0 || v.Height == 0 {
			return domain.ErrorBadParameter
		}
		if v.Stride == 0 {
			v.Stride = int32(v.Width)
		}
		if v.SliceHeight < v.Height {
			v.SliceHeight = align16(v.Height)
		}
		next.Video = v
		next.BufferSize = frameSize(v.Stride, v.SliceHeight)
	case domain.DomainImage:
		i := def.Image
		if i.Width == 0 || i.Height == 0 {
			return domain.ErrorBadParameter
		}
		if i.Stride == 0 {
			i.Stride = int32(i.Width)
		}
		if i.SliceHeight < i.Height {
			i.SliceHeight = align16(i.Height)
		}
		next.Image = i
		next.BufferSize = frameSize(i.Stride, i.SliceHeight)
	}
	p.def = next
	return nil
}

// SetParameter implements ports.Handle.
func (h *Handle) SetParameter(s domain.Setting) error {
	return h.set(OpSetParameter, s)
}

// SetConfig implements ports.Handle.
func (h *Handle) SetConfig(s domain.Setting) error {
	return h.set(OpSetConfig, s)
}

func (h *Handle) set(op string, s domain.Setting) error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: op, Index: s.Index(), Port: s.Port()}); err != nil {
		return err
	}
	if h.freed {
		return domain.ErrorInvalidComponent
	}
	if s.Port() != domain.AllPorts && h.ports[s.Port()] == nil {
		return domain.ErrorBadPortIndex
	}
	if err := h.validate(s); err != nil {
		return err
	}

	switch v := s.(type) {
	case domain.RequestCallback:
		h.watched[v.Watched] = v.Enable
	case domain.CameraDevice:
		if h.watched[domain.IndexCameraDeviceNumber] {
			r.queue(func() []delivery {
				ev := domain.ParamChanged(h.name, domain.AllPorts, domain.IndexCameraDeviceNumber)
				return []delivery{{handler: h.handler, event: ev}}
			})
		}
	case domain.PortCapturing:
		if h.capturing == nil {
			h.capturing = make(map[uint32]bool)
		}
		h.capturing[v.PortIndex] = v.Enabled
	}
	h.settings[settingKey{s.Index(), s.Port()}] = s
	return nil
}

// validate rejects values outside the ranges the components accept.
func (h *Handle) validate(s domain.Setting) error {
	inRange := func(v, lo, hi int32) error {
		if v < lo || v > hi {
			return domain.ErrorBadParameter
		}
		return nil
	}
	switch v := s.(type) {
	case domain.Sharpness:
		return inRange(v.Value, -100, 100)
	case domain.Contrast:
		return inRange(v.Value, -100, 100)
	case domain.Saturation:
		return inRange(v.Value, -100, 100)
	case domain.Brightness:
		if v.Value > 100 {
			return domain.ErrorBadParameter
		}
	case domain.ExposureValue:
		if err := inRange(v.Compensation, -24, 24); err != nil {
			return err
		}
		if !v.AutoSensitivity && (v.Sensitivity < 100 || v.Sensitivity > 1600) {
			return domain.ErrorBadParameter
		}
	case domain.Framerate:
		if p := h.ports[v.PortIndex]; p == nil || p.def.Domain != domain.DomainVideo {
			return domain.ErrorBadPortIndex
		}
	case domain.PortCapturing:
		p := h.ports[v.PortIndex]
		if p == nil || p.def.Direction != domain.DirOutput {
			return domain.ErrorBadPortIndex
		}
		if v.Enabled && h.state != domain.StateExecuting {
			return domain.ErrorIncorrectStateOperation
		}
	}
	return nil
}

// Setting returns the last value written for index on port.
func (h *Handle) Setting(index domain.Index, port uint32) (domain.Setting, bool) {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := h.settings[settingKey{index, port}]
	return s, ok
}

// Capturing reports whether capture is switched on for port.
func (h *Handle) Capturing(port uint32) bool {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	return h.capturing[port]
}

// Tunneled reports whether port takes part in a tunnel.
func (h *Handle) Tunneled(port uint32) bool {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	p := h.ports[port]
	return p != nil && p.tunneled
}

// AllocateBuffer implements ports.Handle.
func (h *Handle) AllocateBuffer(index uint32, size uint32) (ports.Buffer, error) {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: OpAllocateBuffer, Port: index, Param: size}); err != nil {
		return nil, err
	}
	p := h.ports[index]
	if p == nil {
		return nil, domain.ErrorBadPortIndex
	}
	if p.tunneled || !p.def.Enabled {
		return nil, domain.ErrorIncorrectStateOperation
	}
	if size < p.def.BufferSize {
		return nil, domain.ErrorBadParameter
	}
	p.buffers++
	p.refresh()
	return &Buffer{owner: h, port: index, size: size}, nil
}

// FreeBuffer implements ports.Handle.
func (h *Handle) FreeBuffer(index uint32, buf ports.Buffer) error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: OpFreeBuffer, Port: index}); err != nil {
		return err
	}
	b, ok := buf.(*Buffer)
	if !ok || b.owner != h || b.port != index || b.freed {
		return domain.ErrorBadParameter
	}
	p := h.ports[index]
	b.freed = true
	p.buffers--
	p.refresh()
	return nil
}

// Free implements ports.Handle. The component must be back in Loaded.
func (h *Handle) Free() error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Component: h.name, Op: OpFree}); err != nil {
		return err
	}
	if h.freed {
		return domain.ErrorInvalidComponent
	}
	if h.state != domain.StateLoaded {
		return domain.ErrorIncorrectStateOperation
	}
	h.freed = true
	return nil
}
