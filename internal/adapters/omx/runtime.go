//go:build omx

package omx

/*
#cgo CFLAGS: -I/opt/vc/include -I/opt/vc/include/interface/vcos/pthreads -I/opt/vc/include/interface/vmcs_host/linux -DOMX_SKIP64BIT -DUSE_VCHIQ_ARM
#cgo LDFLAGS: -L/opt/vc/lib -lopenmaxil -lbcm_host -lvcos -lvchiq_arm -lpthread
#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

func check(r C.OMX_ERRORTYPE) error {
	if r == C.OMX_ErrorNone {
		return nil
	}
	return domain.ErrorCode(uint32(r))
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// Runtime is the OpenMAX IL core.
type Runtime struct {
	logger ports.Logger
}

// New returns the OpenMAX IL runtime. Init must still be called before use.
func New(logger ports.Logger) (ports.Runtime, error) {
	return &Runtime{logger: logger}, nil
}

// Init initializes the VideoCore host interface and the IL core.
func (r *Runtime) Init() error {
	C.bcm_host_init()
	return check(C.OMX_Init())
}

// Deinit releases the IL core and the VideoCore host interface.
func (r *Runtime) Deinit() error {
	err := check(C.OMX_Deinit())
	C.bcm_host_deinit()
	return err
}

// GetHandle creates a component handle. The Go side of the handle is
// registered as the callback application data so events find their way back.
func (r *Runtime) GetHandle(name string, handler ports.EventHandler) (ports.Handle, error) {
	h := &Handle{name: name, handler: handler, logger: r.logger}
	h.self = cgo.NewHandle(h)

	cname := C.CString(componentPrefix + name)
	defer C.free(unsafe.Pointer(cname))
	if err := check(C.shim_get_handle(&h.c, cname, C.uintptr_t(h.self))); err != nil {
		h.self.Delete()
		return nil, err
	}
	return h, nil
}

// SetupTunnel links two ports of different components.
func (r *Runtime) SetupTunnel(src ports.Handle, srcPort uint32, dst ports.Handle, dstPort uint32) error {
	s, ok1 := src.(*Handle)
	d, ok2 := dst.(*Handle)
	if !ok1 || !ok2 {
		return errors.New("omx: foreign handle")
	}
	return check(C.OMX_SetupTunnel(s.c, C.OMX_U32(srcPort), d.c, C.OMX_U32(dstPort)))
}

// Handle is an OpenMAX IL component handle.
type Handle struct {
	name    string
	c       C.OMX_HANDLETYPE
	self    cgo.Handle
	handler ports.EventHandler
	logger  ports.Logger

	mu      sync.Mutex
	buffers map[*C.OMX_BUFFERHEADERTYPE]bool
}

// Name returns the short component name.
func (h *Handle) Name() string { return h.name }

// SendCommand issues an asynchronous command.
func (h *Handle) SendCommand(cmd domain.Command, param uint32) error {
	return check(C.shim_send_command(h.c, C.uint32_t(cmd), C.uint32_t(param)))
}

// GetState returns the current component state.
func (h *Handle) GetState() (domain.State, error) {
	var s C.uint32_t
	if err := check(C.shim_get_state(h.c, &s)); err != nil {
		return domain.StateInvalid, err
	}
	return domain.State(s), nil
}

// PortRange returns the ports of a domain.
func (h *Handle) PortRange(d domain.PortDomain) (domain.PortRange, error) {
	var start, count C.uint32_t
	if err := check(C.shim_port_range(h.c, C.int(d), &start, &count)); err != nil {
		return domain.PortRange{}, err
	}
	return domain.PortRange{Start: uint32(start), Count: uint32(count)}, nil
}

// GetPortDefinition returns a port descriptor.
func (h *Handle) GetPortDefinition(port uint32) (domain.PortDescriptor, error) {
	var def C.shim_port_def
	if err := check(C.shim_get_port_def(h.c, C.uint32_t(port), &def)); err != nil {
		return domain.PortDescriptor{}, err
	}
	return fromC(&def), nil
}

// SetPortDefinition writes a port descriptor.
func (h *Handle) SetPortDefinition(d domain.PortDescriptor) error {
	def := toC(d)
	return check(C.shim_set_port_def(h.c, &def))
}

// SetParameter writes a setting with OMX_SetParameter.
func (h *Handle) SetParameter(s domain.Setting) error {
	return h.apply(false, s)
}

// SetConfig writes a setting with OMX_SetConfig.
func (h *Handle) SetConfig(s domain.Setting) error {
	return h.apply(true, s)
}

func (h *Handle) apply(config bool, s domain.Setting) error {
	cfg := cbool(config)
	port := C.uint32_t(s.Port())

	var r C.OMX_ERRORTYPE
	switch v := s.(type) {
	case domain.CameraDevice:
		r = C.shim_set_camera_device(h.c, cfg, port, C.uint32_t(v.Device))
	case domain.RequestCallback:
		idx, err := omxIndex(v.Watched)
		if err != nil {
			return err
		}
		r = C.shim_request_callback(h.c, cfg, port, idx, cbool(v.Enable))
	case domain.Framerate:
		r = C.shim_set_framerate(h.c, cfg, port, C.uint32_t(v.Rate))
	case domain.Sharpness:
		r = C.shim_set_sharpness(h.c, cfg, port, C.int32_t(v.Value))
	case domain.Contrast:
		r = C.shim_set_contrast(h.c, cfg, port, C.int32_t(v.Value))
	case domain.Saturation:
		r = C.shim_set_saturation(h.c, cfg, port, C.int32_t(v.Value))
	case domain.Brightness:
		r = C.shim_set_brightness(h.c, cfg, port, C.uint32_t(v.Value))
	case domain.ExposureValue:
		q16 := (v.Compensation << 16) / 6
		r = C.shim_set_exposure(h.c, cfg, port, C.int32_t(q16), C.uint32_t(v.Sensitivity), cbool(v.AutoSensitivity))
	case domain.FrameStabilisation:
		r = C.shim_set_stabilisation(h.c, cfg, port, cbool(v.Enabled))
	case domain.WhiteBalance:
		r = C.shim_set_white_balance(h.c, cfg, port, C.uint32_t(v.Mode))
	case domain.ImageFilter:
		r = C.shim_set_image_filter(h.c, cfg, port, C.uint32_t(v.Filter))
	case domain.Mirror:
		r = C.shim_set_mirror(h.c, cfg, port, C.uint32_t(v.Mode))
	case domain.DisplayRegion:
		r = C.shim_set_display_region(h.c, cfg, port, C.uint32_t(v.Display), cbool(v.Fullscreen),
			C.uint32_t(v.Mode), C.int32_t(v.Dest.X), C.int32_t(v.Dest.Y),
			C.uint32_t(v.Dest.Width), C.uint32_t(v.Dest.Height))
	case domain.PortCapturing:
		r = C.shim_set_capturing(h.c, cfg, port, cbool(v.Enabled))
	default:
		return fmt.Errorf("omx: unsupported setting %s", s.Index())
	}
	return check(r)
}

// AllocateBuffer allocates a buffer owned by the component.
func (h *Handle) AllocateBuffer(port uint32, size uint32) (ports.Buffer, error) {
	var hdr *C.OMX_BUFFERHEADERTYPE
	if err := check(C.shim_allocate_buffer(h.c, C.uint32_t(port), C.uint32_t(size), &hdr)); err != nil {
		return nil, err
	}
	h.mu.Lock()
	if h.buffers == nil {
		h.buffers = make(map[*C.OMX_BUFFERHEADERTYPE]bool)
	}
	h.buffers[hdr] = true
	h.mu.Unlock()
	return &Buffer{hdr: hdr, port: port, size: size}, nil
}

// FreeBuffer releases a buffer returned by AllocateBuffer.
func (h *Handle) FreeBuffer(port uint32, buf ports.Buffer) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return domain.ErrorBadParameter
	}
	h.mu.Lock()
	owned := h.buffers[b.hdr]
	delete(h.buffers, b.hdr)
	h.mu.Unlock()
	if !owned {
		return domain.ErrorBadParameter
	}
	return check(C.shim_free_buffer(h.c, C.uint32_t(port), b.hdr))
}

// Free releases the component handle. Events are no longer delivered
// afterwards.
func (h *Handle) Free() error {
	if err := check(C.OMX_FreeHandle(h.c)); err != nil {
		return err
	}
	h.self.Delete()
	return nil
}

// Buffer is a buffer header allocated by a component.
type Buffer struct {
	hdr  *C.OMX_BUFFERHEADERTYPE
	port uint32
	size uint32
}

// Port returns the port the buffer belongs to.
func (b *Buffer) Port() uint32 { return b.port }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint32 { return b.size }

func omxIndex(i domain.Index) (C.uint32_t, error) {
	switch i {
	case domain.IndexCameraDeviceNumber:
		return C.uint32_t(C.OMX_IndexParamCameraDeviceNumber), nil
	default:
		return 0, fmt.Errorf("omx: no callback index for %s", i)
	}
}

func fromC(d *C.shim_port_def) domain.PortDescriptor {
	def := domain.PortDescriptor{
		Index:             uint32(d.index),
		Direction:         domain.Direction(d.dir),
		BufferCountActual: uint32(d.count_actual),
		BufferCountMin:    uint32(d.count_min),
		BufferSize:        uint32(d.buffer_size),
		BufferAlignment:   uint32(d.alignment),
		Enabled:           d.enabled != 0,
		Populated:         d.populated != 0,
		Domain:            domain.PortDomain(d.domain),
	}
	switch def.Domain {
	case domain.DomainVideo:
		def.Video = domain.VideoFormat{
			Width:            uint32(d.width),
			Height:           uint32(d.height),
			Stride:           int32(d.stride),
			SliceHeight:      uint32(d.slice_height),
			Bitrate:          uint32(d.bitrate),
			Framerate:        domain.Q16(d.framerate),
			ErrorConcealment: d.error_concealment != 0,
			Compression:      domain.Compression(d.compression),
			Color:            domain.ColorFormat(d.color),
		}
	case domain.DomainImage:
		def.Image = domain.ImageFormat{
			Width:            uint32(d.width),
			Height:           uint32(d.height),
			Stride:           int32(d.stride),
			SliceHeight:      uint32(d.slice_height),
			ErrorConcealment: d.error_concealment != 0,
			Compression:      domain.Compression(d.compression),
			Color:            domain.ColorFormat(d.color),
		}
	}
	return def
}

func toC(def domain.PortDescriptor) C.shim_port_def {
	d := C.shim_port_def{
		index:        C.uint32_t(def.Index),
		count_actual: C.uint32_t(def.BufferCountActual),
	}
	switch def.Domain {
	case domain.DomainVideo:
		v := def.Video
		d.width = C.uint32_t(v.Width)
		d.height = C.uint32_t(v.Height)
		d.stride = C.int32_t(v.Stride)
		d.slice_height = C.uint32_t(v.SliceHeight)
		d.bitrate = C.uint32_t(v.Bitrate)
		d.framerate = C.uint32_t(v.Framerate)
		d.error_concealment = cbool(v.ErrorConcealment)
		d.compression = C.uint32_t(v.Compression)
		d.color = C.uint32_t(v.Color)
	case domain.DomainImage:
		i := def.Image
		d.width = C.uint32_t(i.Width)
		d.height = C.uint32_t(i.Height)
		d.stride = C.int32_t(i.Stride)
		d.slice_height = C.uint32_t(i.SliceHeight)
		d.error_concealment = cbool(i.ErrorConcealment)
		d.compression = C.uint32_t(i.Compression)
		d.color = C.uint32_t(i.Color)
	}
	return d
}

// Display reads the display size from the VideoCore.
type Display struct{}

// DisplaySize implements ports.DisplaySizer.
func (Display) DisplaySize(device uint32) (domain.Size, error) {
	var w, h C.uint32_t
	if C.graphics_get_display_size(C.uint16_t(device), &w, &h) < 0 {
		return domain.Size{}, fmt.Errorf("omx: cannot read size of display %d", device)
	}
	return domain.Size{Width: uint32(w), Height: uint32(h)}, nil
}
