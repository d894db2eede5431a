package app

import (
	"context"
	"time"

	logadapter "github.com/bft-labs/rpicamview/internal/adapters/log"
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// Config contains the fixed parameters of the preview pipeline.
type Config struct {
	// PollInterval is the pause between checks of a pending transition.
	PollInterval time.Duration

	// Framerate is the capture frame rate in frames per second.
	Framerate uint32

	// CameraDevice selects the physical camera.
	CameraDevice uint32

	// DisplayDevice selects the display used for geometry and rendering.
	DisplayDevice uint32

	// Tuning is the initial image quality configuration.
	Tuning domain.CameraTuning
}

// DefaultConfig returns the stock pipeline configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		Framerate:    25,
		Tuning:       domain.DefaultCameraTuning(),
	}
}

// Option configures optional behavior of a Pipeline.
type Option func(*options)

type options struct {
	sleeper ports.Sleeper
	logger  ports.Logger
	emitter ports.EventEmitter
}

// WithSleeper replaces the wall-clock sleep used between polls.
func WithSleeper(s ports.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithLogger sets the diagnostic logger. Without it nothing is logged.
func WithLogger(l ports.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEmitter registers an observer of transitions and runtime events.
func WithEmitter(e ports.EventEmitter) Option {
	return func(o *options) { o.emitter = e }
}

// streamPort is a port that carries data while streaming.
type streamPort struct {
	component *Component
	port      uint32
}

// Pipeline drives the camera -> render / null sink graph from an unconfigured
// runtime to streaming and back. Every error is fatal: a failed Setup or Run
// is returned without any teardown.
type Pipeline struct {
	cfg     Config
	runtime ports.Runtime
	display ports.DisplaySizer
	logger  ports.Logger
	emitter ports.EventEmitter

	bridge     *EventBridge
	lifecycle  *Lifecycle
	poll       *poller
	handles    *HandleManager
	negotiator *Negotiator
	tunnels    *TunnelBuilder
	machine    *StateMachine

	camera *Component
	render *Component
	sink   *Component
	buffer *HostBuffer
}

// New creates a pipeline over the given runtime and display.
func New(cfg Config, rt ports.Runtime, display ports.DisplaySizer, opts ...Option) *Pipeline {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logadapter.NewNoopLogger()
	}

	bridge := NewEventBridge(o.logger, o.emitter)
	poll := newPoller(cfg.PollInterval, o.sleeper, bridge.Err)

	return &Pipeline{
		cfg:        cfg,
		runtime:    rt,
		display:    display,
		logger:     o.logger,
		emitter:    o.emitter,
		bridge:     bridge,
		lifecycle:  NewLifecycle(o.logger, o.emitter),
		poll:       poll,
		handles:    NewHandleManager(rt, bridge, poll, o.logger, o.emitter),
		negotiator: NewNegotiator(o.logger),
		tunnels:    NewTunnelBuilder(rt, o.logger),
		machine:    NewStateMachine(poll, bridge, o.logger, o.emitter),
	}
}

// Bridge returns the event bridge receiving runtime events.
func (p *Pipeline) Bridge() *EventBridge { return p.bridge }

// Phase returns the current pipeline phase.
func (p *Pipeline) Phase() domain.Phase { return p.lifecycle.Phase() }

// Execute runs Setup, the steady state and Teardown. It returns nil once the
// pipeline was released after ctx was cancelled.
func (p *Pipeline) Execute(ctx context.Context, tuning <-chan domain.CameraTuning) error {
	if err := p.Setup(); err != nil {
		return err
	}
	if err := p.Run(ctx, tuning); err != nil {
		return err
	}
	return p.Teardown()
}

// Setup brings the graph from nothing to capturing.
func (p *Pipeline) Setup() error {
	if err := p.lifecycle.TransitionTo(domain.PhaseConfiguring, "setup"); err != nil {
		return err
	}
	if err := p.setup(); err != nil {
		p.lifecycle.Fail(err)
		return err
	}
	return p.lifecycle.TransitionTo(domain.PhaseStreaming, "capture started")
}

func (p *Pipeline) setup() error {
	if err := p.runtime.Init(); err != nil {
		return domain.NewError(domain.ErrInitialization, "runtime initialization", err)
	}

	var err error
	if p.camera, err = p.handles.Open(domain.ComponentCamera); err != nil {
		return err
	}
	if p.render, err = p.handles.Open(domain.ComponentRender); err != nil {
		return err
	}
	if p.sink, err = p.handles.Open(domain.ComponentNullSink); err != nil {
		return err
	}

	screen, err := p.display.DisplaySize(p.cfg.DisplayDevice)
	if err != nil {
		return domain.NewError(domain.ErrInitialization, "get display size", err)
	}
	p.logger.Info("display detected", ports.Uint32("device", p.cfg.DisplayDevice), ports.String("size", screen.String()))

	preview, err := p.configureCamera(screen)
	if err != nil {
		return err
	}
	if err := p.configureRender(preview); err != nil {
		return err
	}
	if err := p.dumpPort("default port definition", p.sink, domain.NullSinkInputPort); err != nil {
		return err
	}

	// Downstream formats are implied by the tunnels.
	if _, err := p.tunnels.Connect(p.camera, domain.CameraPreviewPort, p.sink, domain.NullSinkInputPort); err != nil {
		return err
	}
	if _, err := p.tunnels.Connect(p.camera, domain.CameraVideoPort, p.render, domain.RenderInputPort); err != nil {
		return err
	}

	if err := p.machine.TransitionAll(p.components(), domain.StateIdle); err != nil {
		return err
	}
	for _, sp := range p.streamPorts() {
		if err := p.machine.EnablePort(sp.component, sp.port); err != nil {
			return err
		}
	}
	// The runtime allocates buffers on tunneled ports; only the clock input
	// is left to us.
	for _, sp := range p.streamPorts() {
		if p.tunnels.IsTunneled(sp.component, sp.port) {
			continue
		}
		if p.buffer, err = p.machine.AllocateBuffer(sp.component, sp.port); err != nil {
			return err
		}
	}
	if err := p.machine.TransitionAll(p.components(), domain.StateExecuting); err != nil {
		return err
	}
	if err := p.machine.SetCapture(p.camera, domain.CameraVideoPort, true); err != nil {
		return err
	}

	for _, sp := range p.streamPorts() {
		if err := p.dumpPort("configured port definition", sp.component, sp.port); err != nil {
			return err
		}
	}
	for _, t := range p.tunnels.Tunnels() {
		p.logger.Info("tunnel established", ports.String("tunnel", t.String()))
	}
	return nil
}

func (p *Pipeline) configureCamera(screen domain.Size) (domain.PortDescriptor, error) {
	p.logger.Info("configuring camera")
	for _, port := range []uint32{domain.CameraInputPort, domain.CameraPreviewPort, domain.CameraVideoPort} {
		if err := p.dumpPort("default port definition", p.camera, port); err != nil {
			return domain.PortDescriptor{}, err
		}
	}

	// Ask for a change event on the device number, then set it: the event
	// tells us the camera is ready for use.
	err := p.negotiator.SetConfig(p.camera, domain.RequestCallback{
		PortIndex: domain.AllPorts,
		Watched:   domain.IndexCameraDeviceNumber,
		Enable:    true,
	})
	if err != nil {
		return domain.PortDescriptor{}, err
	}
	err = p.negotiator.SetParameter(p.camera, domain.CameraDevice{PortIndex: domain.AllPorts, Device: p.cfg.CameraDevice})
	if err != nil {
		return domain.PortDescriptor{}, err
	}

	if _, err := p.negotiator.ConfigurePreview(p.camera, domain.CameraPreviewPort, screen, p.cfg.Framerate); err != nil {
		return domain.PortDescriptor{}, err
	}
	preview, err := p.negotiator.DeriveFormat(p.camera, domain.CameraPreviewPort, domain.CameraVideoPort)
	if err != nil {
		return domain.PortDescriptor{}, err
	}
	for _, port := range []uint32{domain.CameraPreviewPort, domain.CameraVideoPort} {
		if err := p.negotiator.SetFramerate(p.camera, port, preview.Video.Framerate); err != nil {
			return domain.PortDescriptor{}, err
		}
	}
	if err := p.negotiator.ApplyTuning(p.camera, p.cfg.Tuning, domain.CameraVideoPort); err != nil {
		return domain.PortDescriptor{}, err
	}

	if err := p.machine.WaitCameraReady(); err != nil {
		return domain.PortDescriptor{}, err
	}
	p.logger.Info("camera ready")
	return preview, nil
}

func (p *Pipeline) configureRender(preview domain.PortDescriptor) error {
	p.logger.Info("configuring render")
	if err := p.dumpPort("default port definition", p.render, domain.RenderInputPort); err != nil {
		return err
	}
	w, h := preview.Video.Width, preview.Video.Height
	return p.negotiator.SetConfig(p.render, domain.DisplayRegion{
		PortIndex:  domain.RenderInputPort,
		Display:    p.cfg.DisplayDevice,
		Fullscreen: false,
		Mode:       domain.DisplayModeFill,
		Dest:       domain.Rect{X: int32(w / 2), Y: int32(h / 2), Width: w, Height: h},
	})
}

// Run blocks in the steady state until ctx is cancelled or the runtime
// reports an error. Tuning updates received meanwhile are applied to the
// camera on this goroutine.
func (p *Pipeline) Run(ctx context.Context, tuning <-chan domain.CameraTuning) error {
	p.logger.Info("entering capture and playback loop")
	for {
		if err := p.bridge.Err(); err != nil {
			p.lifecycle.Fail(err)
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-p.bridge.Done():
			// reported at the top of the loop
		case t, ok := <-tuning:
			if !ok {
				tuning = nil
				continue
			}
			p.logger.Info("applying updated camera tuning")
			if err := p.negotiator.ApplyTuning(p.camera, t, domain.CameraVideoPort); err != nil {
				p.lifecycle.Fail(err)
				return err
			}
		}
	}
}

// Teardown stops capture and releases everything in the order the runtime
// requires. Once started it runs to completion or to the first error.
func (p *Pipeline) Teardown() error {
	if err := p.lifecycle.TransitionTo(domain.PhaseTearingDown, "shutdown requested"); err != nil {
		return err
	}
	if err := p.teardown(); err != nil {
		p.lifecycle.Fail(err)
		return err
	}
	return p.lifecycle.TransitionTo(domain.PhaseReleased, "teardown complete")
}

func (p *Pipeline) teardown() error {
	p.logger.Info("cleaning up")

	if err := p.machine.SetCapture(p.camera, domain.CameraVideoPort, false); err != nil {
		return err
	}
	for _, sp := range p.streamPorts() {
		if err := p.machine.Flush(sp.component, sp.port); err != nil {
			return err
		}
	}
	for _, sp := range p.streamPorts() {
		if err := p.machine.DisablePort(sp.component, sp.port); err != nil {
			return err
		}
	}
	if err := p.machine.FreeBuffer(p.buffer); err != nil {
		return err
	}
	if err := p.machine.TransitionAll(p.components(), domain.StateIdle); err != nil {
		return err
	}
	if err := p.machine.TransitionAll(p.components(), domain.StateLoaded); err != nil {
		return err
	}
	for _, c := range p.components() {
		if err := p.handles.Close(c); err != nil {
			return err
		}
	}
	if err := p.runtime.Deinit(); err != nil {
		return domain.NewError(domain.ErrInitialization, "runtime de-initialization", err)
	}
	return nil
}

func (p *Pipeline) components() []*Component {
	return []*Component{p.camera, p.render, p.sink}
}

// streamPorts lists the ports in the order they are enabled, flushed and
// disabled.
func (p *Pipeline) streamPorts() []streamPort {
	return []streamPort{
		{p.camera, domain.CameraInputPort},
		{p.camera, domain.CameraPreviewPort},
		{p.camera, domain.CameraVideoPort},
		{p.render, domain.RenderInputPort},
		{p.sink, domain.NullSinkInputPort},
	}
}

func (p *Pipeline) dumpPort(title string, c *Component, port uint32) error {
	def, err := p.negotiator.GetFormat(c, port)
	if err != nil {
		return err
	}
	logPort(p.logger, title, c.name, def)
	return nil
}
