package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/bft-labs/rpicamview/internal/adapters/display"
	"github.com/bft-labs/rpicamview/internal/adapters/sim"
	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// newTestPipeline wires a pipeline to a simulated runtime that advances
// whenever the pipeline would sleep.
func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *sim.Runtime) {
	t.Helper()
	rt := sim.New(nil)
	opts = append([]Option{WithSleeper(rt), WithLogger(mockLogger{})}, opts...)
	return New(DefaultConfig(), rt, display.NewStatic(1920, 1080), opts...), rt
}

func countCommands(rt *sim.Runtime, cmd domain.Command) int {
	return rt.CountCalls(func(c sim.Call) bool {
		return c.Op == sim.OpSendCommand && c.Command == cmd
	})
}

func indexOf(calls []sim.Call, match func(sim.Call) bool) int {
	last := -1
	for i, c := range calls {
		if match(c) {
			last = i
		}
	}
	return last
}

func TestPipeline_SetupConfiguresPreview(t *testing.T) {
	p, rt := newTestPipeline(t)

	if err := p.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if p.Phase() != domain.PhaseStreaming {
		t.Fatalf("phase = %v, want Streaming", p.Phase())
	}

	cam := rt.Handle(domain.ComponentCamera)
	for _, port := range []uint32{domain.CameraPreviewPort, domain.CameraVideoPort} {
		def, err := cam.GetPortDefinition(port)
		if err != nil {
			t.Fatalf("GetPortDefinition(%d) error = %v", port, err)
		}
		v := def.Video
		if v.Width != 960 || v.Height != 540 || v.Stride != 960 {
			t.Errorf("port %d format = %dx%d stride %d, want 960x540 stride 960", port, v.Width, v.Height, v.Stride)
		}
		if v.Framerate != domain.FramerateQ16(25) {
			t.Errorf("port %d framerate = %v, want 25", port, v.Framerate.Float())
		}
		if !def.Enabled {
			t.Errorf("port %d not enabled", port)
		}
	}
	if !cam.Capturing(domain.CameraVideoPort) {
		t.Error("capture not switched on")
	}

	render := rt.Handle(domain.ComponentRender)
	s, ok := render.Setting(domain.IndexDisplayRegion, domain.RenderInputPort)
	if !ok {
		t.Fatal("display region not set")
	}
	region := s.(domain.DisplayRegion)
	wantDest := domain.Rect{X: 480, Y: 270, Width: 960, Height: 540}
	if region.Dest != wantDest || region.Fullscreen || region.Mode != domain.DisplayModeFill {
		t.Errorf("display region = %+v, want windowed fill at %+v", region, wantDest)
	}
	def, _ := render.GetPortDefinition(domain.RenderInputPort)
	if !def.Populated {
		t.Error("render input not populated by its tunnel")
	}

	if !cam.Tunneled(domain.CameraPreviewPort) || !cam.Tunneled(domain.CameraVideoPort) {
		t.Error("camera outputs not tunneled")
	}
	if s, ok := cam.Setting(domain.IndexBrightness, domain.AllPorts); !ok || s.(domain.Brightness).Value != 50 {
		t.Errorf("brightness = %+v, want 50", s)
	}
	if s, ok := cam.Setting(domain.IndexMirror, domain.CameraVideoPort); !ok || s.(domain.Mirror).Mode != domain.MirrorNone {
		t.Errorf("mirror = %+v, want none on the video port", s)
	}
}

func TestPipeline_CaptureStartsLast(t *testing.T) {
	p, rt := newTestPipeline(t)
	if err := p.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	calls := rt.Calls()
	capture := indexOf(calls, func(c sim.Call) bool { return c.Index == domain.IndexPortCapturing })
	enable := indexOf(calls, func(c sim.Call) bool { return c.Command == domain.CommandPortEnable && c.Op == sim.OpSendCommand })
	executing := indexOf(calls, func(c sim.Call) bool {
		return c.Command == domain.CommandStateSet && c.Param == uint32(domain.StateExecuting)
	})
	device := indexOf(calls, func(c sim.Call) bool { return c.Index == domain.IndexCameraDeviceNumber })

	if capture < 0 || capture < enable || capture < executing || capture < device {
		t.Errorf("capture at call %d, want after enable %d, executing %d and device %d", capture, enable, executing, device)
	}
	if got := countCommands(rt, domain.CommandPortEnable); got != 5 {
		t.Errorf("port enables = %d, want 5", got)
	}
	allocs := rt.CountCalls(func(c sim.Call) bool { return c.Op == sim.OpAllocateBuffer })
	clock := rt.CountCalls(func(c sim.Call) bool {
		return c.Op == sim.OpAllocateBuffer && c.Component == domain.ComponentCamera && c.Port == domain.CameraInputPort
	})
	if allocs != 1 || clock != 1 {
		t.Errorf("buffer allocations = %d (%d on the clock input), want only the clock input", allocs, clock)
	}
}

func TestPipeline_ExecuteReleasesEverything(t *testing.T) {
	emitter := &mockEmitter{}
	p, rt := newTestPipeline(t, WithEmitter(emitter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Execute(ctx, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if p.Phase() != domain.PhaseReleased {
		t.Fatalf("phase = %v, want Released", p.Phase())
	}
	if names := rt.HandleNames(); len(names) != 0 {
		t.Errorf("handles still open: %v", names)
	}

	calls := rt.Calls()
	off := indexOf(calls, func(c sim.Call) bool { return c.Index == domain.IndexPortCapturing })
	cam, ren, snk := domain.ComponentCamera, domain.ComponentRender, domain.ComponentNullSink
	cmd := func(comp string, c domain.Command, param uint32) sim.Call {
		return sim.Call{Component: comp, Op: sim.OpSendCommand, Command: c, Param: param}
	}
	idle, loaded := uint32(domain.StateIdle), uint32(domain.StateLoaded)
	want := []sim.Call{
		{Component: cam, Op: sim.OpSetParameter, Index: domain.IndexPortCapturing, Port: domain.CameraVideoPort},
		cmd(cam, domain.CommandFlush, 73),
		cmd(cam, domain.CommandFlush, 70),
		cmd(cam, domain.CommandFlush, 71),
		cmd(ren, domain.CommandFlush, 90),
		cmd(snk, domain.CommandFlush, 240),
		cmd(cam, domain.CommandPortDisable, 73),
		cmd(cam, domain.CommandPortDisable, 70),
		cmd(cam, domain.CommandPortDisable, 71),
		cmd(ren, domain.CommandPortDisable, 90),
		cmd(snk, domain.CommandPortDisable, 240),
		{Component: cam, Op: sim.OpFreeBuffer, Port: 73},
		cmd(cam, domain.CommandStateSet, idle),
		cmd(ren, domain.CommandStateSet, idle),
		cmd(snk, domain.CommandStateSet, idle),
		cmd(cam, domain.CommandStateSet, loaded),
		cmd(ren, domain.CommandStateSet, loaded),
		cmd(snk, domain.CommandStateSet, loaded),
		{Component: cam, Op: sim.OpFree},
		{Component: ren, Op: sim.OpFree},
		{Component: snk, Op: sim.OpFree},
		{Op: sim.OpDeinit},
	}
	if got := calls[off:]; !reflect.DeepEqual(got, want) {
		t.Errorf("teardown calls:\n got %v\nwant %v", got, want)
	}

	if got := emitter.Flushes(); !reflect.DeepEqual(got, []uint32{73, 70, 71, 90, 240}) {
		t.Errorf("flushed ports = %v", got)
	}
	if got := len(emitter.States()); got != 12 {
		t.Errorf("component transitions = %d, want 12", got)
	}
	var phases []domain.Phase
	for _, ev := range emitter.Phases() {
		phases = append(phases, ev.current)
	}
	wantPhases := []domain.Phase{domain.PhaseConfiguring, domain.PhaseStreaming, domain.PhaseTearingDown, domain.PhaseReleased}
	if !reflect.DeepEqual(phases, wantPhases) {
		t.Errorf("phases = %v, want %v", phases, wantPhases)
	}
}

func TestPipeline_RejectedTuningAbortsSetup(t *testing.T) {
	p, rt := newTestPipeline(t)
	rt.FailOn(sim.Fault{Op: sim.OpSetConfig, Index: domain.IndexBrightness, Err: domain.ErrorBadParameter})

	err := p.Setup()
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("Setup() error = %v, want ErrConfiguration", err)
	}
	if !errors.Is(err, domain.ErrorBadParameter) {
		t.Errorf("Setup() error = %v, want to wrap ErrorBadParameter", err)
	}
	if got := countCommands(rt, domain.CommandStateSet); got != 0 {
		t.Errorf("state changes after rejected tuning = %d, want 0", got)
	}
	if rt.CountCalls(func(c sim.Call) bool { return c.Index == domain.IndexExposureValue }) != 0 {
		t.Error("tuning continued after the rejected setting")
	}
	if p.Phase() != domain.PhaseFailed {
		t.Errorf("phase = %v, want Failed", p.Phase())
	}
}

func TestPipeline_RuntimeErrorStopsSteadyState(t *testing.T) {
	p, rt := newTestPipeline(t)
	if err := p.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	rt.InjectError(domain.ComponentCamera, domain.ErrorHardware)

	err := p.Run(context.Background(), nil)
	if !errors.Is(err, domain.ErrRuntimeEvent) {
		t.Fatalf("Run() error = %v, want ErrRuntimeEvent", err)
	}
	if !errors.Is(err, domain.ErrorHardware) {
		t.Errorf("Run() error = %v, want to wrap ErrorHardware", err)
	}
	if got := countCommands(rt, domain.CommandFlush); got != 0 {
		t.Errorf("flushes after fatal error = %d, want 0", got)
	}
	if p.Phase() != domain.PhaseFailed {
		t.Errorf("phase = %v, want Failed", p.Phase())
	}
}

func TestPipeline_RuntimeErrorAbortsPolling(t *testing.T) {
	rt := sim.New(nil)
	injected := false
	sleeper := ports.SleepFunc(func(_ time.Duration) {
		if !injected {
			injected = true
			rt.InjectError(domain.ComponentCamera, domain.ErrorInsufficientResources)
		}
		rt.Advance()
	})
	p := New(DefaultConfig(), rt, display.NewStatic(1920, 1080), WithSleeper(sleeper))

	err := p.Setup()
	if !errors.Is(err, domain.ErrRuntimeEvent) {
		t.Fatalf("Setup() error = %v, want ErrRuntimeEvent", err)
	}
	if got := countCommands(rt, domain.CommandStateSet); got != 0 {
		t.Errorf("state changes after fatal error = %d, want 0", got)
	}
}

func TestPipeline_AppliesTuningUpdates(t *testing.T) {
	p, rt := newTestPipeline(t)
	if err := p.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tuning := make(chan domain.CameraTuning)
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx, tuning) }()

	first := domain.DefaultCameraTuning()
	first.Brightness = 60
	second := first
	second.Brightness = 70
	second.FlipHorizontal = true

	tuning <- first
	// The second send completes only after the first update was applied.
	tuning <- second
	tuning <- second
	cancel()

	if err := <-errc; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	cam := rt.Handle(domain.ComponentCamera)
	if s, _ := cam.Setting(domain.IndexBrightness, domain.AllPorts); s.(domain.Brightness).Value != 70 {
		t.Errorf("brightness = %+v, want 70", s)
	}
	if s, _ := cam.Setting(domain.IndexMirror, domain.CameraVideoPort); s.(domain.Mirror).Mode != domain.MirrorHorizontal {
		t.Errorf("mirror = %+v, want horizontal", s)
	}
}

func TestPipeline_DisplayFailure(t *testing.T) {
	rt := sim.New(nil)
	p := New(DefaultConfig(), rt, display.Static{}, WithSleeper(rt))

	err := p.Setup()
	if !errors.Is(err, domain.ErrInitialization) {
		t.Fatalf("Setup() error = %v, want ErrInitialization", err)
	}
}

func TestPipeline_HandleFailure(t *testing.T) {
	p, rt := newTestPipeline(t)
	rt.FailOn(sim.Fault{Op: sim.OpGetHandle, Component: domain.ComponentRender, Err: domain.ErrorInsufficientResources})

	err := p.Setup()
	if !errors.Is(err, domain.ErrInitialization) {
		t.Fatalf("Setup() error = %v, want ErrInitialization", err)
	}
}

func TestPipeline_Describe(t *testing.T) {
	p, rt := newTestPipeline(t)

	reports, err := p.Describe()
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(reports) != 8 {
		t.Fatalf("got %d port reports, want 8", len(reports))
	}
	domains := make(map[string]domain.PortDomain)
	for _, r := range reports {
		if r.Descriptor.Enabled {
			t.Errorf("%s port %d still enabled", r.Component, r.Descriptor.Index)
		}
		domains[fmt.Sprintf("%s:%d", r.Component, r.Descriptor.Index)] = r.Descriptor.Domain
	}
	wantDomains := map[string]domain.PortDomain{
		"camera:70":       domain.DomainVideo,
		"camera:72":       domain.DomainImage,
		"camera:73":       domain.DomainOther,
		"video_render:90": domain.DomainVideo,
	}
	for key, want := range wantDomains {
		if got := domains[key]; got != want {
			t.Errorf("%s domain = %v, want %v", key, got, want)
		}
	}
	if names := rt.HandleNames(); len(names) != 0 {
		t.Errorf("handles still open: %v", names)
	}
	if got := countCommands(rt, domain.CommandStateSet); got != 0 {
		t.Errorf("state changes = %d, want 0", got)
	}
}

func TestPipeline_TeardownCompletesAfterCancel(t *testing.T) {
	rt := sim.New(nil)
	runtimeCtx, stopRuntime := context.WithCancel(context.Background())
	defer stopRuntime()
	rt.Start(runtimeCtx, time.Millisecond)

	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	p := New(cfg, rt, display.NewStatic(1920, 1080), WithLogger(mockLogger{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Execute(ctx, nil) }()

	deadline := time.Now().Add(5 * time.Second)
	for p.Phase() != domain.PhaseStreaming {
		if time.Now().After(deadline) {
			t.Fatalf("phase = %v, never reached Streaming", p.Phase())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("teardown stuck in phase %v", p.Phase())
	}
	if p.Phase() != domain.PhaseReleased {
		t.Errorf("phase = %v, want Released", p.Phase())
	}
}

func TestPipeline_CaptureWaitsForCameraReady(t *testing.T) {
	rt := sim.New(nil)
	rt.Suppress(func(ev domain.Event) bool {
		return ev.Type == domain.EventParamOrConfigChanged && ev.Index == domain.IndexCameraDeviceNumber
	})

	// Give up waiting after a while by reporting a runtime error.
	sleeps := 0
	sleeper := ports.SleepFunc(func(_ time.Duration) {
		sleeps++
		if sleeps == 200 {
			rt.InjectError(domain.ComponentCamera, domain.ErrorHardware)
		}
		rt.Advance()
	})
	p := New(DefaultConfig(), rt, display.NewStatic(1920, 1080), WithSleeper(sleeper), WithLogger(mockLogger{}))

	err := p.Setup()
	if !errors.Is(err, domain.ErrRuntimeEvent) {
		t.Fatalf("Setup() error = %v, want ErrRuntimeEvent", err)
	}
	if sleeps < 200 {
		t.Fatalf("gave up after %d polls, want the camera-ready wait to keep polling", sleeps)
	}
	if got := rt.CountCalls(func(c sim.Call) bool { return c.Index == domain.IndexPortCapturing }); got != 0 {
		t.Errorf("capture switched %d times without camera ready, want 0", got)
	}
	if got := countCommands(rt, domain.CommandStateSet); got != 0 {
		t.Errorf("state changes without camera ready = %d, want 0", got)
	}
	if got := rt.CountCalls(func(c sim.Call) bool { return c.Index == domain.IndexDisplayRegion }); got != 0 {
		t.Errorf("render configured %d times without camera ready, want 0", got)
	}
	if p.Phase() != domain.PhaseFailed {
		t.Errorf("phase = %v, want Failed", p.Phase())
	}
}
