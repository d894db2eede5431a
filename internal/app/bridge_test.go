package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/rpicamview/internal/domain"
)

func TestEventBridge_FlushConsumedExactlyOnce(t *testing.T) {
	b := NewEventBridge(mockLogger{}, nil)

	if b.ConsumeFlushed() {
		t.Fatal("flush consumed before any completion")
	}
	b.HandleEvent(domain.CommandComplete("camera", domain.CommandFlush, 70))
	b.HandleEvent(domain.CommandComplete("camera", domain.CommandFlush, 71))
	b.HandleEvent(domain.CommandComplete("camera", domain.CommandStateSet, uint32(domain.StateIdle)))

	if !b.ConsumeFlushed() || !b.ConsumeFlushed() {
		t.Fatal("expected two flush completions")
	}
	if b.ConsumeFlushed() {
		t.Fatal("third flush consumed from two completions")
	}
}

func TestEventBridge_CameraReady(t *testing.T) {
	b := NewEventBridge(mockLogger{}, nil)

	b.HandleEvent(domain.ParamChanged("camera", domain.AllPorts, domain.IndexBrightness))
	if b.CameraReady() {
		t.Fatal("camera ready after unrelated parameter change")
	}
	b.HandleEvent(domain.ParamChanged("camera", domain.AllPorts, domain.IndexCameraDeviceNumber))
	if !b.CameraReady() {
		t.Fatal("camera not ready after device number change")
	}
}

func TestEventBridge_ErrorEvent(t *testing.T) {
	emitter := &mockEmitter{}
	b := NewEventBridge(mockLogger{}, emitter)

	select {
	case <-b.Done():
		t.Fatal("Done closed before any error")
	default:
	}

	b.HandleEvent(domain.ErrorEvent("video_render", domain.ErrorPortUnpopulated))
	b.HandleEvent(domain.ErrorEvent("camera", domain.ErrorHardware))

	select {
	case <-b.Done():
	default:
		t.Fatal("Done not closed after error event")
	}
	err := b.Err()
	if !errors.Is(err, domain.ErrRuntimeEvent) || !errors.Is(err, domain.ErrorPortUnpopulated) {
		t.Errorf("Err() = %v, want the first error event", err)
	}
	if len(emitter.runtime) != 2 {
		t.Errorf("emitted %d runtime events, want 2", len(emitter.runtime))
	}
}

func TestEventBridge_ConcurrentFlushes(t *testing.T) {
	b := NewEventBridge(mockLogger{}, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.HandleEvent(domain.CommandComplete("null_sink", domain.CommandFlush, 240))
		}()
	}
	wg.Wait()

	consumed := 0
	for b.ConsumeFlushed() {
		consumed++
	}
	if consumed != n {
		t.Errorf("consumed %d completions, want %d", consumed, n)
	}
}
