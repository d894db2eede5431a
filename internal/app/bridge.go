package app

import (
	"sync"

	"github.com/bft-labs/rpicamview/internal/domain"
	"github.com/bft-labs/rpicamview/internal/ports"
)

// EventBridge receives runtime events on the runtime's goroutines and turns
// them into the shared signal state polled by the orchestrator.
//
// All flag mutations, and every read that resets a flag, happen under mu.
type EventBridge struct {
	mu          sync.Mutex
	cameraReady bool
	// flushed counts flush completions not yet consumed by a waiter.
	flushed int
	err     error
	done    chan struct{}

	logger  ports.Logger
	emitter ports.EventEmitter
}

// NewEventBridge creates a bridge. emitter may be nil.
func NewEventBridge(logger ports.Logger, emitter ports.EventEmitter) *EventBridge {
	return &EventBridge{
		done:    make(chan struct{}),
		logger:  logger,
		emitter: emitter,
	}
}

// HandleEvent implements ports.EventHandler.
func (b *EventBridge) HandleEvent(ev domain.Event) {
	b.logger.Info("received event",
		ports.String("component", ev.Component),
		ports.String("event", ev.Type.String()),
		ports.Hex("data1", ev.Data1),
		ports.Hex("data2", ev.Data2),
	)
	if b.emitter != nil {
		b.emitter.OnRuntimeEvent(ev)
	}

	switch ev.Type {
	case domain.EventCmdComplete:
		b.mu.Lock()
		if ev.Command == domain.CommandFlush {
			b.flushed++
		}
		b.mu.Unlock()
	case domain.EventParamOrConfigChanged:
		b.mu.Lock()
		if ev.Index == domain.IndexCameraDeviceNumber {
			b.cameraReady = true
		}
		b.mu.Unlock()
	case domain.EventError:
		b.fail(domain.NewError(domain.ErrRuntimeEvent, "error event received from "+ev.Component, ev.Code))
	}
}

// fail records the first fatal error and releases Done.
func (b *EventBridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return
	}
	b.err = err
	close(b.done)
}

// CameraReady reports whether the camera signalled its device number change.
func (b *EventBridge) CameraReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cameraReady
}

// ConsumeFlushed consumes one pending flush completion, if any.
// The check and the decrement happen in the same critical section so a
// completion arriving concurrently is never lost.
func (b *EventBridge) ConsumeFlushed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed == 0 {
		return false
	}
	b.flushed--
	return true
}

// Err returns the fatal error reported by the runtime, if any.
func (b *EventBridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done is closed once the runtime reported an error event.
func (b *EventBridge) Done() <-chan struct{} {
	return b.done
}
