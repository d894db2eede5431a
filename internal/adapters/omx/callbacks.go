//go:build omx

package omx

/*
#include "shim.h"
*/
import "C"

import (
	"runtime/cgo"

	"github.com/bft-labs/rpicamview/internal/domain"
)

// Raw OpenMAX IL event codes.
const (
	omxEventCmdComplete          = 0
	omxEventError                = 1
	omxEventPortSettingsChanged  = 3
	omxEventParamOrConfigChanged = 0x7F000001
)

// goEventHandler runs on a VideoCore thread for every component event.
//
//export goEventHandler
func goEventHandler(app C.uintptr_t, event, data1, data2 C.uint32_t) {
	h, ok := cgo.Handle(app).Value().(*Handle)
	if !ok || h.handler == nil {
		return
	}
	h.handler.HandleEvent(translate(h.name, uint32(event), uint32(data1), uint32(data2)))
}

func translate(component string, event, data1, data2 uint32) domain.Event {
	ev := domain.Event{Component: component, Data1: data1, Data2: data2}
	switch event {
	case omxEventCmdComplete:
		ev.Type = domain.EventCmdComplete
		ev.Command = domain.Command(data1)
	case omxEventError:
		ev.Type = domain.EventError
		ev.Code = domain.ErrorCode(data1)
	case omxEventPortSettingsChanged:
		ev.Type = domain.EventPortSettingsChanged
	case omxEventParamOrConfigChanged:
		ev.Type = domain.EventParamOrConfigChanged
		if data2 == uint32(C.OMX_IndexParamCameraDeviceNumber) {
			ev.Index = domain.IndexCameraDeviceNumber
		}
	default:
		ev.Type = domain.EventOther
	}
	return ev
}
