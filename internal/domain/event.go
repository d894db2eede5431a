package domain

import "fmt"

// Command is an asynchronous request sent to a component.
type Command int

const (
	CommandStateSet Command = iota
	CommandFlush
	CommandPortDisable
	CommandPortEnable
)

func (c Command) String() string {
	switch c {
	case CommandStateSet:
		return "StateSet"
	case CommandFlush:
		return "Flush"
	case CommandPortDisable:
		return "PortDisable"
	case CommandPortEnable:
		return "PortEnable"
	default:
		return "Unknown"
	}
}

// EventType identifies the kind of runtime notification.
type EventType int

const (
	EventCmdComplete EventType = iota
	EventError
	EventPortSettingsChanged
	EventParamOrConfigChanged
	EventOther
)

func (t EventType) String() string {
	switch t {
	case EventCmdComplete:
		return "command complete"
	case EventError:
		return "error"
	case EventPortSettingsChanged:
		return "port settings changed"
	case EventParamOrConfigChanged:
		return "parameter or configuration changed"
	default:
		return "(no description)"
	}
}

// Event is a notification delivered by the runtime on its own goroutine or
// thread. Data1 and Data2 carry the raw payload words; the typed fields are
// filled in where the event type defines them.
type Event struct {
	Component string
	Type      EventType
	Data1     uint32
	Data2     uint32

	// Command is set for EventCmdComplete.
	Command Command
	// Index is set for EventParamOrConfigChanged.
	Index Index
	// Code is set for EventError.
	Code ErrorCode
}

func (e Event) String() string {
	return fmt.Sprintf("%s on %s (data1=0x%08x data2=0x%08x)", e.Type, e.Component, e.Data1, e.Data2)
}

// CommandComplete builds a command-complete event.
func CommandComplete(component string, cmd Command, data2 uint32) Event {
	return Event{Component: component, Type: EventCmdComplete, Command: cmd, Data1: uint32(cmd), Data2: data2}
}

// ParamChanged builds a parameter-changed event.
func ParamChanged(component string, port uint32, idx Index) Event {
	return Event{Component: component, Type: EventParamOrConfigChanged, Index: idx, Data1: port, Data2: uint32(idx)}
}

// ErrorEvent builds an error event.
func ErrorEvent(component string, code ErrorCode) Event {
	return Event{Component: component, Type: EventError, Code: code, Data1: uint32(code)}
}
