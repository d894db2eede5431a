package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every pipeline error wraps exactly one of these and none of
// them is recoverable.
var (
	// ErrInitialization is returned when the runtime cannot be initialized or
	// a component handle cannot be acquired.
	ErrInitialization = errors.New("initialization error")

	// ErrConfiguration is returned when a format or tuning get/set is rejected.
	ErrConfiguration = errors.New("configuration error")

	// ErrStateTransition is returned when a lifecycle or port transition is
	// rejected or requested out of order.
	ErrStateTransition = errors.New("state transition error")

	// ErrRuntimeEvent is returned when the runtime reports an error event.
	ErrRuntimeEvent = errors.New("runtime error event")

	// ErrResource is returned when a buffer cannot be allocated or freed.
	ErrResource = errors.New("resource error")
)

// Errors that are not runtime codes but still carry one of the kinds above.
var (
	ErrInvalidTransition   = errors.New("transition not allowed from current state")
	ErrPortAlreadyTunneled = errors.New("port already tunneled")
	ErrPortDisabled        = errors.New("port is disabled")
	ErrBufferFreed         = errors.New("buffer already freed")
)

// Error is a fatal pipeline error.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// NewError wraps err as a fatal error of the given kind for operation op.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying cause, usually an ErrorCode.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool { return target == e.Kind }

// ErrorCode is an error value reported by the component runtime.
type ErrorCode uint32

// Runtime error codes.
const (
	ErrorNone                     ErrorCode = 0
	ErrorInsufficientResources    ErrorCode = 0x80001000
	ErrorUndefined                ErrorCode = 0x80001001
	ErrorInvalidComponentName     ErrorCode = 0x80001002
	ErrorComponentNotFound        ErrorCode = 0x80001003
	ErrorInvalidComponent         ErrorCode = 0x80001004
	ErrorBadParameter             ErrorCode = 0x80001005
	ErrorNotImplemented           ErrorCode = 0x80001006
	ErrorHardware                 ErrorCode = 0x80001009
	ErrorInvalidState             ErrorCode = 0x8000100A
	ErrorPortsNotCompatible       ErrorCode = 0x8000100C
	ErrorNotReady                 ErrorCode = 0x80001010
	ErrorSameState                ErrorCode = 0x80001012
	ErrorIncorrectStateTransition ErrorCode = 0x80001017
	ErrorIncorrectStateOperation  ErrorCode = 0x80001018
	ErrorUnsupportedSetting       ErrorCode = 0x80001019
	ErrorUnsupportedIndex         ErrorCode = 0x8000101A
	ErrorBadPortIndex             ErrorCode = 0x8000101B
	ErrorPortUnpopulated          ErrorCode = 0x8000101C
)

// Description returns a short human readable description of the code.
func (c ErrorCode) Description() string {
	switch c {
	case ErrorNone:
		return "no error"
	case ErrorInsufficientResources:
		return "insufficient resource"
	case ErrorComponentNotFound:
		return "component not found"
	case ErrorBadParameter:
		return "bad parameter"
	case ErrorNotImplemented:
		return "not implemented"
	case ErrorHardware:
		return "hardware error"
	case ErrorInvalidState:
		return "invalid state"
	case ErrorPortsNotCompatible:
		return "ports not compatible"
	case ErrorSameState:
		return "already in requested state"
	case ErrorIncorrectStateOperation:
		return "invalid state while trying to perform command"
	case ErrorIncorrectStateTransition:
		return "unallowed state transition"
	case ErrorUnsupportedSetting:
		return "unsupported setting"
	case ErrorUnsupportedIndex:
		return "unsupported index"
	case ErrorBadPortIndex:
		return "bad port index, i.e. incorrect port"
	case ErrorPortUnpopulated:
		return "port unpopulated"
	default:
		return "(no description)"
	}
}

func (c ErrorCode) Error() string {
	return fmt.Sprintf("0x%08x %s", uint32(c), c.Description())
}
