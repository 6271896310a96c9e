package gpu

import (
	"errors"
	"fmt"
)

// ErrorCode accompanies every failed creation. Zero means success.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeInvalidArg
	CodeOutOfMemory
	CodeDeviceLost
	CodeUnsupported
	CodeBackend
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArg:
		return "InvalidArg"
	case CodeOutOfMemory:
		return "OutOfMemory"
	case CodeDeviceLost:
		return "DeviceLost"
	case CodeUnsupported:
		return "Unsupported"
	case CodeBackend:
		return "Backend"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

var (
	// ErrInvalidArg is returned for descriptions that violate the resource rules.
	ErrInvalidArg = errors.New("gpu: invalid argument")

	// ErrOutOfMemory is returned when the backend cannot allocate the object.
	ErrOutOfMemory = errors.New("gpu: out of memory")

	// ErrDeviceLost is returned by every creation on a lost device.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrUnsupported is returned for features the backend does not implement.
	ErrUnsupported = errors.New("gpu: unsupported")

	// ErrBackend wraps native API failures.
	ErrBackend = errors.New("gpu: backend failure")
)

func (c ErrorCode) sentinel() error {
	switch c {
	case CodeInvalidArg:
		return ErrInvalidArg
	case CodeOutOfMemory:
		return ErrOutOfMemory
	case CodeDeviceLost:
		return ErrDeviceLost
	case CodeUnsupported:
		return ErrUnsupported
	case CodeBackend:
		return ErrBackend
	}
	return nil
}

// Error is a creation failure with its code.
type Error struct {
	Op   string
	Code ErrorCode
	Err  error
}

// NewError builds an *Error. A nil err is replaced by the code's sentinel.
func NewError(op string, code ErrorCode, err error) *Error {
	if err == nil {
		err = code.sentinel()
	}
	return &Error{Op: op, Code: code, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("gpu: %s: %v (%s)", e.Op, e.Err, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error code, so errors.Is(err, ErrDeviceLost)
// holds for any *Error with CodeDeviceLost.
func (e *Error) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && target == s
}

// CodeOf extracts the error code. Errors wrapping one of the sentinels map
// to its code; CodeOK for nil and CodeBackend for anything else.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	for c := CodeInvalidArg; c < CodeBackend; c++ {
		if errors.Is(err, c.sentinel()) {
			return c
		}
	}
	return CodeBackend
}
