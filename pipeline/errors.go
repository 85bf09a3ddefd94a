package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ServiceFailure is returned by Processor.Execute when a service fails. Stage
// is the 0-based position of the failing service and Err is the error it
// returned, unchanged (errors.Is and errors.As see through it).
type ServiceFailure struct {
	Stage   int
	Service string
	Err     error
}

func (e *ServiceFailure) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Stage, e.Service, e.Err)
}

func (e *ServiceFailure) Unwrap() error { return e.Err }

// AsServiceFailure reports whether err is or wraps a *ServiceFailure.
func AsServiceFailure(err error) (*ServiceFailure, bool) {
	var sf *ServiceFailure
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}

// PanicError carries a recovered panic value and the stack at the point of
// recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
