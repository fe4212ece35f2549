package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrNilHandler is returned by Compose when the route has no handler.
	ErrNilHandler = errors.New("nil route handler")

	// ErrNoRequestValidator is returned by Compose when a route declares a
	// request schema but no validator is configured.
	ErrNoRequestValidator = errors.New("request schema declared but no validator configured")

	// ErrNoResponseValidator is returned by Compose when a route declares a
	// response schema but no validator is configured.
	ErrNoResponseValidator = errors.New("response schema declared but no validator configured")
)

// PanicError allows error hooks to detect and handle recovered panics.
// When the executor recovers a panic from a hook or the route handler, it
// wraps the panic in an error that implements this interface, providing
// access to the original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

// NewPanicError wraps a recovered panic value, capturing the stack at the
// call point. The router uses it for panics raised while rendering, after
// the pipeline itself has finished.
func NewPanicError(value any) PanicError {
	return newPanicError(value)
}

// panicError is the private implementation of PanicError interface.
type panicError struct {
	value any
	stack []byte
}

func newPanicError(value any) *panicError {
	return &panicError{value: value, stack: debug.Stack()}
}

// Error implements the error interface.
func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Value returns the original panic value.
func (e *panicError) Value() any {
	return e.value
}

// Stack returns the stack trace.
func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
