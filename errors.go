package crew

import (
	"errors"
	"fmt"
)

// Sentinel errors for recoverable per-iteration failures. The loop converts
// these into observation strings; they never abort a run.
var (
	// ErrUnknownTool is returned when a tool name is not in the registry.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool is returned when registering a tool whose name is
	// already taken within the same registry.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrToolPanicked is returned when a tool handler panicked. The panic
	// value is included in the wrapping error message.
	ErrToolPanicked = errors.New("tool panicked")
)

// FatalError marks a configuration or initialization defect that must abort
// the whole run: a prompt template that fails to execute, an LLM client that
// could not be constructed, a missing credential. Fatal errors are never
// converted into observations and are never retried internally.
//
// Use [IsFatal] to distinguish them from recoverable failures at the Run
// boundary.
type FatalError struct {
	// Op names the operation that failed, e.g. "prompt" or "vertex init".
	Op string

	// Msg is the actionable description shown to the caller.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal creates a FatalError with the given operation and message.
func Fatal(op, msg string) *FatalError {
	return &FatalError{Op: op, Msg: msg}
}

// Fatalw wraps an underlying error as a FatalError.
func Fatalw(op, msg string, err error) *FatalError {
	return &FatalError{Op: op, Msg: msg, Err: err}
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
