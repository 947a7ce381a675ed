package toolserver

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolserver. Use errors.Is to check.
var (
	ErrToolNotFound       = errors.New("tool not found")
	ErrDuplicateTool      = errors.New("duplicate tool name")
	ErrEmptyPrompt        = errors.New("empty prompt")
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrBackendTimeout     = errors.New("backend timeout")
	ErrBackendStatus      = errors.New("backend returned non-success status")
	ErrValidation         = errors.New("validation failed")
	ErrShutdown           = errors.New("dispatcher is shutting down")
)

// ClientError is an error caused by the caller's input (wrong argument type, schema violation).
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, broken invariant).
// Callers should not see the underlying message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapDecodeError returns a ClientError for argument decoding failures.
func wrapDecodeError(err error) error {
	return &ClientError{Reason: "argument decode error: " + err.Error(), Err: ErrValidation}
}
