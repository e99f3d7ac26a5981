// Package errs defines the error taxonomy shared across the backend.
//
// Every operation classifies its failures into one of four kinds so the
// API layer can map them to responses without string matching:
//   - ErrInvalidArgument: caller passed something unacceptable
//   - ErrNotFound: unknown session id or missing bundled resource
//   - ErrOSResource: PTY open, spawn, or resize failed at the OS level
//   - ErrIO: read/write/flush failed on an open PTY
//
// Errors wrap both the sentinel and the underlying cause, so callers can
// use errors.Is against the sentinel while the message keeps the OS error
// text.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a rejected caller-supplied value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks an unknown session id or a missing bundled resource.
	ErrNotFound = errors.New("not found")

	// ErrOSResource marks a failed OS-level operation (PTY open, spawn, resize).
	ErrOSResource = errors.New("os resource error")

	// ErrIO marks a failed read or write on an open PTY.
	ErrIO = errors.New("i/o error")
)

// InvalidArgumentf builds an ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// OSResource wraps an OS-level failure, keeping the underlying error in the chain.
func OSResource(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOSResource, op, err)
}

// IO wraps a PTY read/write failure, keeping the underlying error in the chain.
func IO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
