package store

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a lookup for an absent entity. Callers decide the
// fallback; it is never wrapped into a TransportError.
var ErrNotFound = errors.New("not found")

// TransportError wraps a failed round-trip to the backing store. The core
// never retries these; they surface to the caller unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input before it reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
