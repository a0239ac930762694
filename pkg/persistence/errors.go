// Package persistence provides standardized error types for store operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound indicates no record exists for the given entity id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// StoreError wraps store errors with operation context.
type StoreError struct {
	Op       string // Operation being performed ("Get", "Put", "HealthCheck")
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for entity %s: %v", e.Op, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
