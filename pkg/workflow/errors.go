package workflow

import "errors"

var (
	// ErrApprovalNotFound means the approval id is unknown or already
	// resolved. Concurrent reviewers racing on one approval see exactly one
	// winner; the losers get this error.
	ErrApprovalNotFound = errors.New("approval not found")

	// ErrApprovalExpired means the approval outlived its TTL before the
	// reviewer decided. The execution is failed, not resumed.
	ErrApprovalExpired = errors.New("approval has expired")

	// ErrExecutionNotFound means no in-flight or recorded execution has the
	// given id.
	ErrExecutionNotFound = errors.New("execution not found")
)

// errActionPanic marks a recovered handler panic. Panics are never retried.
var errActionPanic = errors.New("panicked")
