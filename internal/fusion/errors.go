package fusion

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed candidate. Never retried.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid candidate: %s: %s", e.Field, e.Detail)
}

// UnknownCategoryError means the factory has no strategy registered for the
// category. Fatal to the merge, not to the process.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return "no strategy for category: " + e.Category
}

// TransientStorageError wraps a storage fetch/write failure. The merger
// retries these with backoff before surfacing them.
type TransientStorageError struct {
	Op  string
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

// StrategyError means a strategy could not decide on malformed content
// (e.g. a missing embedding). The candidate is discarded with the error
// recorded.
type StrategyError struct {
	Category Category
	Detail   string
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %s", e.Category, e.Detail)
}

// ConflictError means the per-key lock could not be acquired within the
// wait budget. The caller may resubmit.
type ConflictError struct {
	Category Category
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict: contention on %s/%s", e.Category, e.Key)
}

func IsTransient(err error) bool {
	var t *TransientStorageError
	return errors.As(err, &t)
}
