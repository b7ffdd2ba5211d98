package batch

import (
	"errors"
	"fmt"

	"github.com/3leaps/gofutures/pkg/calendar"
)

// ErrOperationPanic marks an item whose operation panicked.
var ErrOperationPanic = errors.New("operation panicked")

// SchedulingError reports a failure of the batch machinery itself, such as
// being unable to acquire a permit because the caller's context ended.
// It is fatal for the whole batch.
type SchedulingError struct {
	Err error
}

// Error implements the error interface.
func (e *SchedulingError) Error() string {
	return fmt.Sprintf("batch scheduling failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// ItemError reports the failure of a single work item. In FailFast mode it
// is returned from Run; in CollectAll mode it is recorded as a FailureRecord.
type ItemError struct {
	// Index is the item's submission position.
	Index int

	// Key is the contract period the item covered.
	Key calendar.ContractPeriod

	// Request describes the remote request that was attempted.
	Request string

	// Err is the operation's error.
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("contract %s: %v", e.Key.Symbol, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// IsSchedulingError returns true if err is or wraps a SchedulingError.
func IsSchedulingError(err error) bool {
	var target *SchedulingError
	return errors.As(err, &target)
}

// IsItemError returns true if err is or wraps an ItemError.
func IsItemError(err error) bool {
	var target *ItemError
	return errors.As(err, &target)
}
