/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Advisory conditions (unallocated time, over-allocation, pending invoice)
  are NOT errors; they live in reconcile.go as value-level signals.

ERROR CATEGORIES:
  1. Validation errors - a transition's precondition is missing
  2. Permission errors - worker mutation of a frozen report
  3. Concurrency errors - counter transaction conflicts
  4. Store errors - missing documents, transient I/O

USAGE:
  if errors.Is(err, ledger.ErrReportFrozen) { ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrReportFrozen is returned when a non-administrative actor mutates a
	// submitted or approved report.
	ErrReportFrozen = errors.New("report is submitted and read-only")

	// ErrInvoiceRequired is returned when a non-exempt worker submits
	// without an attached invoice. Rejected locally; no partial change.
	ErrInvoiceRequired = errors.New("invoice required before submission")

	// ErrInvalidTransition is returned for lifecycle moves the state
	// machine does not define (e.g. approving a draft).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSequenceUnavailable is returned when the counter transaction could
	// not be committed within the retry budget. Callers must not fabricate
	// an identifier themselves.
	ErrSequenceUnavailable = errors.New("could not allocate a safe sequential identifier")

	// ErrConflict is returned by counter stores on a write-write collision;
	// stores retry it internally up to their budget.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrReportNotFound is returned when no report exists for a slot.
	ErrReportNotFound = errors.New("report not found")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrRefundNotFound is returned when a refund id is absent from the
	// report's refund list.
	ErrRefundNotFound = errors.New("refund item not found")

	// ErrAllocationNotFound is returned when an allocation id is absent
	// from the day's allocation list.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrInvalidRefund is returned when a refund item is missing required
	// fields for its kind.
	ErrInvalidRefund = errors.New("invalid refund item")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RefundValidationError lists the required fields missing from a refund.
type RefundValidationError struct {
	Kind    RefundKind
	Missing []string
}

func (e *RefundValidationError) Error() string {
	return fmt.Sprintf("invalid %s refund: missing %v", e.Kind, e.Missing)
}

func (e *RefundValidationError) Unwrap() error { return ErrInvalidRefund }

// FrozenError reports which report rejected a worker mutation.
type FrozenError struct {
	WorkerID WorkerID
	Year     int
	Month    int
	Status   Status
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("report %s/%d-%d is %s and read-only", e.WorkerID, e.Year, e.Month, e.Status)
}

func (e *FrozenError) Unwrap() error { return ErrReportFrozen }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a guard rejection, as opposed to store trouble.
func IsClientError(err error) bool {
	return errors.Is(err, ErrReportFrozen) ||
		errors.Is(err, ErrInvoiceRequired) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidRefund)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReportNotFound) ||
		errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrRefundNotFound) ||
		errors.Is(err, ErrAllocationNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
