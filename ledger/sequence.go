/*
sequence.go - Collision-free sequential record identifiers

PURPOSE:
  New master records (projects, suppliers, residents, ...) carry
  human-readable identifiers like "PRJ-0001". The counter behind each
  prefix must be incremented atomically: two concurrent callers on the
  same prefix never receive the same number, and no number is skipped on
  a successful call.

CONCURRENCY:
  This is the only operation in the engine requiring true cross-actor
  atomicity. AtomicCounter implementations provide an all-or-nothing
  read-increment-write with transparent retry on write-write conflict up
  to a bounded budget; a crash mid-attempt is safe because the retry
  restarts from a clean read. When the budget is exhausted the failure
  surfaces as ErrSequenceUnavailable and the caller must NOT fabricate an
  identifier itself.

SEE ALSO:
  - ledger/store/memory.go: in-process mutex implementation
  - store/sqlite: transactional implementation with busy retry
*/
package ledger

import (
	"context"
	"fmt"
)

// AtomicCounter increments a named counter atomically and returns the new
// value. The first increment of an absent prefix returns 1. Counters are
// never decremented or deleted in normal operation.
type AtomicCounter interface {
	Increment(ctx context.Context, prefix string) (uint64, error)
}

// Sequencer mints formatted sequential identifiers on top of an
// AtomicCounter.
type Sequencer struct {
	Counter AtomicCounter
}

func NewSequencer(counter AtomicCounter) *Sequencer {
	return &Sequencer{Counter: counter}
}

// NextID allocates the next identifier for a prefix, formatted
// "{prefix}-{count:04d}". The count pads to four digits and overflows
// naturally past 9999.
func (s *Sequencer) NextID(ctx context.Context, prefix string) (string, error) {
	n, err := s.Counter.Increment(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("%w: prefix %q: %v", ErrSequenceUnavailable, prefix, err)
	}
	return FormatSequentialID(prefix, n), nil
}

// FormatSequentialID renders a counter value as a record identifier.
func FormatSequentialID(prefix string, n uint64) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}
