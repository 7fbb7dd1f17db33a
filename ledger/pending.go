/*
pending.go - Debounced pending-write queue

PURPOSE:
  Report edits arrive in rapid bursts (a worker tabbing through clock
  fields). Rather than persisting every keystroke, edits coalesce into a
  single write per document after a short quiescence window. The policy is
  last-write-wins per key: enqueueing replaces any not-yet-fired write for
  the same key and restarts its timer.

THE RACE, DOCUMENTED:
  There is no locking between sessions. Two actors editing the same report
  each hold their own pending write; whichever lands last in the store
  wins in full. This engine makes the race explicit instead of hiding it.

CANCELLATION:
  Navigating away is modeled as Abandon: the pending write is dropped and
  its timer stopped. There is no other cancellation API. Write failures
  are surfaced through OnError and are not retried here; the caller may
  re-trigger.
*/
package ledger

import (
	"context"
	"sync"
	"time"
)

// DefaultQuiescence is the coalescing window applied when none is given.
const DefaultQuiescence = time.Second

// WriteFunc persists the current state of one document.
type WriteFunc func(ctx context.Context) error

// PendingWrites coalesces rapid mutations into one persisted write per key.
type PendingWrites struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pendingWrite

	// OnError receives failures from timer-fired writes. Optional.
	OnError func(key string, err error)
}

type pendingWrite struct {
	fn    WriteFunc
	timer *time.Timer
}

// NewPendingWrites creates a queue with the given quiescence window.
func NewPendingWrites(window time.Duration) *PendingWrites {
	if window <= 0 {
		window = DefaultQuiescence
	}
	return &PendingWrites{
		window:  window,
		pending: make(map[string]*pendingWrite),
	}
}

// Enqueue schedules fn to run after the quiescence window. A pending write
// for the same key is replaced and its timer restarted: last write wins.
func (p *PendingWrites) Enqueue(key string, fn WriteFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.pending[key]; ok {
		w.fn = fn
		w.timer.Reset(p.window)
		return
	}

	w := &pendingWrite{fn: fn}
	w.timer = time.AfterFunc(p.window, func() { p.fire(key) })
	p.pending[key] = w
}

func (p *PendingWrites) fire(key string) {
	p.mu.Lock()
	w, ok := p.pending[key]
	if ok {
		delete(p.pending, key)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	if err := w.fn(context.Background()); err != nil && p.OnError != nil {
		p.OnError(key, err)
	}
}

// Flush runs the pending write for key immediately, if any, and returns
// its result. The timer is stopped first so the write runs exactly once.
func (p *PendingWrites) Flush(ctx context.Context, key string) error {
	p.mu.Lock()
	w, ok := p.pending[key]
	if ok {
		w.timer.Stop()
		delete(p.pending, key)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return w.fn(ctx)
}

// FlushAll drains every pending write, returning the first error.
func (p *PendingWrites) FlushAll(ctx context.Context) error {
	p.mu.Lock()
	keys := make([]string, 0, len(p.pending))
	for k := range p.pending {
		keys = append(keys, k)
	}
	p.mu.Unlock()

	var first error
	for _, k := range keys {
		if err := p.Flush(ctx, k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Abandon drops the pending write for key without running it.
func (p *PendingWrites) Abandon(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.pending[key]; ok {
		w.timer.Stop()
		delete(p.pending, key)
	}
}

// Pending reports whether a write is queued for key.
func (p *PendingWrites) Pending(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[key]
	return ok
}
