package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldcrew/rd-engine/ledger"
)

func TestPendingWrites_BurstCoalescesToLastWrite(t *testing.T) {
	// GIVEN: Ten rapid enqueues for the same document
	// WHEN: The quiescence window elapses
	// THEN: Exactly one write fires, carrying the last enqueued state

	p := ledger.NewPendingWrites(20 * time.Millisecond)

	var fired int32
	var last int32
	done := make(chan struct{}, 10)

	for i := 1; i <= 10; i++ {
		i := i
		p.Enqueue("w1/2026-3", func(ctx context.Context) error {
			atomic.AddInt32(&fired, 1)
			atomic.StoreInt32(&last, int32(i))
			done <- struct{}{}
			return nil
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pending write never fired")
	}
	// Give a straggler timer a moment to double-fire if it were going to.
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expected exactly one write, got %d", got)
	}
	if got := atomic.LoadInt32(&last); got != 10 {
		t.Errorf("expected the last enqueued write to win, got #%d", got)
	}
}

func TestPendingWrites_FlushRunsImmediatelyOnce(t *testing.T) {
	// GIVEN: A queued write well inside its window
	// WHEN: Flushing
	// THEN: It runs synchronously, and the timer never fires it again

	p := ledger.NewPendingWrites(time.Hour)

	var fired int32
	p.Enqueue("w1/2026-3", func(ctx context.Context) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})

	if err := p.Flush(context.Background(), "w1/2026-3"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected one synchronous write, got %d", got)
	}
	if p.Pending("w1/2026-3") {
		t.Error("flushed key must no longer be pending")
	}

	// Flushing an absent key is a no-op.
	if err := p.Flush(context.Background(), "w1/2026-3"); err != nil {
		t.Errorf("flush of absent key errored: %v", err)
	}
}

func TestPendingWrites_AbandonDropsWithoutRunning(t *testing.T) {
	p := ledger.NewPendingWrites(20 * time.Millisecond)

	var fired int32
	p.Enqueue("w1/2026-3", func(ctx context.Context) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})
	p.Abandon("w1/2026-3")

	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Errorf("abandoned write must not run, fired %d times", got)
	}
	if p.Pending("w1/2026-3") {
		t.Error("abandoned key must not be pending")
	}
}

func TestPendingWrites_IndependentKeys(t *testing.T) {
	// Writes for different documents never coalesce with each other.
	p := ledger.NewPendingWrites(time.Hour)

	var mu sync.Mutex
	ran := map[string]bool{}
	record := func(key string) ledger.WriteFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			ran[key] = true
			mu.Unlock()
			return nil
		}
	}

	p.Enqueue("w1/2026-3", record("w1/2026-3"))
	p.Enqueue("w2/2026-3", record("w2/2026-3"))

	if err := p.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	if !ran["w1/2026-3"] || !ran["w2/2026-3"] {
		t.Errorf("expected both documents written, got %v", ran)
	}
}

func TestPendingWrites_TimerFailureReachesOnError(t *testing.T) {
	// GIVEN: A write that fails when its timer fires
	// WHEN: The window elapses
	// THEN: The failure reaches OnError with the document key

	p := ledger.NewPendingWrites(10 * time.Millisecond)

	failure := errors.New("store unavailable")
	got := make(chan error, 1)
	p.OnError = func(key string, err error) {
		if key == "w1/2026-3" {
			got <- err
		}
	}

	p.Enqueue("w1/2026-3", func(ctx context.Context) error { return failure })

	select {
	case err := <-got:
		if !errors.Is(err, failure) {
			t.Errorf("expected the write's error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("OnError never called")
	}
}
