package ledger_test

import (
	"testing"
	"time"

	"github.com/fieldcrew/rd-engine/ledger"
)

// =============================================================================
// RECONCILIATION ARITHMETIC
// =============================================================================

func TestReconcile_FullyAllocated(t *testing.T) {
	// GIVEN: A 480-minute day split fully across two cost centers
	// WHEN: Reconciling
	// THEN: Remainder is zero and no advisories stand

	day := ledger.DayRecord{
		Date:    "2026-03-10",
		Morning: ledger.Shift{In: "08:00", Out: "16:00"},
		Allocations: []ledger.Allocation{
			{ID: "a", Minutes: 300},
			{ID: "b", Minutes: 180},
		},
	}

	rec := ledger.Reconcile(day)
	if rec.Remainder != 0 {
		t.Errorf("expected zero remainder, got %d", rec.Remainder)
	}
	if advisories := rec.Advisories(); len(advisories) != 0 {
		t.Errorf("expected no advisories, got %v", advisories)
	}
}

func TestReconcile_UnallocatedRemainder(t *testing.T) {
	// GIVEN: A 480-minute day with only 300 minutes attributed
	// WHEN: Reconciling
	// THEN: The positive remainder surfaces as an unallocated-time advisory

	day := ledger.DayRecord{
		Date:        "2026-03-10",
		Morning:     ledger.Shift{In: "08:00", Out: "16:00"},
		Allocations: []ledger.Allocation{{ID: "a", Minutes: 300}},
	}

	rec := ledger.Reconcile(day)
	if rec.Remainder != 180 {
		t.Fatalf("expected remainder 180, got %d", rec.Remainder)
	}
	if !rec.Unallocated() || rec.OverAllocated() {
		t.Error("expected unallocated state")
	}

	advisories := rec.Advisories()
	if len(advisories) != 1 || advisories[0].Code != ledger.AdvisoryUnallocated {
		t.Fatalf("expected one unallocated advisory, got %v", advisories)
	}
	if advisories[0].Minutes != 180 {
		t.Errorf("expected 180 advisory minutes, got %d", advisories[0].Minutes)
	}
}

func TestReconcile_OverAllocationIsAdvisoryNotClamped(t *testing.T) {
	// GIVEN: Allocations exceeding the worked total by 60 minutes
	// WHEN: Reconciling
	// THEN: The negative remainder is preserved and flagged, never clamped

	day := ledger.DayRecord{
		Date:        "2026-03-11",
		Morning:     ledger.Shift{In: "08:00", Out: "12:00"},
		Allocations: []ledger.Allocation{{ID: "a", Minutes: 300}},
	}

	rec := ledger.Reconcile(day)
	if rec.Remainder != -60 {
		t.Fatalf("expected remainder -60, got %d", rec.Remainder)
	}
	if !rec.OverAllocated() {
		t.Error("expected over-allocated state")
	}

	advisories := rec.Advisories()
	if len(advisories) != 1 || advisories[0].Code != ledger.AdvisoryOverAllocated {
		t.Fatalf("expected one over-allocation advisory, got %v", advisories)
	}
	if advisories[0].Minutes != 60 {
		t.Errorf("expected 60 advisory minutes, got %d", advisories[0].Minutes)
	}
}

func TestReconcile_DoesNotMutateDay(t *testing.T) {
	// Reconcile is a pure read: removing the last allocation must not
	// resurrect anything on the next reconciliation.
	day := ledger.DayRecord{
		Date:    "2026-03-12",
		Morning: ledger.Shift{In: "08:00", Out: "12:00"},
	}

	rec := ledger.Reconcile(day)
	if len(day.Allocations) != 0 {
		t.Fatal("Reconcile mutated the day's allocations")
	}
	if rec.Remainder != 240 {
		t.Errorf("expected remainder 240, got %d", rec.Remainder)
	}
}

func TestReconcileAll_AdvisoriesInDayOrder(t *testing.T) {
	// GIVEN: A report with advisory conditions on the 20th and the 3rd
	// WHEN: Reconciling the whole report
	// THEN: Advisories come back chronologically

	r := ledger.NewReport("w1", 2026, time.March)
	r.Days["2026-03-20"] = ledger.DayRecord{
		Date:    "2026-03-20",
		Morning: ledger.Shift{In: "08:00", Out: "12:00"},
	}
	r.Days["2026-03-03"] = ledger.DayRecord{
		Date:        "2026-03-03",
		Morning:     ledger.Shift{In: "08:00", Out: "10:00"},
		Allocations: []ledger.Allocation{{ID: "a", Minutes: 200}},
	}

	advisories := ledger.ReconcileAll(r)
	if len(advisories) != 2 {
		t.Fatalf("expected 2 advisories, got %d", len(advisories))
	}
	if advisories[0].Day != "2026-03-03" || advisories[1].Day != "2026-03-20" {
		t.Errorf("advisories out of order: %v", advisories)
	}
	if advisories[0].Code != ledger.AdvisoryOverAllocated {
		t.Errorf("expected over-allocation first, got %s", advisories[0].Code)
	}
}
