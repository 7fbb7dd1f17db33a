/*
reconcile.go - Allocation reconciliation

PURPOSE:
  Maintains the invariant that a day's worked minutes are fully attributed
  to one or more cost centers, tracking any unallocated remainder.

POLICY:
  - When a day's total first transitions from 0 to >0 with no allocations,
    one allocation is auto-created holding the full total with no cost
    center (see Editor.SetDay; the transition needs the day's prior state).
  - remainder = dayTotal - sum(allocation minutes), signed.
  - remainder > 0: time still owed to some cost center. Advisory.
  - remainder < 0: allocations exceed worked time. Advisory, never clamped.
  - Editing one allocation never rebalances its siblings.

Saving a report with nonzero remainder is always allowed; only submission
freezes allocations, and that is lifecycle.go's concern.
*/
package ledger

import "sort"

// Reconciliation is the outcome of reconciling one day. Remainder is signed:
// positive means unallocated time, negative means over-allocation.
type Reconciliation struct {
	Day       DateKey
	Total     int
	Allocated int
	Remainder int

	// AutoCreated is the allocation minted when the day first acquired
	// nonzero minutes, nil otherwise.
	AutoCreated *Allocation
}

// Unallocated reports whether worked time is still owed to a cost center.
func (r Reconciliation) Unallocated() bool { return r.Remainder > 0 }

// OverAllocated reports whether allocations exceed the worked total.
func (r Reconciliation) OverAllocated() bool { return r.Remainder < 0 }

// Advisory is a non-blocking signal surfaced to the worker. Advisories are
// deliberately distinct from errors: a report saves fine while they stand.
type Advisory struct {
	Code    string  `json:"code"`
	Day     DateKey `json:"day"`
	Minutes int     `json:"minutes"`
}

const (
	AdvisoryUnallocated   = "unallocated_time"
	AdvisoryOverAllocated = "over_allocation"
)

// Advisories renders the reconciliation's pending conditions.
func (r Reconciliation) Advisories() []Advisory {
	switch {
	case r.Unallocated():
		return []Advisory{{Code: AdvisoryUnallocated, Day: r.Day, Minutes: r.Remainder}}
	case r.OverAllocated():
		return []Advisory{{Code: AdvisoryOverAllocated, Day: r.Day, Minutes: -r.Remainder}}
	default:
		return nil
	}
}

// Reconcile computes the day's signed remainder. Pure: the day is not
// mutated and sibling allocations are never touched.
func Reconcile(day DayRecord) Reconciliation {
	total := day.Total()
	allocated := day.AllocatedMinutes()
	return Reconciliation{
		Day:       day.Date,
		Total:     total,
		Allocated: allocated,
		Remainder: total - allocated,
	}
}

// ReconcileAll reconciles every day of the report and returns the standing
// advisories in day order.
func ReconcileAll(r *Report) []Advisory {
	var advisories []Advisory
	for _, key := range sortedDayKeys(r.Days) {
		advisories = append(advisories, Reconcile(r.Days[key]).Advisories()...)
	}
	return advisories
}

func sortedDayKeys(days map[DateKey]DayRecord) []DateKey {
	keys := make([]DateKey, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	// DateKeys are ISO dates, so lexical order is chronological order.
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
