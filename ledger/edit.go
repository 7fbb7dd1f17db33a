/*
edit.go - Guarded mutations on a report

PURPOSE:
  Editor is the single write path for day, allocation and refund edits.
  It enforces the lifecycle rule that submitted/approved reports are
  read-only to workers, while administrators may bypass the guard for
  corrective edits. The engine itself stays oblivious to who is asking;
  callers decide Admin when they authenticate the actor.

Every successful edit reconciles the touched day and refreshes the cached
totals, keeping the persisted cache honest while the report is editable.
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Editor applies worker or administrative edits to one report.
type Editor struct {
	Report *Report
	Admin  bool
	Now    func() time.Time
}

// NewEditor wraps a report for non-administrative editing.
func NewEditor(r *Report) *Editor {
	return &Editor{Report: r, Now: time.Now}
}

func (e *Editor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Editor) guard() error {
	if e.Report.Frozen() && !e.Admin {
		return &FrozenError{
			WorkerID: e.Report.WorkerID,
			Year:     e.Report.Year,
			Month:    int(e.Report.Month),
			Status:   e.Report.Status,
		}
	}
	return nil
}

func (e *Editor) touch() {
	e.Report.RefreshTotals()
	e.Report.UpdatedAt = e.now()
}

// =============================================================================
// DAY EDITS
// =============================================================================

// SetDay writes the three shift pairs for a date, creating the day record
// lazily on first edit. When the day's total transitions from 0 to >0 and
// no allocations exist yet, one allocation is auto-created carrying the
// full total with no cost center. Returns the day's reconciliation.
func (e *Editor) SetDay(date DateKey, morning, afternoon, night Shift) (Reconciliation, error) {
	if err := e.guard(); err != nil {
		return Reconciliation{}, err
	}
	if e.Report.Days == nil {
		e.Report.Days = make(map[DateKey]DayRecord)
	}

	day, ok := e.Report.Days[date]
	if !ok {
		day = DayRecord{Date: date}
	}
	priorTotal := day.Total()

	day.Morning = morning
	day.Afternoon = afternoon
	day.Night = night

	var auto *Allocation
	if priorTotal == 0 && day.Total() > 0 && len(day.Allocations) == 0 {
		day.Allocations = append(day.Allocations, Allocation{
			ID:      AllocationID(uuid.NewString()),
			Minutes: day.Total(),
		})
		auto = &day.Allocations[0]
	}

	rec := Reconcile(day)
	rec.AutoCreated = auto
	e.Report.Days[date] = day
	e.touch()
	return rec, nil
}

// =============================================================================
// ALLOCATION EDITS
// =============================================================================

// AddAllocation appends a new split to the day. Sibling allocations are
// left untouched; any resulting over-allocation is advisory.
func (e *Editor) AddAllocation(date DateKey, costCenter *CostCenterRef, minutes int) (Reconciliation, error) {
	if err := e.guard(); err != nil {
		return Reconciliation{}, err
	}
	day, ok := e.Report.Days[date]
	if !ok {
		day = DayRecord{Date: date}
	}
	day.Allocations = append(day.Allocations, Allocation{
		ID:         AllocationID(uuid.NewString()),
		CostCenter: costCenter,
		Minutes:    minutes,
	})
	rec := Reconcile(day)
	e.Report.Days[date] = day
	e.touch()
	return rec, nil
}

// UpdateAllocation rewrites one allocation's cost center and minutes.
func (e *Editor) UpdateAllocation(date DateKey, id AllocationID, costCenter *CostCenterRef, minutes int) (Reconciliation, error) {
	if err := e.guard(); err != nil {
		return Reconciliation{}, err
	}
	day, ok := e.Report.Days[date]
	if !ok {
		return Reconciliation{}, ErrAllocationNotFound
	}
	found := false
	for i := range day.Allocations {
		if day.Allocations[i].ID == id {
			day.Allocations[i].CostCenter = costCenter
			day.Allocations[i].Minutes = minutes
			found = true
			break
		}
	}
	if !found {
		return Reconciliation{}, ErrAllocationNotFound
	}
	rec := Reconcile(day)
	e.Report.Days[date] = day
	e.touch()
	return rec, nil
}

// RemoveAllocation deletes one split by id.
func (e *Editor) RemoveAllocation(date DateKey, id AllocationID) (Reconciliation, error) {
	if err := e.guard(); err != nil {
		return Reconciliation{}, err
	}
	day, ok := e.Report.Days[date]
	if !ok {
		return Reconciliation{}, ErrAllocationNotFound
	}
	kept := day.Allocations[:0]
	found := false
	for _, a := range day.Allocations {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return Reconciliation{}, ErrAllocationNotFound
	}
	day.Allocations = kept
	rec := Reconcile(day)
	e.Report.Days[date] = day
	e.touch()
	return rec, nil
}
