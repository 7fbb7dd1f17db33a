/*
Package ledger provides the core daily time-ledger and reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms behind a contractor's
  monthly daily-time report ("RD"): converting raw clock-in/clock-out pairs
  into minute totals, attributing those minutes to cost centers, tracking
  itemized expense refunds, and driving the report through its submission
  lifecycle.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift/DayRecord: one day's raw clock pairs and its cost-center splits
  - Allocation: a (cost center, minutes) split of a day's worked time
  - Report: one worker's month — days, invoice, refunds, cached totals
  - RefundItem: a cash or fuel expense line, fuel value being derived
  - CostCenterRef: a billable cost center inside an operation group

DESIGN PRINCIPLES:
  1. Derived values stay derived: totals are recomputed from clock pairs;
     the cached TotalMinutes/DaysWorked are frozen only on submission.
  2. Precision: monetary values use decimal.Decimal, never float64.
  3. Advisory over fatal: unallocated or over-allocated time is a signal
     the worker resolves, not an error that blocks saving.

SEE ALSO:
  - reconcile.go: allocation reconciliation and remainder tracking
  - lifecycle.go: submission guard and administrative transitions
  - refund.go: refund ledger operations and the fuel value derivation
  - store.go: persistence interfaces
*/
package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type AllocationID string
type RefundID string

// DateKey identifies a calendar day inside a report, formatted "2006-01-02".
type DateKey string

func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
}

func (k DateKey) Time() (time.Time, error) {
	return time.Parse("2006-01-02", string(k))
}

// MonthKey is the storage key for one worker's month, e.g. "2026-3".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}

// =============================================================================
// WORKER - The owner of a report
// =============================================================================

type ContractType string

const (
	ContractContractor ContractType = "contractor" // must attach an invoice to submit
	ContractSalaried   ContractType = "salaried"   // invoice exempt
)

// InvoiceExempt reports whether this contract type may submit without an
// attached invoice.
func (c ContractType) InvoiceExempt() bool { return c == ContractSalaried }

type Worker struct {
	ID       WorkerID
	Name     string
	Company  string // legal entity name, matched against invoice text
	Contract ContractType
	Archived bool
}

// =============================================================================
// SHIFTS AND DAYS
// =============================================================================

// Shift is one clock-in/clock-out pair in "HH:MM" local time.
// Empty strings mean the shift was not worked.
type Shift struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// Minutes returns the elapsed minutes of the shift, wrapping past midnight.
func (s Shift) Minutes() int { return ElapsedMinutes(s.In, s.Out) }

// DayRecord holds one day's raw clock pairs and its allocation splits.
// Created lazily on first edit; deleted only with the whole report.
type DayRecord struct {
	Date        DateKey      `json:"date"`
	Morning     Shift        `json:"morning"`
	Afternoon   Shift        `json:"afternoon"`
	Night       Shift        `json:"night"`
	Allocations []Allocation `json:"allocations,omitempty"`
}

// Total returns the day's worked minutes across all three shifts.
func (d DayRecord) Total() int {
	return d.Morning.Minutes() + d.Afternoon.Minutes() + d.Night.Minutes()
}

// AllocatedMinutes returns the sum of minutes attributed to cost centers.
func (d DayRecord) AllocatedMinutes() int {
	sum := 0
	for _, a := range d.Allocations {
		sum += a.Minutes
	}
	return sum
}

// =============================================================================
// COST CENTERS
// =============================================================================

// CostCenterRef identifies a cost center ("sub-operation") inside an
// operation group. SequenceCode orders cost centers within their group and
// doubles as the deterministic export ordering key.
type CostCenterRef struct {
	Group        string `json:"group"`
	SequenceCode int    `json:"sequenceCode"`
	LedgerCode   string `json:"ledgerCode"`
	Name         string `json:"name"`
}

// Allocation attributes a slice of a day's worked minutes to a cost center.
// A nil CostCenter means the minutes are not yet attributed anywhere.
type Allocation struct {
	ID         AllocationID   `json:"id"`
	CostCenter *CostCenterRef `json:"costCenter,omitempty"`
	Minutes    int            `json:"minutes"`
}

// =============================================================================
// INVOICE
// =============================================================================

// Invoice is the worker's attached fiscal document for the month.
// Issuer and Value come from best-effort text extraction and may hold
// sentinel values; a failed extraction never blocks the attachment.
type Invoice struct {
	URL      string          `json:"url"`
	Issuer   string          `json:"issuer"`
	Value    decimal.Decimal `json:"value"`
	Rejected bool            `json:"rejected"`
}

// =============================================================================
// REFUNDS
// =============================================================================

type RefundKind string

const (
	RefundCash RefundKind = "cash"
	RefundFuel RefundKind = "fuel"
)

// RefundItem is one expense line in a report's reimbursement sub-ledger.
//
// For RefundCash the Value is entered directly. For RefundFuel the Value is
// derived from DistanceKm, ConsumptionKmL and PricePerLitre and is nil
// whenever any of the three inputs is missing or non-positive.
type RefundItem struct {
	ID         RefundID         `json:"id"`
	Kind       RefundKind       `json:"kind"`
	Date       DateKey          `json:"date"`
	CostCenter *CostCenterRef   `json:"costCenter,omitempty"`
	Category   string           `json:"category,omitempty"`
	Value      *decimal.Decimal `json:"value,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`

	// Cash-specific
	City string `json:"city,omitempty"`
	Note string `json:"note,omitempty"`

	// Fuel-specific
	Origin         string          `json:"origin,omitempty"`
	Destination    string          `json:"destination,omitempty"`
	VehicleType    string          `json:"vehicleType,omitempty"`
	FuelType       string          `json:"fuelType,omitempty"`
	FuelCity       string          `json:"fuelCity,omitempty"`
	DistanceKm     decimal.Decimal `json:"distanceKm,omitempty"`
	PricePerLitre  decimal.Decimal `json:"pricePerLitre,omitempty"`
	ConsumptionKmL decimal.Decimal `json:"consumptionKmL,omitempty"`
}

// =============================================================================
// REPORT - One worker's month
// =============================================================================

type Status string

const (
	StatusDraft           Status = "draft"
	StatusAssigned        Status = "assigned"
	StatusSubmitted       Status = "submitted"
	StatusApproved        Status = "approved"
	StatusRejectedInvoice Status = "rejected-invoice"
)

// Report is the monthly daily-time-and-expense record for one worker.
// Identity is (WorkerID, Year, Month); at most one per slot.
type Report struct {
	WorkerID WorkerID              `json:"workerId"`
	Year     int                   `json:"year"`
	Month    time.Month            `json:"month"`
	Status   Status                `json:"status"`
	Days     map[DateKey]DayRecord `json:"days"`

	// Operation is the cost-center group attached to the whole report,
	// copied from the per-worker assignment table at read time when the
	// report itself has none.
	Operation  string         `json:"operation,omitempty"`
	CostCenter *CostCenterRef `json:"costCenter,omitempty"`

	Invoice *Invoice     `json:"invoice,omitempty"`
	Refunds []RefundItem `json:"refunds,omitempty"`

	// Cached totals, recomputed on every save while editable and frozen
	// from the computed values at submission time.
	TotalMinutes int `json:"totalMinutes"`
	DaysWorked   int `json:"daysWorked"`

	SubmittedAt time.Time `json:"submittedAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewReport creates an empty draft for the given slot.
func NewReport(worker WorkerID, year int, month time.Month) *Report {
	return &Report{
		WorkerID: worker,
		Year:     year,
		Month:    month,
		Status:   StatusDraft,
		Days:     make(map[DateKey]DayRecord),
	}
}

// Key returns the report's storage key within its worker scope.
func (r *Report) Key() string { return MonthKey(r.Year, r.Month) }

// Clone deep-copies the report through its JSON shape so the copy shares
// no maps, slices or pointers with the original. Concurrent actors each
// edit their own copy; whichever document is stored last wins in full.
func (r *Report) Clone() *Report {
	raw, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	var out Report
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	if out.Days == nil {
		out.Days = make(map[DateKey]DayRecord)
	}
	return &out
}

// Frozen reports whether the record is read-only to the worker.
func (r *Report) Frozen() bool {
	return r.Status == StatusSubmitted || r.Status == StatusApproved
}

// ComputeTotals derives the month's worked minutes and worked-day count
// from the raw clock pairs. Days with zero minutes do not count as worked.
func (r *Report) ComputeTotals() (totalMinutes, daysWorked int) {
	for _, day := range r.Days {
		m := day.Total()
		if m > 0 {
			totalMinutes += m
			daysWorked++
		}
	}
	return totalMinutes, daysWorked
}

// RefreshTotals recomputes and stores the cached totals. Callers must not
// invoke this on a frozen report; submission freezes the cache.
func (r *Report) RefreshTotals() {
	r.TotalMinutes, r.DaysWorked = r.ComputeTotals()
}

// FindRefund returns the index of the refund with the given id, or -1.
func (r *Report) FindRefund(id RefundID) int {
	for i := range r.Refunds {
		if r.Refunds[i].ID == id {
			return i
		}
	}
	return -1
}
