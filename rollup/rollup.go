/*
Package rollup aggregates monthly reports across workers.

PURPOSE:
  Two cross-worker views feed the back office: the hours matrix (worked
  minutes per worker per cost center, the payroll export) and the cost
  rollup (invoice plus refund money per cost center). Both are pure reads
  over report documents plus reference snapshots; nothing here mutates.

RESOLUTION ORDER:
  A report's minutes land in exactly one bucket, resolved in order:
    1. the cost center pinned on the report itself
    2. the report's operation group, or the worker's assignment for that
       month when the report carries none
    3. that group's lowest-ordered cost center
    4. the raw group name as a literal bucket (group unknown to the catalog)
  Only reports with worked minutes contribute.

ORDERING:
  Output is deterministic: cost-center columns follow catalog order (group
  name, then sequence code), literal buckets follow sorted by name; worker
  rows sort by display name.
*/
package rollup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fieldcrew/rd-engine/ledger"
)

// Source is the slice of the store the rollup engine reads from.
type Source interface {
	ledger.ReportStore
	ledger.WorkerStore
	ledger.AssignmentStore
	ledger.CatalogStore
}

// Engine computes cross-worker aggregations over a Source.
type Engine struct {
	Store Source
}

func NewEngine(store Source) *Engine {
	return &Engine{Store: store}
}

// =============================================================================
// BUCKETS - where a report's minutes or money land
// =============================================================================

// Bucket is one aggregation column. Literal buckets (group names not found
// in the catalog) carry the name in both fields and no ledger code.
type Bucket struct {
	Group      string `json:"group"`
	Name       string `json:"name"`
	LedgerCode string `json:"ledgerCode,omitempty"`
}

func bucketFor(cc ledger.CostCenterRef) Bucket {
	return Bucket{Group: cc.Group, Name: cc.Name, LedgerCode: cc.LedgerCode}
}

func literalBucket(group string) Bucket {
	return Bucket{Group: group, Name: group}
}

// resolveBucket applies the resolution order for one report.
func resolveBucket(r *ledger.Report, assignments ledger.AssignmentMap, catalog *ledger.Catalog) (Bucket, bool) {
	if r.CostCenter != nil {
		return bucketFor(*r.CostCenter), true
	}
	group := r.Operation
	if group == "" && assignments != nil {
		group = assignments.For(r.Year, r.Month)
	}
	if group == "" {
		return Bucket{}, false
	}
	if cc, ok := catalog.FirstCostCenter(group); ok {
		return bucketFor(cc), true
	}
	return literalBucket(group), true
}

// orderedBuckets lays out columns: catalog cost centers first in catalog
// order, then any literal buckets sorted by name.
func orderedBuckets(catalog *ledger.Catalog, seen map[Bucket]bool) []Bucket {
	var out []Bucket
	known := make(map[Bucket]bool)
	for _, cc := range catalog.OrderedCostCenters() {
		b := bucketFor(cc)
		if seen[b] {
			out = append(out, b)
			known[b] = true
		}
	}
	var extras []Bucket
	for b := range seen {
		if !known[b] {
			extras = append(extras, b)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i].Name < extras[j].Name })
	return append(out, extras...)
}

// =============================================================================
// HOURS MATRIX
// =============================================================================

// WorkerHours is one row of the matrix: a worker's minutes per bucket.
type WorkerHours struct {
	WorkerID ledger.WorkerID `json:"workerId"`
	Name     string          `json:"name"`
	Minutes  map[Bucket]int  `json:"-"`
	Cells    []int           `json:"minutes"`
	Total    int             `json:"totalMinutes"`
}

// HoursMatrix is the payroll export: workers down, cost centers across.
// Cells[i] aligns with Columns[i].
type HoursMatrix struct {
	Year    int           `json:"year"`
	Month   time.Month    `json:"month,omitempty"`
	Columns []Bucket      `json:"columns"`
	Rows    []WorkerHours `json:"rows"`
}

// Hours builds the hours matrix for a month, or the whole year when month
// is zero. Per-worker reads fan out in parallel; assembly waits for all.
func (e *Engine) Hours(ctx context.Context, year int, month time.Month) (*HoursMatrix, error) {
	catalog, err := e.Store.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := e.Store.AllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	workers, err := e.Store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })

	rows := make([]WorkerHours, len(workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			reports, err := e.Store.ReportsByWorker(gctx, w.ID, year)
			if err != nil {
				return err
			}
			row := WorkerHours{WorkerID: w.ID, Name: w.Name, Minutes: make(map[Bucket]int)}
			for _, r := range reports {
				if month != 0 && r.Month != month {
					continue
				}
				minutes, _ := r.ComputeTotals()
				if minutes <= 0 {
					continue
				}
				b, ok := resolveBucket(r, assignments[w.ID], catalog)
				if !ok {
					continue
				}
				row.Minutes[b] += minutes
				row.Total += minutes
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[Bucket]bool)
	for _, row := range rows {
		for b := range row.Minutes {
			seen[b] = true
		}
	}
	columns := orderedBuckets(catalog, seen)

	matrix := &HoursMatrix{Year: year, Month: month, Columns: columns}
	for _, row := range rows {
		if row.Total <= 0 {
			continue
		}
		row.Cells = make([]int, len(columns))
		for i, b := range columns {
			row.Cells[i] = row.Minutes[b]
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}

// =============================================================================
// COST ROLLUP
// =============================================================================

// CostRow is one bucket's money for the period: non-rejected invoice values
// plus defined refund values.
type CostRow struct {
	Bucket   Bucket          `json:"bucket"`
	Invoices decimal.Decimal `json:"invoices"`
	Refunds  decimal.Decimal `json:"refunds"`
	Total    decimal.Decimal `json:"total"`
}

// CostRollup is the monetary view of a period, bucketed like the hours
// matrix and ordered the same way.
type CostRollup struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month,omitempty"`
	Rows  []CostRow       `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

type costCell struct {
	invoices decimal.Decimal
	refunds  decimal.Decimal
}

// Costs sums invoice and refund money per bucket for a month (or year when
// month is zero). A report's invoice lands in the report's resolved bucket
// unless rejected; each refund lands in its own cost center, falling back
// to the report's bucket when the line names none.
func (e *Engine) Costs(ctx context.Context, year int, month time.Month) (*CostRollup, error) {
	catalog, err := e.Store.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := e.Store.AllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := e.Store.ReportsByPeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	cells := make(map[Bucket]*costCell)
	cell := func(b Bucket) *costCell {
		c, ok := cells[b]
		if !ok {
			c = &costCell{}
			cells[b] = c
		}
		return c
	}

	g, _ := errgroup.WithContext(ctx)
	for _, r := range reports {
		r := r
		g.Go(func() error {
			reportBucket, hasBucket := resolveBucket(r, assignments[r.WorkerID], catalog)

			mu.Lock()
			defer mu.Unlock()
			if r.Invoice != nil && !r.Invoice.Rejected && hasBucket {
				c := cell(reportBucket)
				c.invoices = c.invoices.Add(r.Invoice.Value)
			}
			for _, item := range r.Refunds {
				if item.Value == nil {
					continue
				}
				var b Bucket
				switch {
				case item.CostCenter != nil:
					b = bucketFor(*item.CostCenter)
				case hasBucket:
					b = reportBucket
				default:
					continue
				}
				c := cell(b)
				c.refunds = c.refunds.Add(*item.Value)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[Bucket]bool, len(cells))
	for b := range cells {
		seen[b] = true
	}
	rollup := &CostRollup{Year: year, Month: month, Total: decimal.Zero}
	for _, b := range orderedBuckets(catalog, seen) {
		c := cells[b]
		row := CostRow{
			Bucket:   b,
			Invoices: c.invoices,
			Refunds:  c.refunds,
			Total:    c.invoices.Add(c.refunds),
		}
		rollup.Rows = append(rollup.Rows, row)
		rollup.Total = rollup.Total.Add(row.Total)
	}
	return rollup, nil
}
