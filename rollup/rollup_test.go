package rollup_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldcrew/rd-engine/ledger"
	"github.com/fieldcrew/rd-engine/ledger/store"
	"github.com/fieldcrew/rd-engine/rollup"
)

// =============================================================================
// FIXTURES
// =============================================================================

var (
	siteA  = ledger.CostCenterRef{Group: "North", SequenceCode: 10, LedgerCode: "CC-100", Name: "Site A"}
	siteB  = ledger.CostCenterRef{Group: "North", SequenceCode: 20, LedgerCode: "CC-200", Name: "Site B"}
	harbor = ledger.CostCenterRef{Group: "South", SequenceCode: 5, LedgerCode: "CC-300", Name: "Harbor"}
)

func seedCatalog(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()
	if err := mem.PutGroup(ctx, ledger.OperationGroup{Name: "North", CostCenters: []ledger.CostCenterRef{siteB, siteA}}); err != nil {
		t.Fatal(err)
	}
	if err := mem.PutGroup(ctx, ledger.OperationGroup{Name: "South", CostCenters: []ledger.CostCenterRef{harbor}}); err != nil {
		t.Fatal(err)
	}
}

func seedWorker(t *testing.T, mem *store.Memory, id ledger.WorkerID, name string) {
	t.Helper()
	err := mem.PutWorker(context.Background(), ledger.Worker{
		ID:       id,
		Name:     name,
		Contract: ledger.ContractContractor,
	})
	if err != nil {
		t.Fatal(err)
	}
}

// workedReport stores a March 2026 report with one 8-hour day.
func workedReport(t *testing.T, mem *store.Memory, worker ledger.WorkerID, mutate func(*ledger.Report)) {
	t.Helper()
	r := ledger.NewReport(worker, 2026, time.March)
	if _, err := ledger.NewEditor(r).SetDay("2026-03-10", ledger.Shift{In: "08:00", Out: "16:00"}, ledger.Shift{}, ledger.Shift{}); err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(r)
	}
	if err := mem.PutReport(context.Background(), r); err != nil {
		t.Fatal(err)
	}
}

func bucketOf(cc ledger.CostCenterRef) rollup.Bucket {
	return rollup.Bucket{Group: cc.Group, Name: cc.Name, LedgerCode: cc.LedgerCode}
}

// =============================================================================
// HOURS MATRIX
// =============================================================================

func TestHours_ResolutionOrderAndOrdering(t *testing.T) {
	// GIVEN: Four workers whose March reports resolve through each rule:
	//   Ana   - explicit cost center on the report (beats her operation group)
	//   Bruno - no operation, monthly assignment to South -> Harbor
	//   Carla - hours but no group resolvable -> excluded
	//   Dora  - operation group unknown to the catalog -> literal bucket
	// WHEN: Building the March hours matrix
	// THEN: Buckets follow the resolution order, columns follow catalog
	//       order with literals last, and rows sort by worker name

	mem := store.NewMemory()
	seedCatalog(t, mem)
	seedWorker(t, mem, "w1", "Ana")
	seedWorker(t, mem, "w2", "Bruno")
	seedWorker(t, mem, "w3", "Carla")
	seedWorker(t, mem, "w4", "Dora")

	workedReport(t, mem, "w1", func(r *ledger.Report) {
		r.Operation = "South"
		cc := siteB
		r.CostCenter = &cc
	})
	workedReport(t, mem, "w2", nil)
	am := ledger.AssignmentMap{}
	am.Set(2026, time.March, "South")
	if err := mem.PutAssignments(context.Background(), "w2", am); err != nil {
		t.Fatal(err)
	}
	workedReport(t, mem, "w3", nil)
	workedReport(t, mem, "w4", func(r *ledger.Report) { r.Operation = "Offshore" })

	matrix, err := rollup.NewEngine(mem).Hours(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatalf("Hours failed: %v", err)
	}

	wantColumns := []rollup.Bucket{
		bucketOf(siteB),
		bucketOf(harbor),
		{Group: "Offshore", Name: "Offshore"},
	}
	if len(matrix.Columns) != len(wantColumns) {
		t.Fatalf("expected %d columns, got %v", len(wantColumns), matrix.Columns)
	}
	for i, want := range wantColumns {
		if matrix.Columns[i] != want {
			t.Errorf("column %d: got %+v, want %+v", i, matrix.Columns[i], want)
		}
	}

	if len(matrix.Rows) != 3 {
		t.Fatalf("expected 3 rows (Carla unresolvable), got %d", len(matrix.Rows))
	}
	wantRows := []struct {
		name  string
		cells []int
	}{
		{"Ana", []int{480, 0, 0}},
		{"Bruno", []int{0, 480, 0}},
		{"Dora", []int{0, 0, 480}},
	}
	for i, want := range wantRows {
		row := matrix.Rows[i]
		if row.Name != want.name {
			t.Fatalf("row %d: got %s, want %s", i, row.Name, want.name)
		}
		if row.Total != 480 {
			t.Errorf("row %s: expected total 480, got %d", row.Name, row.Total)
		}
		for j, minutes := range want.cells {
			if row.Cells[j] != minutes {
				t.Errorf("row %s cell %d: got %d, want %d", row.Name, j, row.Cells[j], minutes)
			}
		}
	}
}

func TestHours_ZeroMinuteReportsExcluded(t *testing.T) {
	// An empty draft (created by browsing to the month) contributes nothing.
	mem := store.NewMemory()
	seedCatalog(t, mem)
	seedWorker(t, mem, "w1", "Ana")

	r := ledger.NewReport("w1", 2026, time.March)
	r.Operation = "North"
	if err := mem.PutReport(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	matrix, err := rollup.NewEngine(mem).Hours(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if len(matrix.Rows) != 0 || len(matrix.Columns) != 0 {
		t.Errorf("expected an empty matrix, got %d rows %d columns", len(matrix.Rows), len(matrix.Columns))
	}
}

func TestHours_WholeYearWhenMonthZero(t *testing.T) {
	// GIVEN: The same worker with hours in March and July
	// WHEN: Building the matrix with month zero
	// THEN: Both months' minutes accumulate in one row

	mem := store.NewMemory()
	seedCatalog(t, mem)
	seedWorker(t, mem, "w1", "Ana")

	workedReport(t, mem, "w1", func(r *ledger.Report) { r.Operation = "North" })
	july := ledger.NewReport("w1", 2026, time.July)
	july.Operation = "North"
	if _, err := ledger.NewEditor(july).SetDay("2026-07-01", ledger.Shift{In: "08:00", Out: "12:00"}, ledger.Shift{}, ledger.Shift{}); err != nil {
		t.Fatal(err)
	}
	if err := mem.PutReport(context.Background(), july); err != nil {
		t.Fatal(err)
	}

	matrix, err := rollup.NewEngine(mem).Hours(context.Background(), 2026, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matrix.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(matrix.Rows))
	}
	if matrix.Rows[0].Total != 720 {
		t.Errorf("expected 720 minutes across the year, got %d", matrix.Rows[0].Total)
	}
	// "North" resolves to its lowest-ordered cost center.
	if matrix.Columns[0] != bucketOf(siteA) {
		t.Errorf("expected Site A column, got %+v", matrix.Columns[0])
	}
}

// =============================================================================
// COST ROLLUP
// =============================================================================

func TestCosts_InvoiceAndRefundBuckets(t *testing.T) {
	// GIVEN: One report with a valid invoice, a refund pinned to another
	//        cost center, and a refund with no cost center of its own;
	//        plus a second report whose invoice was rejected
	// WHEN: Rolling up March costs
	// THEN: The invoice and the unpinned refund land in the report's bucket,
	//       the pinned refund lands in its own, and the rejected invoice
	//       contributes nothing

	mem := store.NewMemory()
	seedCatalog(t, mem)
	seedWorker(t, mem, "w1", "Ana")
	seedWorker(t, mem, "w2", "Bruno")

	tollValue := decimal.RequireFromString("25.00")
	fuelValue := decimal.RequireFromString("50.00")
	workedReport(t, mem, "w1", func(r *ledger.Report) {
		cc := siteA
		r.CostCenter = &cc
		r.Invoice = &ledger.Invoice{
			URL:   "memory://invoices/w1.pdf",
			Value: decimal.RequireFromString("1000.00"),
		}
		pinned := siteB
		r.Refunds = []ledger.RefundItem{
			{ID: "rf1", Kind: ledger.RefundFuel, CostCenter: &pinned, Value: &fuelValue},
			{ID: "rf2", Kind: ledger.RefundCash, Value: &tollValue},
		}
	})
	workedReport(t, mem, "w2", func(r *ledger.Report) {
		cc := harbor
		r.CostCenter = &cc
		r.Invoice = &ledger.Invoice{
			Value:    decimal.RequireFromString("999.00"),
			Rejected: true,
		}
	})

	costs, err := rollup.NewEngine(mem).Costs(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatalf("Costs failed: %v", err)
	}

	if len(costs.Rows) != 2 {
		t.Fatalf("expected rows for Site A and Site B only, got %d", len(costs.Rows))
	}

	rowA := costs.Rows[0]
	if rowA.Bucket != bucketOf(siteA) {
		t.Fatalf("expected Site A first, got %+v", rowA.Bucket)
	}
	if rowA.Invoices.StringFixed(2) != "1000.00" {
		t.Errorf("Site A invoices: got %s", rowA.Invoices.StringFixed(2))
	}
	if rowA.Refunds.StringFixed(2) != "25.00" {
		t.Errorf("Site A refunds (unpinned fallback): got %s", rowA.Refunds.StringFixed(2))
	}

	rowB := costs.Rows[1]
	if rowB.Bucket != bucketOf(siteB) {
		t.Fatalf("expected Site B second, got %+v", rowB.Bucket)
	}
	if rowB.Refunds.StringFixed(2) != "50.00" {
		t.Errorf("Site B refunds: got %s", rowB.Refunds.StringFixed(2))
	}

	if costs.Total.StringFixed(2) != "1075.00" {
		t.Errorf("expected grand total 1075.00, got %s", costs.Total.StringFixed(2))
	}
}

func TestCosts_UndefinedRefundValuesSkipped(t *testing.T) {
	// A fuel refund missing its derived value never contributes zero rows.
	mem := store.NewMemory()
	seedCatalog(t, mem)
	seedWorker(t, mem, "w1", "Ana")

	workedReport(t, mem, "w1", func(r *ledger.Report) {
		cc := siteA
		r.CostCenter = &cc
		r.Refunds = []ledger.RefundItem{{ID: "rf1", Kind: ledger.RefundFuel}}
	})

	costs, err := rollup.NewEngine(mem).Costs(context.Background(), 2026, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if len(costs.Rows) != 0 {
		t.Errorf("expected no rows, got %v", costs.Rows)
	}
}
