package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldcrew/rd-engine/ledger"
)

func submittableReport() *ledger.Report {
	r := ledger.NewReport("w1", 2026, time.March)
	ed := ledger.NewEditor(r)
	ed.SetDay("2026-03-10", ledger.Shift{In: "08:00", Out: "16:00"}, ledger.Shift{}, ledger.Shift{})
	return r
}

func attachedInvoice() ledger.Invoice {
	return ledger.Invoice{
		URL:    "file:///invoices/w1.pdf",
		Issuer: "ACME Servicos Ltda",
		Value:  decimal.RequireFromString("10000.00"),
	}
}

// =============================================================================
// SUBMISSION GUARD
// =============================================================================

func TestSubmit_ContractorWithoutInvoiceRejected(t *testing.T) {
	// GIVEN: A contractor's report with hours but no attached invoice
	// WHEN: Submitting
	// THEN: Rejected locally with ErrInvoiceRequired, nothing changes

	r := submittableReport()
	err := ledger.Submit(r, ledger.ContractContractor, time.Now())
	if !errors.Is(err, ledger.ErrInvoiceRequired) {
		t.Fatalf("expected ErrInvoiceRequired, got %v", err)
	}
	if r.Status != ledger.StatusDraft {
		t.Errorf("status must not change on a rejected submit, got %s", r.Status)
	}
	if !r.SubmittedAt.IsZero() {
		t.Error("SubmittedAt must not be stamped")
	}
}

func TestSubmit_SalariedExemptFromInvoice(t *testing.T) {
	// GIVEN: A salaried worker's report with no invoice
	// WHEN: Submitting
	// THEN: The exemption lets it through

	r := submittableReport()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	if err := ledger.Submit(r, ledger.ContractSalaried, now); err != nil {
		t.Fatalf("exempt submit rejected: %v", err)
	}
	if r.Status != ledger.StatusSubmitted {
		t.Errorf("expected submitted, got %s", r.Status)
	}
	if !r.SubmittedAt.Equal(now) {
		t.Error("SubmittedAt not stamped")
	}
}

func TestSubmit_FreezesCachedTotals(t *testing.T) {
	r := submittableReport()
	ledger.AttachInvoice(r, attachedInvoice(), time.Now())

	if err := ledger.Submit(r, ledger.ContractContractor, time.Now()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if r.TotalMinutes != 480 || r.DaysWorked != 1 {
		t.Errorf("cached totals not frozen: %d/%d", r.TotalMinutes, r.DaysWorked)
	}
	if !r.Frozen() {
		t.Error("submitted report must be frozen")
	}
}

func TestSubmit_AlreadyFrozenRejected(t *testing.T) {
	r := submittableReport()
	if err := ledger.Submit(r, ledger.ContractSalaried, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Submit(r, ledger.ContractSalaried, time.Now()); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// =============================================================================
// ASSIGN AND APPROVE
// =============================================================================

func TestAssign_EmptyDraftMovesToAssigned(t *testing.T) {
	r := ledger.NewReport("w1", 2026, time.March)
	if err := ledger.Assign(r, "North"); err != nil {
		t.Fatal(err)
	}
	if r.Status != ledger.StatusAssigned || r.Operation != "North" {
		t.Errorf("expected assigned/North, got %s/%s", r.Status, r.Operation)
	}

	// A report with hours keeps its status; only the group changes.
	r2 := submittableReport()
	if err := ledger.Assign(r2, "South"); err != nil {
		t.Fatal(err)
	}
	if r2.Status != ledger.StatusDraft {
		t.Errorf("expected draft to persist, got %s", r2.Status)
	}
}

func TestApprove_OnlyFromSubmitted(t *testing.T) {
	r := submittableReport()
	if err := ledger.Approve(r, time.Now()); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for draft, got %v", err)
	}

	ledger.Submit(r, ledger.ContractSalaried, time.Now())
	if err := ledger.Approve(r, time.Now()); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if r.Status != ledger.StatusApproved {
		t.Errorf("expected approved, got %s", r.Status)
	}
}

// =============================================================================
// INVOICE REJECTION CYCLE
// =============================================================================

func TestRejectInvoice_ClearsInvoiceKeepsStatus(t *testing.T) {
	// GIVEN: A submitted report with an attached invoice
	// WHEN: An admin rejects the invoice
	// THEN: The invoice fields clear, the Rejected flag raises, and the
	//       report stays submitted and frozen

	r := submittableReport()
	ledger.AttachInvoice(r, attachedInvoice(), time.Now())
	if err := ledger.Submit(r, ledger.ContractContractor, time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := ledger.RejectInvoice(r, time.Now()); err != nil {
		t.Fatal(err)
	}
	if r.Status != ledger.StatusSubmitted {
		t.Errorf("status must stay submitted, got %s", r.Status)
	}
	if r.Invoice == nil || !r.Invoice.Rejected {
		t.Error("Rejected flag not raised")
	}
	if r.Invoice.URL != "" {
		t.Error("invoice URL must be cleared")
	}
	if !r.Frozen() {
		t.Error("report must stay frozen while the invoice is replaced")
	}
}

func TestAttachInvoice_OnFrozenReportClearsRejection(t *testing.T) {
	// GIVEN: A frozen report with a rejected invoice
	// WHEN: The worker re-attaches a corrected invoice
	// THEN: The attachment succeeds (the one permitted mutation) and the
	//       Rejected flag clears

	r := submittableReport()
	ledger.AttachInvoice(r, attachedInvoice(), time.Now())
	ledger.Submit(r, ledger.ContractContractor, time.Now())
	ledger.RejectInvoice(r, time.Now())

	if err := ledger.AttachInvoice(r, attachedInvoice(), time.Now()); err != nil {
		t.Fatalf("re-attachment rejected: %v", err)
	}
	if r.Invoice.Rejected {
		t.Error("re-attachment must clear the Rejected flag")
	}
	if r.Invoice.URL == "" {
		t.Error("invoice URL missing after re-attachment")
	}
	if r.Status != ledger.StatusSubmitted {
		t.Errorf("status must stay submitted, got %s", r.Status)
	}
}
