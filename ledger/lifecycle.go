/*
lifecycle.go - Report status state machine

PURPOSE:
  Governs the monthly report's path through its states:

    draft -> assigned -> submitted -> approved
                             |
                             +-- (admin reject invoice: status unchanged,
                                  invoice cleared, Rejected flag raised)

  draft      worker editing, nothing submitted yet
  assigned   a cost-center group is attached before any hours exist;
             informational only, not security-enforced
  submitted  worker finalized; record read-only to the worker
  approved   administrative acceptance

GUARDS:
  Submission requires an attached invoice unless the worker's contract type
  is invoice-exempt (salaried). Rejected locally with no partial change.

THE ONE PERMITTED MUTATION:
  After an administrative invoice rejection the record stays frozen and
  stays submitted; the worker may only re-attach a corrected invoice,
  which clears the Rejected flag again.

There is no submitted -> draft transition for the worker. Only an
administrator deleting the whole record re-opens the (worker, year, month)
slot, and deletion is a store operation, not a transition.
*/
package ledger

import "time"

// Assign attaches a cost-center group to the report. A draft with no hours
// yet moves to assigned; anything further along keeps its status.
func Assign(r *Report, group string) error {
	if r.Frozen() {
		return ErrInvalidTransition
	}
	r.Operation = group
	if r.Status == StatusDraft && r.TotalMinutes == 0 {
		r.Status = StatusAssigned
	}
	return nil
}

// Submit finalizes the report. On success the cached totals are frozen
// from the current computed values, the submission timestamp is stamped
// for downstream "most recently finalized" ordering, and the record
// becomes immutable to the worker.
func Submit(r *Report, contract ContractType, now time.Time) error {
	if r.Frozen() {
		return ErrInvalidTransition
	}
	if !contract.InvoiceExempt() && (r.Invoice == nil || r.Invoice.URL == "") {
		return ErrInvoiceRequired
	}
	r.TotalMinutes, r.DaysWorked = r.ComputeTotals()
	r.Status = StatusSubmitted
	r.SubmittedAt = now
	r.UpdatedAt = now
	return nil
}

// Approve records the administrative acceptance of a submitted report.
func Approve(r *Report, now time.Time) error {
	if r.Status != StatusSubmitted {
		return ErrInvalidTransition
	}
	r.Status = StatusApproved
	r.UpdatedAt = now
	return nil
}

// RejectInvoice is the administrative removal of an attached invoice. It
// clears the invoice fields and raises the Rejected flag so the worker is
// prompted to re-attach a corrected document. The status deliberately does
// NOT move away from submitted: the rest of the record stays frozen while
// the invoice is replaced.
func RejectInvoice(r *Report, now time.Time) error {
	r.Invoice = &Invoice{Rejected: true}
	r.UpdatedAt = now
	return nil
}

// AttachInvoice records an uploaded invoice on the report. This is the one
// mutation permitted on an otherwise-frozen report; a successful re-upload
// clears the Rejected flag.
func AttachInvoice(r *Report, inv Invoice, now time.Time) error {
	inv.Rejected = false
	r.Invoice = &inv
	r.UpdatedAt = now
	return nil
}
