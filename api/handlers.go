/*
handlers.go - HTTP API handlers for the daily time-report engine

PURPOSE:
  Exposes the report ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Workers:
    GET    /api/workers                List workers
    POST   /api/workers                Register worker (sequence-minted ID)
    GET    /api/workers/{id}           Get worker

  Reports:
    GET    /api/workers/{id}/reports/{year}/{month}   Load (creates a draft,
                                                      assignment fallback)
    PUT    .../days/{date}             Edit a day's shifts (debounced persist)
    PUT    .../allocations/{date}      Re-split a day across cost centers
    POST   .../refunds                 Add refund line
    PUT    .../refunds/{rid}           Update refund line
    DELETE .../refunds/{rid}           Remove refund line
    POST   .../invoice                 Attach invoice (upload + extraction)
    POST   .../submit                  Submit (invoice guard)

  Admin:
    POST   /api/admin/reports/{worker}/{year}/{month}/reject-invoice
    POST   /api/admin/reports/{worker}/{year}/{month}/approve
    DELETE /api/admin/reports/{worker}/{year}/{month}

  Aggregation:
    GET    /api/rollup/hours?year=&month=   Hours matrix
    GET    /api/rollup/costs?year=&month=   Cost rollup

  Reference data:
    POST   /api/sequence/{prefix}           Mint a master-record identifier
    GET    /api/catalog/operations          Catalog snapshot
    GET    /api/workers/{id}/assignments    Assignment map
    PUT    /api/workers/{id}/assignments    Replace assignment map

  Development:
    POST   /api/reset                       Wipe all data (dev/demo only)

WRITE PATH:
  Day, allocation and refund edits coalesce through ledger.PendingWrites:
  the mutated document is held server-side and persisted once per
  quiescence window. Reads consult the held copy first so a burst of edits
  stays visible before it lands in the store. Invoice attachment and
  submission write through immediately.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Frozen-report and counter conflicts
  - 503: Sequence counter unavailable
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. Admin capability is route
  placement only. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/edit.go: The guarded mutation path behind these handlers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldcrew/rd-engine/invoice"
	"github.com/fieldcrew/rd-engine/ledger"
	"github.com/fieldcrew/rd-engine/rollup"
)

// workerIDPrefix seeds sequence-minted worker identifiers ("WKR-0001").
const workerIDPrefix = "WKR"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  ledger.Store
	Blobs  ledger.BlobStore
	Writes *ledger.PendingWrites
	Seq    *ledger.Sequencer
	Rollup *rollup.Engine

	// dirty holds documents with a pending (not yet persisted) write so
	// reads inside the quiescence window see the latest edits.
	mu    sync.Mutex
	dirty map[string]*ledger.Report
}

// NewHandler creates a new handler with the given store and blob backend.
func NewHandler(store ledger.Store, blobs ledger.BlobStore) *Handler {
	h := &Handler{
		Store:  store,
		Blobs:  blobs,
		Writes: ledger.NewPendingWrites(ledger.DefaultQuiescence),
		Seq:    ledger.NewSequencer(store),
		Rollup: rollup.NewEngine(store),
		dirty:  make(map[string]*ledger.Report),
	}
	return h
}

func reportKeyOf(worker ledger.WorkerID, year int, month time.Month) string {
	return fmt.Sprintf("%s/%d-%d", worker, year, int(month))
}

// loadReport returns the working copy of a report: a clone of the dirty
// in-flight document when one exists, otherwise the stored one. Each
// request gets its own copy, so concurrent edits to the same slot never
// share a document; whichever copy is staged last wins in full. When
// create is set an empty slot yields a fresh draft with the assignment
// fallback applied.
func (h *Handler) loadReport(r *http.Request, worker ledger.WorkerID, year int, month time.Month, create bool) (*ledger.Report, error) {
	key := reportKeyOf(worker, year, month)
	h.mu.Lock()
	if rep, ok := h.dirty[key]; ok {
		h.mu.Unlock()
		return rep.Clone(), nil
	}
	h.mu.Unlock()

	rep, err := h.Store.GetReport(r.Context(), worker, year, month)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, ledger.ErrReportNotFound) || !create {
		return nil, err
	}

	rep = ledger.NewReport(worker, year, month)
	assignments, err := h.Store.GetAssignments(r.Context(), worker)
	if err != nil {
		return nil, err
	}
	ledger.ApplyAssignment(rep, assignments)
	return rep, nil
}

// scheduleWrite stamps the document dirty and queues its debounced
// persist. The dirty entry clears only after a successful write of the
// same document version.
func (h *Handler) scheduleWrite(worker ledger.WorkerID, year int, month time.Month, rep *ledger.Report) {
	key := reportKeyOf(worker, year, month)
	h.mu.Lock()
	h.dirty[key] = rep
	h.mu.Unlock()

	h.Writes.Enqueue(key, func(ctx context.Context) error {
		if err := h.Store.PutReport(ctx, rep); err != nil {
			return err
		}
		h.mu.Lock()
		if h.dirty[key] == rep {
			delete(h.dirty, key)
		}
		h.mu.Unlock()
		return nil
	})
}

// writeThrough persists a document immediately, flushing any queued write
// for its key first so the stored order matches the edit order.
func (h *Handler) writeThrough(r *http.Request, worker ledger.WorkerID, year int, month time.Month, rep *ledger.Report) error {
	key := reportKeyOf(worker, year, month)
	h.Writes.Abandon(key)
	h.mu.Lock()
	delete(h.dirty, key)
	h.mu.Unlock()
	return h.Store.PutReport(r.Context(), rep)
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := ledger.WorkerID(chi.URLParam(r, "id"))

	wk, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*wk))
}

// CreateWorker registers a worker, minting its identifier from the
// sequence counter.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Worker name is required", nil)
		return
	}
	contract := ledger.ContractType(req.Contract)
	if contract != ledger.ContractContractor && contract != ledger.ContractSalaried {
		writeError(w, http.StatusBadRequest, "Unknown contract type", nil)
		return
	}

	id, err := h.Seq.NextID(r.Context(), workerIDPrefix)
	if err != nil {
		writeDomainError(w, "Failed to allocate worker identifier", err)
		return
	}

	wk := ledger.Worker{
		ID:       ledger.WorkerID(id),
		Name:     req.Name,
		Company:  req.Company,
		Contract: contract,
	}
	if err := h.Store.PutWorker(r.Context(), wk); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(wk))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// reportParams pulls (worker, year, month) out of the URL.
func reportParams(r *http.Request, workerParam string) (ledger.WorkerID, int, time.Month, error) {
	worker := ledger.WorkerID(chi.URLParam(r, workerParam))
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2200 {
		return "", 0, 0, fmt.Errorf("invalid year")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return "", 0, 0, fmt.Errorf("invalid month")
	}
	return worker, year, time.Month(month), nil
}

// GetReport loads the worker's report for a month, creating an unsaved
// draft (with the assignment fallback applied) when the slot is empty.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, true)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// EditDay writes one day's shift pairs and schedules the debounced
// persist. Responds with the day's reconciliation.
func (h *Handler) EditDay(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	date := ledger.DateKey(chi.URLParam(r, "date"))

	var req DayEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, true)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	ed := ledger.NewEditor(rep)
	rec, err := ed.SetDay(date, toShift(req.Morning), toShift(req.Afternoon), toShift(req.Night))
	if err != nil {
		writeDomainError(w, "Failed to edit day", err)
		return
	}

	h.scheduleWrite(worker, year, month, rep)
	writeJSON(w, http.StatusOK, toReconciliationDTO(rec, rep.Days[date].Allocations))
}

// EditAllocations applies one allocation mutation (add, update, remove)
// to a day and schedules the debounced persist.
func (h *Handler) EditAllocations(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	date := ledger.DateKey(chi.URLParam(r, "date"))

	var req AllocationEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, true)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	ed := ledger.NewEditor(rep)
	var rec ledger.Reconciliation
	switch req.Op {
	case "add":
		rec, err = ed.AddAllocation(date, req.CostCenter, req.Minutes)
	case "update":
		rec, err = ed.UpdateAllocation(date, ledger.AllocationID(req.ID), req.CostCenter, req.Minutes)
	case "remove":
		rec, err = ed.RemoveAllocation(date, ledger.AllocationID(req.ID))
	default:
		writeError(w, http.StatusBadRequest, "Unknown allocation op", nil)
		return
	}
	if err != nil {
		writeDomainError(w, "Failed to edit allocations", err)
		return
	}

	h.scheduleWrite(worker, year, month, rep)
	writeJSON(w, http.StatusOK, toReconciliationDTO(rec, rep.Days[date].Allocations))
}

// =============================================================================
// REFUND HANDLERS
// =============================================================================

// AddRefund appends one refund line.
func (h *Handler) AddRefund(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, true)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	item, err := ledger.NewEditor(rep).AddRefund(toRefundItem(req))
	if err != nil {
		writeDomainError(w, "Failed to add refund", err)
		return
	}

	h.scheduleWrite(worker, year, month, rep)
	writeJSON(w, http.StatusCreated, toRefundDTO(item))
}

// UpdateRefund replaces one refund line.
func (h *Handler) UpdateRefund(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	rid := ledger.RefundID(chi.URLParam(r, "rid"))

	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, false)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	item := toRefundItem(req)
	item.ID = rid
	item, err = ledger.NewEditor(rep).UpdateRefund(item)
	if err != nil {
		writeDomainError(w, "Failed to update refund", err)
		return
	}

	h.scheduleWrite(worker, year, month, rep)
	writeJSON(w, http.StatusOK, toRefundDTO(item))
}

// RemoveRefund hard-deletes one refund line.
func (h *Handler) RemoveRefund(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	rid := ledger.RefundID(chi.URLParam(r, "rid"))

	rep, err := h.loadReport(r, worker, year, month, false)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	if err := ledger.NewEditor(rep).RemoveRefund(rid); err != nil {
		writeDomainError(w, "Failed to remove refund", err)
		return
	}

	h.scheduleWrite(worker, year, month, rep)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INVOICE AND SUBMISSION
// =============================================================================

// AttachInvoice uploads the month's fiscal document, runs best-effort
// text extraction, and records the invoice on the report. This is the one
// mutation allowed on a frozen report; it always writes through.
func (h *Handler) AttachInvoice(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req AttachInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.FileData) == 0 {
		writeError(w, http.StatusBadRequest, "Invoice file is required", nil)
		return
	}

	wk, err := h.Store.GetWorker(r.Context(), worker)
	if err != nil {
		writeDomainError(w, "Failed to get worker", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, true)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	extracted := invoice.Extract(req.Text, wk.Company)
	fileName := invoice.FileName(wk.Name, year, int(month))
	path := fmt.Sprintf("workers/%s/reports/%d-%d/%s", worker, year, int(month), fileName)

	url, err := h.Blobs.Upload(r.Context(), path, req.FileData)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload invoice", err)
		return
	}

	inv := ledger.Invoice{URL: url, Issuer: extracted.Issuer, Value: extracted.Value}
	if err := ledger.AttachInvoice(rep, inv, time.Now()); err != nil {
		writeDomainError(w, "Failed to attach invoice", err)
		return
	}

	if err := h.writeThrough(r, worker, year, month, rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// SubmitReport finalizes the month. Any queued write is replaced by the
// submission's write-through so nothing lands after the freeze.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	wk, err := h.Store.GetWorker(r.Context(), worker)
	if err != nil {
		writeDomainError(w, "Failed to get worker", err)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, false)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	if err := ledger.Submit(rep, wk.Contract, time.Now()); err != nil {
		writeDomainError(w, "Failed to submit report", err)
		return
	}

	if err := h.writeThrough(r, worker, year, month, rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RejectInvoice clears a submitted report's invoice and raises the
// Rejected flag. The report stays submitted and frozen.
func (h *Handler) RejectInvoice(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "worker")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, false)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	if err := ledger.RejectInvoice(rep, time.Now()); err != nil {
		writeDomainError(w, "Failed to reject invoice", err)
		return
	}
	if err := h.writeThrough(r, worker, year, month, rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// ApproveReport records administrative acceptance of a submitted report.
func (h *Handler) ApproveReport(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "worker")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rep, err := h.loadReport(r, worker, year, month, false)
	if err != nil {
		writeDomainError(w, "Failed to load report", err)
		return
	}

	if err := ledger.Approve(rep, time.Now()); err != nil {
		writeDomainError(w, "Failed to approve report", err)
		return
	}
	if err := h.writeThrough(r, worker, year, month, rep); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// DeleteReport removes a report document, re-opening its slot. Any queued
// write for the slot is abandoned first so it cannot resurrect the row.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	worker, year, month, err := reportParams(r, "worker")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	key := reportKeyOf(worker, year, month)
	h.Writes.Abandon(key)
	h.mu.Lock()
	delete(h.dirty, key)
	h.mu.Unlock()

	if err := h.Store.DeleteReport(r.Context(), worker, year, month); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// AGGREGATION HANDLERS
// =============================================================================

// periodQuery parses ?year= and optional ?month= (absent or 0 = whole year).
func periodQuery(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year")
	}
	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		return year, 0, nil
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 0 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month")
	}
	return year, time.Month(month), nil
}

// RollupHours returns the hours matrix for a period.
func (h *Handler) RollupHours(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	matrix, err := h.Rollup.Hours(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build hours matrix", err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

// RollupCosts returns the monetary rollup for a period.
func (h *Handler) RollupCosts(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	costs, err := h.Rollup.Costs(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build cost rollup", err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// MintSequence allocates the next identifier for a prefix.
func (h *Handler) MintSequence(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "Prefix is required", nil)
		return
	}

	id, err := h.Seq.NextID(r.Context(), prefix)
	if err != nil {
		writeDomainError(w, "Failed to mint identifier", err)
		return
	}
	writeJSON(w, http.StatusOK, SequenceDTO{ID: id})
}

// GetCatalog returns the operation-group catalog snapshot.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Store.LoadCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Groups())
}

// PutGroup creates or replaces one operation group.
func (h *Handler) PutGroup(w http.ResponseWriter, r *http.Request) {
	var g ledger.OperationGroup
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if g.Name == "" {
		writeError(w, http.StatusBadRequest, "Group name is required", nil)
		return
	}

	if err := h.Store.PutGroup(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save group", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetAssignments returns a worker's month-to-group assignment map.
func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	worker := ledger.WorkerID(chi.URLParam(r, "id"))

	m, err := h.Store.GetAssignments(r.Context(), worker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// PutAssignments replaces a worker's assignment map.
func (h *Handler) PutAssignments(w http.ResponseWriter, r *http.Request) {
	worker := ledger.WorkerID(chi.URLParam(r, "id"))

	var m ledger.AssignmentMap
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.PutAssignments(r.Context(), worker, m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// =============================================================================
// DEVELOPMENT HELPERS
// =============================================================================

// ResetStore wipes every stored record and drops all in-flight writes.
// Development and demo convenience; stores without a Reset report 501.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	resettable, ok := h.Store.(interface{ Reset(context.Context) error })
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support reset", nil)
		return
	}

	// Every queued write has a dirty entry; abandoning by dirty key drains
	// the queue so nothing lands after the wipe.
	h.mu.Lock()
	for key := range h.dirty {
		h.Writes.Abandon(key)
		delete(h.dirty, key)
	}
	h.mu.Unlock()

	if err := resettable.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrReportFrozen) || errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, ledger.ErrSequenceUnavailable):
		writeError(w, http.StatusServiceUnavailable, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
