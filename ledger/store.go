/*
store.go - Persistence interfaces

PURPOSE:
  Defines the interface between the engine and the document store. The
  store is an external collaborator assumed to provide atomic
  single-document read-modify-write transactions and simple equality-
  filtered collection scans; nothing here requires more.

WRITE SEMANTICS:
  Report writes are whole-document replacements, last-write-wins. No
  field-level merging is attempted for concurrent writers; see pending.go
  for where that race is documented.

IMPLEMENTATIONS:
  - ledger/store: in-memory (testing/dev)
  - store/sqlite: production SQLite
*/
package ledger

import (
	"context"
	"time"
)

// ReportStore persists monthly reports keyed by (worker, year, month).
type ReportStore interface {
	// GetReport loads one slot. Returns ErrReportNotFound when empty.
	GetReport(ctx context.Context, worker WorkerID, year int, month time.Month) (*Report, error)

	// PutReport replaces the document for the report's slot.
	PutReport(ctx context.Context, r *Report) error

	// DeleteReport removes the document, re-opening the slot.
	DeleteReport(ctx context.Context, worker WorkerID, year int, month time.Month) error

	// ReportsByWorker returns the worker's reports for a year, any status.
	ReportsByWorker(ctx context.Context, worker WorkerID, year int) ([]*Report, error)

	// ReportsByPeriod returns all workers' reports for a year; month 0
	// means the whole year.
	ReportsByPeriod(ctx context.Context, year int, month time.Month) ([]*Report, error)
}

// WorkerStore persists worker master records.
type WorkerStore interface {
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)
	PutWorker(ctx context.Context, w Worker) error
	ListWorkers(ctx context.Context) ([]Worker, error)
}

// AssignmentStore persists the per-worker monthly assignment maps.
type AssignmentStore interface {
	GetAssignments(ctx context.Context, worker WorkerID) (AssignmentMap, error)
	PutAssignments(ctx context.Context, worker WorkerID, m AssignmentMap) error
	AllAssignments(ctx context.Context) (map[WorkerID]AssignmentMap, error)
}

// CatalogStore persists the operation-group catalog.
type CatalogStore interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
	PutGroup(ctx context.Context, g OperationGroup) error
}

// BlobStore uploads invoice files and returns a URL. The real storage
// backend is an external collaborator; tests use an in-memory fake.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) (url string, err error)
}

// Store aggregates everything the API layer needs from one backend.
type Store interface {
	ReportStore
	WorkerStore
	AssignmentStore
	CatalogStore
	AtomicCounter
}
