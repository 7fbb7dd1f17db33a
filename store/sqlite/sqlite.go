/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the engine defines (ReportStore,
  WorkerStore, AssignmentStore, CatalogStore, AtomicCounter) using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  reports:     one row per (worker, year, month) document; days, refunds,
               invoice and cost center stored as JSON columns
  workers:     worker master records
  assignments: per-worker month-to-group maps (JSON)
  operations:  operation groups and their cost centers (JSON)
  counters:    named sequence counters for master-record identifiers

WRITE SEMANTICS:
  Report writes replace the whole document row, last-write-wins; no
  field-level merging. The only cross-actor atomic operation is the
  counter increment, done in a database transaction with a bounded retry
  on write contention.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rd.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldcrew/rd-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Workers (master records)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company TEXT,
		contract TEXT NOT NULL,
		archived BOOLEAN DEFAULT FALSE
	);

	-- Monthly report documents, one per (worker, year, month) slot.
	-- Nested structures live in JSON columns: the document is always
	-- read and replaced whole.
	CREATE TABLE IF NOT EXISTS reports (
		worker_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL,
		operation TEXT,
		cost_center_json TEXT,
		days_json TEXT NOT NULL,
		invoice_json TEXT,
		refunds_json TEXT,
		total_minutes INTEGER NOT NULL DEFAULT 0,
		days_worked INTEGER NOT NULL DEFAULT 0,
		submitted_at TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (worker_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_period
		ON reports(year, month);

	-- Per-worker month-to-group assignment maps
	CREATE TABLE IF NOT EXISTS assignments (
		worker_id TEXT PRIMARY KEY,
		map_json TEXT NOT NULL
	);

	-- Operation groups and their cost centers
	CREATE TABLE IF NOT EXISTS operations (
		name TEXT PRIMARY KEY,
		cost_centers_json TEXT NOT NULL
	);

	-- Named sequence counters for master-record identifiers
	CREATE TABLE IF NOT EXISTS counters (
		prefix TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPORT STORE (ledger.ReportStore interface)
// =============================================================================

// GetReport loads one report document. Returns ledger.ErrReportNotFound
// when the slot is empty.
func (s *Store) GetReport(ctx context.Context, worker ledger.WorkerID, year int, month time.Month) (*ledger.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT worker_id, year, month, status, operation, cost_center_json,
		       days_json, invoice_json, refunds_json,
		       total_minutes, days_worked, submitted_at, updated_at
		FROM reports
		WHERE worker_id = ? AND year = ? AND month = ?
	`

	r, err := scanReport(s.db.QueryRowContext(ctx, query, worker, year, int(month)))
	if err == sql.ErrNoRows {
		return nil, ledger.ErrReportNotFound
	}
	return r, err
}

// PutReport replaces the document for the report's slot.
func (s *Store) PutReport(ctx context.Context, r *ledger.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	daysJSON, err := json.Marshal(r.Days)
	if err != nil {
		return fmt.Errorf("failed to encode report days: %w", err)
	}
	costCenterJSON, err := marshalNullable(r.CostCenter)
	if err != nil {
		return err
	}
	invoiceJSON, err := marshalNullable(r.Invoice)
	if err != nil {
		return err
	}
	var refundsJSON sql.NullString
	if len(r.Refunds) > 0 {
		raw, err := json.Marshal(r.Refunds)
		if err != nil {
			return fmt.Errorf("failed to encode refunds: %w", err)
		}
		refundsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO reports
		(worker_id, year, month, status, operation, cost_center_json,
		 days_json, invoice_json, refunds_json,
		 total_minutes, days_worked, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id, year, month) DO UPDATE SET
			status = excluded.status,
			operation = excluded.operation,
			cost_center_json = excluded.cost_center_json,
			days_json = excluded.days_json,
			invoice_json = excluded.invoice_json,
			refunds_json = excluded.refunds_json,
			total_minutes = excluded.total_minutes,
			days_worked = excluded.days_worked,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		r.WorkerID, r.Year, int(r.Month), r.Status,
		nullString(r.Operation), costCenterJSON,
		string(daysJSON), invoiceJSON, refundsJSON,
		r.TotalMinutes, r.DaysWorked,
		nullTime(r.SubmittedAt),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to put report: %w", err)
	}
	return nil
}

// DeleteReport removes the document, re-opening the slot.
func (s *Store) DeleteReport(ctx context.Context, worker ledger.WorkerID, year int, month time.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM reports WHERE worker_id = ? AND year = ? AND month = ?",
		worker, year, int(month))
	return err
}

// ReportsByWorker returns the worker's reports for a year, any status.
func (s *Store) ReportsByWorker(ctx context.Context, worker ledger.WorkerID, year int) ([]*ledger.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT worker_id, year, month, status, operation, cost_center_json,
		       days_json, invoice_json, refunds_json,
		       total_minutes, days_worked, submitted_at, updated_at
		FROM reports
		WHERE worker_id = ? AND year = ?
		ORDER BY month ASC
	`

	return s.queryReports(ctx, query, worker, year)
}

// ReportsByPeriod returns all workers' reports for a year; month 0 means
// the whole year.
func (s *Store) ReportsByPeriod(ctx context.Context, year int, month time.Month) ([]*ledger.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if month == 0 {
		query := `
			SELECT worker_id, year, month, status, operation, cost_center_json,
			       days_json, invoice_json, refunds_json,
			       total_minutes, days_worked, submitted_at, updated_at
			FROM reports
			WHERE year = ?
			ORDER BY worker_id ASC, month ASC
		`
		return s.queryReports(ctx, query, year)
	}

	query := `
		SELECT worker_id, year, month, status, operation, cost_center_json,
		       days_json, invoice_json, refunds_json,
		       total_minutes, days_worked, submitted_at, updated_at
		FROM reports
		WHERE year = ? AND month = ?
		ORDER BY worker_id ASC
	`
	return s.queryReports(ctx, query, year, int(month))
}

func (s *Store) queryReports(ctx context.Context, query string, args ...any) ([]*ledger.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*ledger.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*ledger.Report, error) {
	var (
		r              ledger.Report
		month          int
		operation      sql.NullString
		costCenterJSON sql.NullString
		daysJSON       string
		invoiceJSON    sql.NullString
		refundsJSON    sql.NullString
		submittedAt    sql.NullString
		updatedAt      string
	)

	err := row.Scan(
		&r.WorkerID, &r.Year, &month, &r.Status, &operation, &costCenterJSON,
		&daysJSON, &invoiceJSON, &refundsJSON,
		&r.TotalMinutes, &r.DaysWorked, &submittedAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	r.Month = time.Month(month)
	r.Operation = operation.String
	if err := json.Unmarshal([]byte(daysJSON), &r.Days); err != nil {
		return nil, fmt.Errorf("failed to decode report days: %w", err)
	}
	if r.Days == nil {
		r.Days = make(map[ledger.DateKey]ledger.DayRecord)
	}
	if costCenterJSON.Valid {
		r.CostCenter = &ledger.CostCenterRef{}
		if err := json.Unmarshal([]byte(costCenterJSON.String), r.CostCenter); err != nil {
			return nil, fmt.Errorf("failed to decode cost center: %w", err)
		}
	}
	if invoiceJSON.Valid {
		r.Invoice = &ledger.Invoice{}
		if err := json.Unmarshal([]byte(invoiceJSON.String), r.Invoice); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
	}
	if refundsJSON.Valid {
		if err := json.Unmarshal([]byte(refundsJSON.String), &r.Refunds); err != nil {
			return nil, fmt.Errorf("failed to decode refunds: %w", err)
		}
	}
	if submittedAt.Valid {
		r.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt.String)
	}
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &r, nil
}

// =============================================================================
// WORKER STORE (ledger.WorkerStore interface)
// =============================================================================

func (s *Store) GetWorker(ctx context.Context, id ledger.WorkerID) (*ledger.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w ledger.Worker
	var company sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, company, contract, archived FROM workers WHERE id = ?",
		id,
	).Scan(&w.ID, &w.Name, &company, &w.Contract, &w.Archived)

	if err == sql.ErrNoRows {
		return nil, ledger.ErrWorkerNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Company = company.String
	return &w, nil
}

func (s *Store) PutWorker(ctx context.Context, w ledger.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO workers (id, name, company, contract, archived)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			company = excluded.company,
			contract = excluded.contract,
			archived = excluded.archived
	`

	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.Name, nullString(w.Company), w.Contract, w.Archived)
	return err
}

func (s *Store) ListWorkers(ctx context.Context) ([]ledger.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, company, contract, archived FROM workers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []ledger.Worker
	for rows.Next() {
		var w ledger.Worker
		var company sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &company, &w.Contract, &w.Archived); err != nil {
			return nil, err
		}
		w.Company = company.String
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// =============================================================================
// ASSIGNMENT STORE (ledger.AssignmentStore interface)
// =============================================================================

func (s *Store) GetAssignments(ctx context.Context, worker ledger.WorkerID) (ledger.AssignmentMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT map_json FROM assignments WHERE worker_id = ?", worker).Scan(&raw)
	if err == sql.ErrNoRows {
		return ledger.AssignmentMap{}, nil
	}
	if err != nil {
		return nil, err
	}

	var m ledger.AssignmentMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return m, nil
}

func (s *Store) PutAssignments(ctx context.Context, worker ledger.WorkerID, m ledger.AssignmentMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode assignments: %w", err)
	}

	query := `
		INSERT INTO assignments (worker_id, map_json)
		VALUES (?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET map_json = excluded.map_json
	`
	_, err = s.db.ExecContext(ctx, query, worker, string(raw))
	return err
}

func (s *Store) AllAssignments(ctx context.Context) (map[ledger.WorkerID]ledger.AssignmentMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT worker_id, map_json FROM assignments")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[ledger.WorkerID]ledger.AssignmentMap)
	for rows.Next() {
		var worker ledger.WorkerID
		var raw string
		if err := rows.Scan(&worker, &raw); err != nil {
			return nil, err
		}
		var m ledger.AssignmentMap
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to decode assignments: %w", err)
		}
		out[worker] = m
	}
	return out, rows.Err()
}

// =============================================================================
// CATALOG STORE (ledger.CatalogStore interface)
// =============================================================================

func (s *Store) LoadCatalog(ctx context.Context) (*ledger.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name, cost_centers_json FROM operations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []ledger.OperationGroup
	for rows.Next() {
		var g ledger.OperationGroup
		var raw string
		if err := rows.Scan(&g.Name, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &g.CostCenters); err != nil {
			return nil, fmt.Errorf("failed to decode cost centers: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ledger.NewCatalog(groups), nil
}

func (s *Store) PutGroup(ctx context.Context, g ledger.OperationGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(g.CostCenters)
	if err != nil {
		return fmt.Errorf("failed to encode cost centers: %w", err)
	}

	query := `
		INSERT INTO operations (name, cost_centers_json)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET cost_centers_json = excluded.cost_centers_json
	`
	_, err = s.db.ExecContext(ctx, query, g.Name, string(raw))
	return err
}

// =============================================================================
// COUNTER (ledger.AtomicCounter interface)
// =============================================================================

// incrementRetries bounds the busy-retry loop on counter contention.
const incrementRetries = 5

// Increment atomically bumps a named counter and returns the new value in
// a database transaction. Under write contention (SQLITE_BUSY) the whole
// attempt retries from a clean read, up to a bounded budget; a crash
// mid-attempt rolls back and is safe. Exhausting the budget returns
// ledger.ErrConflict, which the sequencer surfaces as
// ErrSequenceUnavailable.
func (s *Store) Increment(ctx context.Context, prefix string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < incrementRetries; attempt++ {
		n, err := s.incrementOnce(ctx, prefix)
		if err == nil {
			return n, nil
		}
		if !isBusyError(err) {
			return 0, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return 0, fmt.Errorf("%w: %v", ledger.ErrConflict, lastErr)
}

func (s *Store) incrementOnce(ctx context.Context, prefix string) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n uint64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO counters (prefix, count) VALUES (?, 1)
		ON CONFLICT(prefix) DO UPDATE SET count = counters.count + 1
		RETURNING count
	`, prefix).Scan(&n)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Peek returns a counter's current value without incrementing (admin view).
func (s *Store) Peek(ctx context.Context, prefix string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	err := s.db.QueryRowContext(ctx,
		"SELECT count FROM counters WHERE prefix = ?", prefix).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"reports", "workers", "assignments", "operations", "counters"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func marshalNullable(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case *ledger.CostCenterRef:
		if x == nil {
			return sql.NullString{}, nil
		}
	case *ledger.Invoice:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode document field: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func isBusyError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "SQLITE_BUSY"))
}
