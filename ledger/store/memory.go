// Package store provides in-memory implementations of the ledger
// persistence interfaces, used for testing and development.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldcrew/rd-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	reports     map[reportKey]*ledger.Report
	workers     map[ledger.WorkerID]ledger.Worker
	assignments map[ledger.WorkerID]ledger.AssignmentMap
	groups      []ledger.OperationGroup
	counters    map[string]uint64
	blobs       map[string][]byte
}

type reportKey struct {
	Worker ledger.WorkerID
	Year   int
	Month  time.Month
}

func NewMemory() *Memory {
	return &Memory{
		reports:     make(map[reportKey]*ledger.Report),
		workers:     make(map[ledger.WorkerID]ledger.Worker),
		assignments: make(map[ledger.WorkerID]ledger.AssignmentMap),
		counters:    make(map[string]uint64),
		blobs:       make(map[string][]byte),
	}
}

// cloneReport deep-copies so callers never alias stored state.
func cloneReport(r *ledger.Report) *ledger.Report {
	return r.Clone()
}

// =============================================================================
// REPORTS
// =============================================================================

func (m *Memory) GetReport(_ context.Context, worker ledger.WorkerID, year int, month time.Month) (*ledger.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[reportKey{worker, year, month}]
	if !ok {
		return nil, ledger.ErrReportNotFound
	}
	return cloneReport(r), nil
}

func (m *Memory) PutReport(_ context.Context, r *ledger.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Whole-document replacement: last write wins.
	m.reports[reportKey{r.WorkerID, r.Year, r.Month}] = cloneReport(r)
	return nil
}

func (m *Memory) DeleteReport(_ context.Context, worker ledger.WorkerID, year int, month time.Month) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, reportKey{worker, year, month})
	return nil
}

func (m *Memory) ReportsByWorker(_ context.Context, worker ledger.WorkerID, year int) ([]*ledger.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Report
	for k, r := range m.reports {
		if k.Worker == worker && k.Year == year {
			out = append(out, cloneReport(r))
		}
	}
	return out, nil
}

func (m *Memory) ReportsByPeriod(_ context.Context, year int, month time.Month) ([]*ledger.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.Report
	for k, r := range m.reports {
		if k.Year != year {
			continue
		}
		if month != 0 && k.Month != month {
			continue
		}
		out = append(out, cloneReport(r))
	}
	return out, nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (m *Memory) GetWorker(_ context.Context, id ledger.WorkerID) (*ledger.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, ledger.ErrWorkerNotFound
	}
	return &w, nil
}

func (m *Memory) PutWorker(_ context.Context, w ledger.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
	return nil
}

func (m *Memory) ListWorkers(_ context.Context) ([]ledger.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w)
	}
	return out, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) GetAssignments(_ context.Context, worker ledger.WorkerID) (ledger.AssignmentMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(ledger.AssignmentMap, len(m.assignments[worker]))
	for k, v := range m.assignments[worker] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) PutAssignments(_ context.Context, worker ledger.WorkerID, am ledger.AssignmentMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(ledger.AssignmentMap, len(am))
	for k, v := range am {
		cp[k] = v
	}
	m.assignments[worker] = cp
	return nil
}

func (m *Memory) AllAssignments(_ context.Context) (map[ledger.WorkerID]ledger.AssignmentMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[ledger.WorkerID]ledger.AssignmentMap, len(m.assignments))
	for w, am := range m.assignments {
		cp := make(ledger.AssignmentMap, len(am))
		for k, v := range am {
			cp[k] = v
		}
		out[w] = cp
	}
	return out, nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) LoadCatalog(_ context.Context) (*ledger.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ledger.NewCatalog(m.groups), nil
}

func (m *Memory) PutGroup(_ context.Context, g ledger.OperationGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.groups {
		if m.groups[i].Name == g.Name {
			m.groups[i] = g
			return nil
		}
	}
	m.groups = append(m.groups, g)
	return nil
}

// =============================================================================
// COUNTER - atomic in-process increment
// =============================================================================

// Increment is atomic under the store mutex: concurrent callers on the
// same prefix observe strictly increasing, gap-free values.
func (m *Memory) Increment(_ context.Context, prefix string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[prefix]++
	return m.counters[prefix], nil
}

// =============================================================================
// BLOBS - fake upload target
// =============================================================================

func (m *Memory) Upload(_ context.Context, path string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[path] = cp
	return fmt.Sprintf("memory://%s", path), nil
}

// Blob returns an uploaded blob, for test assertions.
func (m *Memory) Blob(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[path]
	return b, ok
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = make(map[reportKey]*ledger.Report)
	m.workers = make(map[ledger.WorkerID]ledger.Worker)
	m.assignments = make(map[ledger.WorkerID]ledger.AssignmentMap)
	m.groups = nil
	m.counters = make(map[string]uint64)
	m.blobs = make(map[string][]byte)
	return nil
}
