/*
catalog.go - Read-only catalog and assignment snapshots

PURPOSE:
  The cost-center catalog (operation groups and their cost centers) and
  the per-worker monthly assignment table are global reference data. The
  engine never fetches them internally; callers pass explicit snapshots
  into the reconciler and aggregator, keeping the core testable without a
  live store.
*/
package ledger

import (
	"sort"
	"time"
)

// OperationGroup is a named collection of cost centers. Cost centers are
// ordered by their sequence code within the group.
type OperationGroup struct {
	Name        string          `json:"name"`
	CostCenters []CostCenterRef `json:"costCenters"`
}

// Catalog is an immutable snapshot of all operation groups.
type Catalog struct {
	groups map[string]OperationGroup
	order  []string
}

// NewCatalog builds a snapshot, sorting each group's cost centers by
// sequence code and stamping the parent group name onto every entry.
func NewCatalog(groups []OperationGroup) *Catalog {
	c := &Catalog{groups: make(map[string]OperationGroup, len(groups))}
	for _, g := range groups {
		ccs := make([]CostCenterRef, len(g.CostCenters))
		copy(ccs, g.CostCenters)
		for i := range ccs {
			ccs[i].Group = g.Name
		}
		sort.Slice(ccs, func(i, j int) bool { return ccs[i].SequenceCode < ccs[j].SequenceCode })
		c.groups[g.Name] = OperationGroup{Name: g.Name, CostCenters: ccs}
		c.order = append(c.order, g.Name)
	}
	sort.Strings(c.order)
	return c
}

// Group returns a group by name.
func (c *Catalog) Group(name string) (OperationGroup, bool) {
	g, ok := c.groups[name]
	return g, ok
}

// Groups returns all groups in name order.
func (c *Catalog) Groups() []OperationGroup {
	out := make([]OperationGroup, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.groups[name])
	}
	return out
}

// FirstCostCenter returns the lowest-ordered cost center of a group, used
// as the fallback bucket when an assignment names only the parent group.
func (c *Catalog) FirstCostCenter(group string) (CostCenterRef, bool) {
	g, ok := c.groups[group]
	if !ok || len(g.CostCenters) == 0 {
		return CostCenterRef{}, false
	}
	return g.CostCenters[0], true
}

// OrderedCostCenters returns every cost center sorted by (group name,
// sequence code) — the deterministic row ordering for exports.
func (c *Catalog) OrderedCostCenters() []CostCenterRef {
	var out []CostCenterRef
	for _, name := range c.order {
		out = append(out, c.groups[name].CostCenters...)
	}
	return out
}

// =============================================================================
// ASSIGNMENTS - per-worker, per-month operation group
// =============================================================================

// AssignmentMap maps a month key ("2026-3") to an operation group name.
// One map exists per worker.
type AssignmentMap map[string]string

// For returns the group assigned for the given month, or "".
func (m AssignmentMap) For(year int, month time.Month) string {
	return m[MonthKey(year, month)]
}

// Set records an assignment for the given month.
func (m AssignmentMap) Set(year int, month time.Month, group string) {
	m[MonthKey(year, month)] = group
}

// ApplyAssignment copies the worker's assigned operation group onto a
// report that has none of its own, the read-time fallback used when a
// report is loaded (or first created) for a month with an assignment.
func ApplyAssignment(r *Report, assignments AssignmentMap) {
	if r.Operation != "" || assignments == nil {
		return
	}
	if group := assignments.For(r.Year, r.Month); group != "" {
		r.Operation = group
	}
}
