package coursepath

import (
	"fmt"

	"github.com/jward/coursepath/internal/store"
)

// QueryBuilder provides read access to recorded planning runs.
type QueryBuilder struct {
	store *store.Store
}

// Pagination controls offset+limit paging on list results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"` // total matching results (before pagination)
}

// RunDetail is a recorded run together with its steps.
type RunDetail struct {
	Run   Run    `json:"run"`
	Steps []Step `json:"steps"`
}

// Runs lists recorded runs, newest first.
func (q *QueryBuilder) Runs(page Pagination) (*PagedResult[Run], error) {
	if q.store == nil {
		return nil, fmt.Errorf("runs: %w", ErrNoStore)
	}
	page = page.normalize()
	runs, total, err := q.store.ListRuns(page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	items := make([]Run, 0, len(runs))
	for _, r := range runs {
		items = append(items, *r)
	}
	return &PagedResult[Run]{Items: items, TotalCount: total}, nil
}

// Run returns a run with its steps. Returns nil, nil if no run has the id.
func (q *QueryBuilder) Run(id string) (*RunDetail, error) {
	if q.store == nil {
		return nil, fmt.Errorf("run: %w", ErrNoStore)
	}
	r, err := q.store.RunByID(id)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	steps, err := q.Steps(id)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return &RunDetail{Run: *r, Steps: steps}, nil
}

// Steps returns the steps of a run in plan order. Unknown runs have no
// steps.
func (q *QueryBuilder) Steps(runID string) ([]Step, error) {
	if q.store == nil {
		return nil, fmt.Errorf("steps: %w", ErrNoStore)
	}
	steps, err := q.store.StepsByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("steps: %w", err)
	}
	out := make([]Step, 0, len(steps))
	for _, st := range steps {
		out = append(out, *st)
	}
	return out, nil
}

// RunsForCatalog returns every run recorded against a catalog fingerprint,
// newest first.
func (q *QueryBuilder) RunsForCatalog(hash string) ([]Run, error) {
	if q.store == nil {
		return nil, fmt.Errorf("runs for catalog: %w", ErrNoStore)
	}
	runs, err := q.store.RunsByCatalog(hash)
	if err != nil {
		return nil, fmt.Errorf("runs for catalog: %w", err)
	}
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		out = append(out, *r)
	}
	return out, nil
}
