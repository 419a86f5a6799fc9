package coursepath

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jward/coursepath/internal/logger"
	"github.com/jward/coursepath/internal/store"
)

// ErrNoStore is returned when an operation needs run history but the Engine
// was created without a database.
var ErrNoStore = errors.New("no run store configured")

// Engine runs the planning pipeline (load, compress, progress, plan) with
// logging, optional run recording, and batch planning.
type Engine struct {
	store     *store.Store // nil when running without history
	log       *logger.Logger
	threshold float64

	// useParallel enables the worker pool in PlanBatch.
	useParallel bool
	workers     int // 0 means one per CPU
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMasteryThreshold sets the default mastery threshold for requests that
// do not carry their own.
func WithMasteryThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// WithParallel controls batch planning. When true (default), PlanBatch
// plans learners on a worker pool and records runs through a single
// committing goroutine. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers caps the PlanBatch worker pool. Zero or negative means one
// worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine. When dbPath is non-empty, planning runs can be
// recorded to a SQLite database at that path; an empty dbPath disables
// history.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		log:         logger.Nop(),
		threshold:   DefaultMasteryThreshold,
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := validateThreshold(e.threshold); err != nil {
		return nil, fmt.Errorf("coursepath: %w", err)
	}

	if dbPath != "" {
		s, err := store.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("coursepath: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("coursepath: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil without history.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a QueryBuilder over the run history.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Request is a single planning request.
type Request struct {
	Catalog  CatalogDoc
	Progress ProgressDoc
	// Targets restricts the plan; empty means every catalog topic.
	Targets []string
	// MaxHours overrides the learner's max_hours_per_week when set and
	// non-zero.
	MaxHours *float64
	// MasteryThreshold overrides the Engine default when set.
	MasteryThreshold *float64
	// Record stores the run in the history database.
	Record bool
}

// Outcome is the result of a planning request.
type Outcome struct {
	Result      *PlanResult
	CatalogHash string
	RunID       string // empty unless recorded
}

// Catalog loads and compresses a catalog document.
func (e *Engine) Catalog(doc CatalogDoc) *CompressedCatalog {
	start := time.Now()
	cc := Compress(Load(doc))
	e.log.Debug("catalog compressed",
		"courses", cc.courseCount,
		"topics", len(cc.topicOrder),
		"modules", len(cc.moduleOrder),
		"dropped_modules", len(cc.dropped),
		"elapsed", time.Since(start),
	)
	return cc
}

// Plan runs the full pipeline for one learner.
func (e *Engine) Plan(ctx context.Context, req Request) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if req.Record && e.store == nil {
		return nil, fmt.Errorf("plan: record: %w", ErrNoStore)
	}
	threshold, err := e.thresholdFor(req.MasteryThreshold)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	cc := e.Catalog(req.Catalog)
	res := e.planOne(cc, req.Progress, req.Targets, req.MaxHours, threshold)
	out := &Outcome{Result: res, CatalogHash: cc.Fingerprint()}

	if req.Record {
		id, err := recordRun(e.store, out.CatalogHash, req.Targets, threshold, res)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		out.RunID = id
		e.log.Info("run recorded", "run_id", id, "steps", len(res.Plan))
	}
	return out, nil
}

// DeleteRun removes a recorded run. The returned bool reports whether the
// run existed.
func (e *Engine) DeleteRun(id string) (bool, error) {
	if e.store == nil {
		return false, fmt.Errorf("delete run: %w", ErrNoStore)
	}
	return e.store.DeleteRun(id)
}

func (e *Engine) thresholdFor(override *float64) (float64, error) {
	if override == nil {
		return e.threshold, nil
	}
	if err := validateThreshold(*override); err != nil {
		return 0, err
	}
	return *override, nil
}

func validateThreshold(x float64) error {
	if x < 0 || x > 1 {
		return fmt.Errorf("mastery threshold must be within [0, 1], got %g", x)
	}
	return nil
}

// planOne compresses progress against cc and plans. Safe for concurrent use
// on a shared cc.
func (e *Engine) planOne(cc *CompressedCatalog, raw ProgressDoc, targets []string, maxHours *float64, threshold float64) *PlanResult {
	progress := CompressProgress(raw, cc)
	opts := []PlanOption{WithTargets(targets...), WithThreshold(threshold)}
	if maxHours != nil {
		opts = append(opts, WithMaxHours(*maxHours))
	}
	res := Plan(cc, progress, opts...)
	e.log.Debug("plan computed",
		"required", res.Summary.TopicsConsidered,
		"planned", res.Summary.TopicsPlanned,
		"steps", len(res.Plan),
		"hours", res.Summary.EstimatedTotalHours,
	)
	return res
}

// recordRun writes a plan result through ds and returns the run id.
func recordRun(ds store.DataStore, catalogHash string, targets []string, threshold float64, res *PlanResult) (string, error) {
	run := &store.Run{
		CreatedAt:           time.Now().UTC(),
		CatalogHash:         catalogHash,
		Targets:             append([]string(nil), targets...),
		MasteryThreshold:    threshold,
		Budget:              res.Budget,
		TopicsConsidered:    res.Summary.TopicsConsidered,
		TopicsPlanned:       res.Summary.TopicsPlanned,
		EstimatedTotalHours: res.Summary.EstimatedTotalHours,
		Steps:               make([]store.Step, 0, len(res.Plan)),
	}
	for _, st := range res.Plan {
		run.Steps = append(run.Steps, store.Step{
			ModuleID:       st.ModuleID,
			Topic:          st.Topics[0],
			EstimatedHours: st.EstimatedHours,
			Rationale:      st.Rationale,
		})
	}
	id, err := ds.InsertRun(run)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}
