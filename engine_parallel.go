package coursepath

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/coursepath/internal/store"
)

// BatchItem is one learner in a batch planning request.
type BatchItem struct {
	Progress ProgressDoc
	Targets  []string
	MaxHours *float64
}

// BatchResult is the outcome for the BatchItem at the same index.
type BatchResult struct {
	Result *PlanResult
	RunID  string
	Err    error
}

// workItem holds everything a batch worker needs for one learner.
type workItem struct {
	index int
	item  BatchItem
}

// PlanBatch plans many learners against a single catalog in three phases:
//
//	Phase A (serial):   Load and compress the catalog once.
//	Phase B (parallel): Compress progress and plan per learner on a worker pool,
//	                    buffering recorded runs in a BatchedStore.
//	Phase C (serial):   Commit the buffered runs to SQLite in one transaction.
//
// Results are returned in input order. Once ctx is cancelled no further items
// are planned; those items carry ctx's error and PlanBatch returns it too.
func (e *Engine) PlanBatch(ctx context.Context, catalog CatalogDoc, items []BatchItem, record bool) ([]BatchResult, error) {
	if record && e.store == nil {
		return nil, fmt.Errorf("plan batch: record: %w", ErrNoStore)
	}

	// ---- Phase A: Serial catalog preparation ----
	cc := e.Catalog(catalog)
	hash := cc.Fingerprint()
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	var batch *store.BatchedStore
	if record {
		batch = store.NewBatchedStore(e.store)
	}

	// ---- Phase B: Parallel planning ----
	numWorkers := 1
	if e.useParallel {
		numWorkers = e.workers
		if numWorkers <= 0 {
			numWorkers = runtime.NumCPU()
		}
	}
	numWorkers = max(1, min(numWorkers, len(items)))

	workCh := make(chan workItem, len(items))
	for i, item := range items {
		workCh <- workItem{index: i, item: item}
	}
	close(workCh)

	type result struct {
		index int
		res   BatchResult
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				resultCh <- result{index: w.index, res: e.planItem(ctx, cc, hash, w.item, batch)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	failed := 0
	for r := range resultCh {
		results[r.index] = r.res
		if r.res.Err != nil {
			failed++
		}
	}

	// ---- Phase C: Serial commit ----
	if batch != nil && batch.Len() > 0 {
		if err := e.store.CommitBatch(batch); err != nil {
			for i := range results {
				results[i].RunID = ""
			}
			return results, fmt.Errorf("plan batch: %w", err)
		}
		e.log.Info("batch recorded", "runs", len(items)-failed)
	}

	e.log.Debug("batch planned", "learners", len(items), "workers", numWorkers, "failed", failed)
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("plan batch: %w", err)
	}
	return results, nil
}

// planItem plans one learner, recording into batch when it is non-nil.
func (e *Engine) planItem(ctx context.Context, cc *CompressedCatalog, hash string, item BatchItem, batch *store.BatchedStore) BatchResult {
	if err := ctx.Err(); err != nil {
		return BatchResult{Err: err}
	}
	res := e.planOne(cc, item.Progress, item.Targets, item.MaxHours, e.threshold)
	out := BatchResult{Result: res}
	if batch != nil {
		id, err := recordRun(batch, hash, item.Targets, e.threshold, res)
		if err != nil {
			out.Err = err
			return out
		}
		out.RunID = id
	}
	return out
}
