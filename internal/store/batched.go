package store

import "sync"

// BatchedStore buffers run inserts in memory. It implements DataStore so
// planning workers can record runs without knowing whether they're hitting
// SQLite or an in-memory buffer. Run ids are assigned at buffer time, so
// nothing needs remapping on commit.
//
// Thread safety: the mutex protects the buffer. RunByID falls through to
// the underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Runs []Run
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read
// queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

func (b *BatchedStore) InsertRun(run *Run) (string, error) {
	prepareRun(run)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Runs = append(b.Runs, *run)
	return run.ID, nil
}

// RunByID returns a buffered run if one matches, else the stored run.
func (b *BatchedStore) RunByID(id string) (*Run, error) {
	b.mu.Lock()
	for i := range b.Runs {
		if b.Runs[i].ID == id {
			r := b.Runs[i]
			b.mu.Unlock()
			return &r, nil
		}
	}
	b.mu.Unlock()
	return b.store.RunByID(id)
}

// Len returns the number of buffered runs.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Runs)
}
