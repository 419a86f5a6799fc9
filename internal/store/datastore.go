package store

// DataStore is the interface for recording planning runs. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for batch
// planning) implement this interface.
type DataStore interface {
	// InsertRun records a run with its steps and returns the assigned id.
	InsertRun(run *Run) (string, error)

	RunByID(id string) (*Run, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
