package coursepath

import (
	"github.com/jward/coursepath/internal/docs"
	"github.com/jward/coursepath/internal/store"
)

// Public type aliases for internal document and store types used in the
// Engine and QueryBuilder APIs. These are Go type aliases (=), identical to
// the internal types at compile time.

type CatalogDoc = docs.CatalogDoc
type CourseDoc = docs.CourseDoc
type ModuleDoc = docs.ModuleDoc
type ProgressDoc = docs.ProgressDoc
type PreferencesDoc = docs.PreferencesDoc
type ConstraintsDoc = docs.ConstraintsDoc
type TargetsDoc = docs.TargetsDoc

type Store = store.Store
type Run = store.Run
type Step = store.Step
