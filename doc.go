// Package coursepath compresses a catalog of learning content into a
// topic-level dependency graph and plans ordered, budget-constrained
// learning paths that close a learner's prerequisite gaps.
//
// # Pipeline
//
// Planning runs in four stages, each a pure function over immutable input:
//
//  1. Load: [Load] turns a raw catalog document into typed [Course] and
//     [Module] values, assigning synthetic ids and normalizing every topic
//     and prerequisite label with [Normalize].
//
//  2. Compress: [Compress] builds one [CompressedTopic] per canonical topic,
//     fans course prerequisites out to every topic the course teaches,
//     accumulates coverage hours, and folds modules with identical topic
//     sets into a single representative.
//
//  3. Progress: [CompressProgress] maps the learner's mastery record onto
//     the compressed topic space and boosts topics taught by completed
//     courses.
//
//  4. Plan: [Plan] computes the prerequisite closure of the targets, orders
//     the unmastered topics so prerequisites come first, picks the cheapest
//     module per topic, and stops at the first step that breaks the hours
//     budget.
//
// # Usage
//
//	cat := coursepath.Load(catalogDoc)
//	cc := coursepath.Compress(cat)
//	progress := coursepath.CompressProgress(progressDoc, cc)
//	result := coursepath.Plan(cc, progress, coursepath.WithTargets("loop"))
//
// The [Engine] wraps the same pipeline with logging, batch planning over a
// worker pool, and an optional SQLite run history queried through
// [Engine.Query].
//
// # Cycles
//
// Prerequisite data may contain cycles. Closure and ordering never fail on
// them: an edge back into a topic that is still being visited is ignored, so
// the traversal order decides where a cycle is cut. Topics and their
// prerequisites are always walked in first-seen catalog order, which makes
// the cut reproducible. [CompressedCatalog.PrerequisiteCycles] reports the
// cycles for diagnostics.
package coursepath
