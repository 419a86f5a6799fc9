// Package coursepath compresses a learning-content catalog into a topic
// dependency graph and plans budget-constrained learning paths over it.
package coursepath
