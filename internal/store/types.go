package store

import "time"

// Run is one recorded planning run. Steps is only populated on the write
// path; readers load steps separately with StepsByRun.
type Run struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	CatalogHash         string    `json:"catalog_hash"`
	Targets             []string  `json:"targets"`
	MasteryThreshold    float64   `json:"mastery_threshold"`
	Budget              *float64  `json:"budget,omitempty"`
	TopicsConsidered    int       `json:"topics_considered"`
	TopicsPlanned       int       `json:"topics_planned"`
	EstimatedTotalHours float64   `json:"estimated_total_hours"`
	Steps               []Step    `json:"steps,omitempty"`
}

// Step is one scheduled module of a recorded run.
type Step struct {
	RunID          string   `json:"run_id"`
	Ordinal        int      `json:"ordinal"`
	ModuleID       string   `json:"module_id"`
	Topic          string   `json:"topic"`
	EstimatedHours float64  `json:"estimated_hours"`
	Rationale      []string `json:"rationale"`
}

// TopicDigest is the part of a compressed topic that identifies a catalog
// for ComputeCatalogHash.
type TopicDigest struct {
	Name          string
	Prereqs       []string
	Modules       []string
	CoverageHours float64
}
