package main

import "github.com/jward/coursepath"

// CLIResult is the top-level JSON envelope for inspect, history and batch
// commands. plan prints its result object bare.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIBatchEntry is one learner's outcome in a batch run.
type CLIBatchEntry struct {
	Progress string                 `json:"progress"`
	RunID    string                 `json:"run_id,omitempty"`
	Result   *coursepath.PlanResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// CLIDeleted reports a removed run.
type CLIDeleted struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func intPtr(i int) *int { return &i }
