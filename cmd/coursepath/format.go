package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/coursepath"
)

// outputResult writes result as indented JSON or, with --format text, as a
// human-readable view of its Results.
func outputResult(w io.Writer, result CLIResult) error {
	if cfg.Format == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case coursepath.CatalogSummary:
		formatSummaryText(w, v)
	case [][]string:
		formatCyclesText(w, v)
	case coursepath.TopicGraph:
		formatGraphText(w, v)
	case []coursepath.Run:
		formatRunsText(w, v)
	case coursepath.RunDetail:
		formatRunDetailText(w, v)
	case []CLIBatchEntry:
		formatBatchText(w, v)
	case CLIDeleted:
		fmt.Fprintf(w, "Deleted run %s\n", v.ID)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case [][]string:
		return len(r)
	case []coursepath.Run:
		return len(r)
	case []CLIBatchEntry:
		return len(r)
	case coursepath.TopicGraph:
		return len(r.Nodes)
	case nil:
		return 0
	default:
		return 1
	}
}

// formatPlanText prints plan steps as aligned columns followed by totals.
func formatPlanText(w io.Writer, res *coursepath.PlanResult) {
	if len(res.Plan) == 0 {
		fmt.Fprintln(w, "Nothing to study.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tMODULE\tTOPIC\tHOURS\tRATIONALE")
		for i, st := range res.Plan {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				i+1, st.ModuleID, strings.Join(st.Topics, ", "), hours(st.EstimatedHours), strings.Join(st.Rationale, "; "))
		}
		tw.Flush()
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Topics considered: %d\n", res.Summary.TopicsConsidered)
	fmt.Fprintf(w, "Topics planned:    %d\n", res.Summary.TopicsPlanned)
	fmt.Fprintf(w, "Estimated hours:   %s\n", hours(res.Summary.EstimatedTotalHours))
}

// formatSummaryText prints catalog statistics.
func formatSummaryText(w io.Writer, s coursepath.CatalogSummary) {
	fmt.Fprintln(w, "Catalog Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Courses: %d\n", s.Courses)
	fmt.Fprintf(w, "Topics: %d\n", s.Topics)
	fmt.Fprintf(w, "Modules: %d (%d dropped as duplicates)\n", s.Modules, s.DroppedModules)
	fmt.Fprintf(w, "Prerequisite edges: %d\n", s.Edges)
	fmt.Fprintf(w, "Fingerprint: %s\n", s.Fingerprint)

	if len(s.Uncovered) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Uncovered topics: %s\n", strings.Join(s.Uncovered, ", "))
	}

	if len(s.TopTopics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Topics by Coverage:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, tc := range s.TopTopics {
			fmt.Fprintf(tw, "  %s\t%sh\t%d modules\n", tc.Topic, hours(tc.CoverageHours), tc.ModuleCount)
		}
		tw.Flush()
	}
}

// formatCyclesText prints one cycle per line as "a -> b -> a".
func formatCyclesText(w io.Writer, cycles [][]string) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No prerequisite cycles found.")
		return
	}
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c, " -> "))
	}
}

// formatGraphText prints reached topics indented by depth.
func formatGraphText(w io.Writer, g coursepath.TopicGraph) {
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Depth), n.Topic)
	}
}

// formatRunsText prints runs as aligned columns.
func formatRunsText(w io.Writer, runs []coursepath.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTARGETS\tPLANNED\tHOURS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), targetsText(r.Targets),
			r.TopicsPlanned, r.TopicsConsidered, hours(r.EstimatedTotalHours))
	}
	tw.Flush()
}

// formatRunDetailText prints a run header and its steps.
func formatRunDetailText(w io.Writer, d coursepath.RunDetail) {
	fmt.Fprintf(w, "Run %s\n", d.Run.ID)
	fmt.Fprintf(w, "Created:   %s\n", d.Run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Catalog:   %s\n", d.Run.CatalogHash)
	fmt.Fprintf(w, "Targets:   %s\n", targetsText(d.Run.Targets))
	fmt.Fprintf(w, "Threshold: %g\n", d.Run.MasteryThreshold)
	if d.Run.Budget != nil {
		fmt.Fprintf(w, "Budget:    %sh\n", hours(*d.Run.Budget))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMODULE\tTOPIC\tHOURS\tRATIONALE")
	for _, st := range d.Steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			st.Ordinal+1, st.ModuleID, st.Topic, hours(st.EstimatedHours), strings.Join(st.Rationale, "; "))
	}
	tw.Flush()
}

// formatBatchText prints one line per learner.
func formatBatchText(w io.Writer, entries []CLIBatchEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROGRESS\tSTEPS\tHOURS\tRUN\tERROR")
	for _, e := range entries {
		steps, total := 0, 0.0
		if e.Result != nil {
			steps, total = len(e.Result.Plan), e.Result.Summary.EstimatedTotalHours
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Progress, steps, hours(total), dash(e.RunID), dash(e.Error))
	}
	tw.Flush()
}

func hours(h float64) string {
	return fmt.Sprintf("%g", h)
}

func targetsText(targets []string) string {
	if len(targets) == 0 {
		return "(all)"
	}
	return strings.Join(targets, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
