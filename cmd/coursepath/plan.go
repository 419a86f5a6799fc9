package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/docs"
	"github.com/spf13/cobra"
)

var (
	flagCatalog   string
	flagProgress  string
	flagTargets   string
	flagMaxHours  float64
	flagThreshold float64
	flagRecord    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a learning path for one learner",
	Long:  "Reads a catalog, an optional progress document and an optional targets document, and prints the ordered study plan.",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&flagCatalog, "catalog", "", "catalog document (.json, .yaml)")
	planCmd.Flags().StringVar(&flagProgress, "progress", "", "learner progress document")
	planCmd.Flags().StringVar(&flagTargets, "targets", "", "targets document (default: every catalog topic)")
	planCmd.Flags().Float64Var(&flagMaxHours, "max-hours", 0, "hours budget, overrides the learner's max_hours_per_week")
	planCmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "mastery threshold in [0, 1] (default from config)")
	planCmd.Flags().BoolVar(&flagRecord, "record", false, "record the run in the history database")
	_ = planCmd.MarkFlagRequired("catalog")
}

func runPlan(cmd *cobra.Command, args []string) error {
	catalog, err := docs.ReadCatalog(flagCatalog)
	if err != nil {
		return err
	}
	progress, err := readProgress(flagProgress)
	if err != nil {
		return err
	}
	targets, err := readTargets(flagTargets)
	if err != nil {
		return err
	}

	req := coursepath.Request{
		Catalog:  catalog,
		Progress: progress,
		Targets:  targets,
		Record:   flagRecord,
	}
	if req.MaxHours, err = maxHoursFlag(cmd); err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		x := flagThreshold
		req.MasteryThreshold = &x
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()
	if flagRecord {
		if err := requireStore(engine); err != nil {
			return err
		}
	}

	out, err := engine.Plan(cmd.Context(), req)
	if err != nil {
		return err
	}
	if out.RunID != "" {
		fmt.Fprintf(os.Stderr, "Recorded run %s\n", out.RunID)
	}
	return outputPlan(cmd.OutOrStdout(), out.Result)
}

// outputPlan prints a plan result. JSON output is exactly the result object.
func outputPlan(w io.Writer, res *coursepath.PlanResult) error {
	if cfg.Format == "text" {
		formatPlanText(w, res)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readProgress(path string) (coursepath.ProgressDoc, error) {
	if path == "" {
		return coursepath.ProgressDoc{}, nil
	}
	return docs.ReadProgress(path)
}

func readTargets(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	doc, err := docs.ReadTargets(path)
	if err != nil {
		return nil, err
	}
	return doc.Topics(), nil
}

// maxHoursFlag returns the --max-hours value, or nil when it was not set.
func maxHoursFlag(cmd *cobra.Command) (*float64, error) {
	if !cmd.Flags().Changed("max-hours") {
		return nil, nil
	}
	if flagMaxHours < 0 {
		return nil, fmt.Errorf("--max-hours must be non-negative, got %g", flagMaxHours)
	}
	h := flagMaxHours
	return &h, nil
}

var flagProgressFiles []string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Plan learning paths for many learners against one catalog",
	Long:  "Compresses the catalog once and plans every --progress document on a worker pool. Results keep the order of the --progress flags.",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&flagCatalog, "catalog", "", "catalog document (.json, .yaml)")
	batchCmd.Flags().StringArrayVar(&flagProgressFiles, "progress", nil, "learner progress document (repeatable)")
	batchCmd.Flags().StringVar(&flagTargets, "targets", "", "targets document shared by every learner")
	batchCmd.Flags().Float64Var(&flagMaxHours, "max-hours", 0, "hours budget applied to every learner")
	batchCmd.Flags().BoolVar(&flagRecord, "record", false, "record every run in the history database")
	_ = batchCmd.MarkFlagRequired("catalog")
	_ = batchCmd.MarkFlagRequired("progress")
}

func runBatch(cmd *cobra.Command, args []string) error {
	catalog, err := docs.ReadCatalog(flagCatalog)
	if err != nil {
		return err
	}
	targets, err := readTargets(flagTargets)
	if err != nil {
		return err
	}
	maxHours, err := maxHoursFlag(cmd)
	if err != nil {
		return err
	}

	items := make([]coursepath.BatchItem, 0, len(flagProgressFiles))
	for _, path := range flagProgressFiles {
		progress, err := docs.ReadProgress(path)
		if err != nil {
			return err
		}
		items = append(items, coursepath.BatchItem{Progress: progress, Targets: targets, MaxHours: maxHours})
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()
	if flagRecord {
		if err := requireStore(engine); err != nil {
			return err
		}
	}

	results, batchErr := engine.PlanBatch(cmd.Context(), catalog, items, flagRecord)
	if results == nil {
		return batchErr
	}

	entries := make([]CLIBatchEntry, len(results))
	failed := 0
	for i, r := range results {
		entries[i] = CLIBatchEntry{Progress: flagProgressFiles[i], RunID: r.RunID, Result: r.Result}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
			failed++
		}
	}
	if err := outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "batch",
		Results:    entries,
		TotalCount: intPtr(len(entries)),
	}); err != nil {
		return err
	}

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans failed", failed, len(entries))
	}
	return nil
}
