package main

import (
	"fmt"

	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/docs"
	"github.com/spf13/cobra"
)

var (
	flagInspectCatalog string
	flagTop            int
	flagDepth          int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect a compressed catalog",
	Long:  "Prints catalog statistics: topic, module and edge counts, uncovered topics and the best covered topics.",
	Args:  cobra.NoArgs,
	RunE:  runInspectSummary,
}

var inspectCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List prerequisite cycles",
	Args:  cobra.NoArgs,
	RunE:  runInspectCycles,
}

var inspectPrereqsCmd = &cobra.Command{
	Use:   "prereqs <topic>",
	Short: "Show everything a topic depends on",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectGraph("inspect prereqs", (*coursepath.CompressedCatalog).TransitivePrerequisites),
}

var inspectDependentsCmd = &cobra.Command{
	Use:   "dependents <topic>",
	Short: "Show every topic that depends on a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectGraph("inspect dependents", (*coursepath.CompressedCatalog).TransitiveDependents),
}

func init() {
	inspectCmd.PersistentFlags().StringVar(&flagInspectCatalog, "catalog", "", "catalog document (.json, .yaml)")
	_ = inspectCmd.MarkPersistentFlagRequired("catalog")
	inspectCmd.Flags().IntVar(&flagTop, "top", 10, "number of best covered topics to list")

	for _, c := range []*cobra.Command{inspectPrereqsCmd, inspectDependentsCmd} {
		c.Flags().IntVar(&flagDepth, "depth", 5, "maximum levels to traverse (capped at 100)")
	}

	inspectCmd.AddCommand(inspectCyclesCmd)
	inspectCmd.AddCommand(inspectPrereqsCmd)
	inspectCmd.AddCommand(inspectDependentsCmd)
}

// loadCatalog reads and compresses the --catalog document.
func loadCatalog() (*coursepath.CompressedCatalog, error) {
	doc, err := docs.ReadCatalog(flagInspectCatalog)
	if err != nil {
		return nil, err
	}
	engine, err := coursepath.New("", coursepath.WithLogger(cliLog))
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	return engine.Catalog(doc), nil
}

func runInspectSummary(cmd *cobra.Command, args []string) error {
	if flagTop < 0 {
		return fmt.Errorf("--top must be non-negative, got %d", flagTop)
	}
	cc, err := loadCatalog()
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "inspect",
		Results: *cc.Summary(flagTop),
	})
}

func runInspectCycles(cmd *cobra.Command, args []string) error {
	cc, err := loadCatalog()
	if err != nil {
		return err
	}
	cycles := cc.PrerequisiteCycles()
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "inspect cycles",
		Results:    cycles,
		TotalCount: intPtr(len(cycles)),
	})
}

type graphQuery func(c *coursepath.CompressedCatalog, topic string, maxDepth int) (*coursepath.TopicGraph, error)

func runInspectGraph(command string, query graphQuery) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc, err := loadCatalog()
		if err != nil {
			return err
		}
		g, err := query(cc, args[0], flagDepth)
		if err != nil {
			return err
		}
		if g == nil {
			return fmt.Errorf("topic %q (%s) not in catalog", args[0], coursepath.Normalize(args[0]))
		}
		return outputResult(cmd.OutOrStdout(), CLIResult{
			Command:    command,
			Results:    *g,
			TotalCount: intPtr(len(g.Nodes)),
		})
	}
}
