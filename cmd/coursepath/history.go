package main

import (
	"fmt"

	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/docs"
	"github.com/spf13/cobra"
)

var (
	flagLimit          int
	flagOffset         int
	flagHistoryCatalog string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded planning runs",
	Long:  "Lists recorded runs newest first. With --catalog, lists every run recorded against that catalog's fingerprint instead.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run with its steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 50, "max results (max 500)")
	historyCmd.Flags().IntVar(&flagOffset, "offset", 0, "skip this many results")
	historyCmd.Flags().StringVar(&flagHistoryCatalog, "catalog", "", "only runs planned against this catalog document")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// openHistory opens an Engine that must have a run store.
func openHistory() (*coursepath.Engine, error) {
	engine, err := openEngine()
	if err != nil {
		return nil, err
	}
	if err := requireStore(engine); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	engine, err := openHistory()
	if err != nil {
		return err
	}
	defer engine.Close()

	if flagHistoryCatalog != "" {
		doc, err := docs.ReadCatalog(flagHistoryCatalog)
		if err != nil {
			return err
		}
		runs, err := engine.Query().RunsForCatalog(engine.Catalog(doc).Fingerprint())
		if err != nil {
			return err
		}
		return outputResult(cmd.OutOrStdout(), CLIResult{
			Command:    "history",
			Results:    runs,
			TotalCount: intPtr(len(runs)),
		})
	}

	page, err := engine.Query().Runs(coursepath.Pagination{Limit: flagLimit, Offset: flagOffset})
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command:    "history",
		Results:    page.Items,
		TotalCount: intPtr(page.TotalCount),
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	engine, err := openHistory()
	if err != nil {
		return err
	}
	defer engine.Close()

	detail, err := engine.Query().Run(args[0])
	if err != nil {
		return err
	}
	if detail == nil {
		return fmt.Errorf("run %q not found", args[0])
	}
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "history show",
		Results: *detail,
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	engine, err := openHistory()
	if err != nil {
		return err
	}
	defer engine.Close()

	deleted, err := engine.DeleteRun(args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("run %q not found", args[0])
	}
	cliLog.Info("run deleted", "run_id", args[0])
	return outputResult(cmd.OutOrStdout(), CLIResult{
		Command: "history delete",
		Results: CLIDeleted{ID: args[0], Deleted: true},
	})
}
