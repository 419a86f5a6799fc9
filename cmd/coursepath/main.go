package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/config"
	"github.com/jward/coursepath/internal/logger"
	"github.com/spf13/cobra"
)

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagLogLevel string
)

// cfg and cliLog are set by the root PersistentPreRunE before any RunE.
var (
	cfg    = config.Default()
	cliLog = logger.Nop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cliLog.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "coursepath",
	Short:         "Plan learning paths over a course catalog",
	Long:          "Coursepath compresses a course catalog into a topic prerequisite graph and plans the cheapest ordered set of modules that takes a learner to their target topics.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "run history database path (default: history disabled)")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.StringVar(&flagConfig, "config", config.DefaultPath, "config file path")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the config file and lets explicitly set flags override it.
// The config file is optional unless --config was given.
func setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	loaded, err := config.Load(flagConfig, flags.Changed("config"))
	if err != nil {
		return err
	}
	if flags.Changed("db") {
		loaded.DB = flagDB
	}
	if flags.Changed("format") {
		loaded.Format = flagFormat
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = flagLogLevel
	}
	if err := validateFormat(loaded.Format); err != nil {
		return err
	}

	l, err := logger.New(loaded.LogMode, loaded.LogLevel)
	if err != nil {
		return err
	}
	cfg, cliLog = loaded, l
	return nil
}

// openEngine creates an Engine from the loaded config. The database
// directory is created when history is enabled.
func openEngine() (*coursepath.Engine, error) {
	if cfg.DB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(cfg.DB), err)
		}
	}

	opts := []coursepath.Option{
		coursepath.WithLogger(cliLog),
		coursepath.WithMasteryThreshold(cfg.MasteryThreshold),
	}
	if cfg.Workers > 0 {
		opts = append(opts, coursepath.WithWorkers(cfg.Workers))
	}

	engine, err := coursepath.New(cfg.DB, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// requireStore fails with a hint when a command needs run history.
func requireStore(engine *coursepath.Engine) error {
	if engine.Store() == nil {
		return fmt.Errorf("%w: pass --db or set db in %s", coursepath.ErrNoStore, config.DefaultPath)
	}
	return nil
}
