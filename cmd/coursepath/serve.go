package main

import (
	"github.com/jward/coursepath/internal/mcpserver"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner as MCP tools over stdio",
	Long:  "Starts a Model Context Protocol server on stdin/stdout. History tools are available when --db is set. Logs go to stderr.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		cliLog.Info("mcp server starting", "history", engine.Store() != nil)
		return mcpserver.Serve(mcpserver.New(engine, cliLog))
	},
}
