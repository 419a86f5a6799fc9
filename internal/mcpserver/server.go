// Package mcpserver exposes the planner as MCP tools over stdio.
//
// It only wires: every tool decodes its document arguments with the same
// schema validation as the CLI and delegates to a coursepath.Engine.
package mcpserver

import (
	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/logger"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients. Set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every coursepath tool registered.
// History tools are registered only when the engine has a run store.
func New(engine *coursepath.Engine, log *logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"coursepath",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.AddTools(toolset(engine, log)...)

	return s
}

// toolset builds every tool handler for engine.
func toolset(engine *coursepath.Engine, log *logger.Logger) []server.ServerTool {
	planTool := NewPlanTool(engine, log)
	summaryTool := NewSummaryTool(engine)
	cyclesTool := NewCyclesTool(engine)
	graphTool := NewTopicGraphTool(engine)

	tools := []server.ServerTool{
		{Tool: planTool.Definition(), Handler: planTool.Handle},
		{Tool: summaryTool.Definition(), Handler: summaryTool.Handle},
		{Tool: cyclesTool.Definition(), Handler: cyclesTool.Handle},
		{Tool: graphTool.Definition(), Handler: graphTool.Handle},
	}
	if engine.Store() != nil {
		runsTool := NewRunsTool(engine)
		tools = append(tools, server.ServerTool{Tool: runsTool.Definition(), Handler: runsTool.Handle})
	}
	return tools
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = "coursepath plans learning paths over a course catalog. " +
	"Pass catalog and progress documents as JSON (or YAML with format=yaml). " +
	"Topic labels are normalized (lowercase, singular), so target 'loop' rather than 'Loops'. " +
	"Use catalog_cycles to diagnose circular prerequisites before planning."
