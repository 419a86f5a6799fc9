package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jward/coursepath"
	"github.com/jward/coursepath/internal/docs"
	"github.com/jward/coursepath/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- shared arguments ---

func withCatalogArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("catalog",
			mcp.Required(),
			mcp.Description("Catalog document: {\"courses\": [{\"id\", \"topics\", \"prerequisites\", \"hours\", \"modules\"}]}"),
		),
		mcp.WithString("format",
			mcp.Description("Document format for catalog and progress (default: json)"),
			mcp.Enum(string(docs.FormatJSON), string(docs.FormatYAML)),
		),
	}
}

func formatArg(req mcp.CallToolRequest) docs.Format {
	if strings.EqualFold(req.GetString("format", ""), string(docs.FormatYAML)) {
		return docs.FormatYAML
	}
	return docs.FormatJSON
}

func catalogArg(req mcp.CallToolRequest) (coursepath.CatalogDoc, error) {
	raw := strings.TrimSpace(req.GetString("catalog", ""))
	if raw == "" {
		return coursepath.CatalogDoc{}, fmt.Errorf("'catalog' is required")
	}
	return docs.DecodeCatalog([]byte(raw), formatArg(req))
}

// floatArg returns the number argument at key, or nil when it is absent.
func floatArg(req mcp.CallToolRequest, key string) *float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- plan_learning_path ---

// PlanTool handles the plan_learning_path MCP tool.
type PlanTool struct {
	engine *coursepath.Engine
	log    *logger.Logger
}

// NewPlanTool creates a PlanTool backed by engine. A nil log discards
// output.
func NewPlanTool(engine *coursepath.Engine, log *logger.Logger) *PlanTool {
	if log == nil {
		log = logger.Nop()
	}
	return &PlanTool{engine: engine, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Plan an ordered learning path. Computes the prerequisite closure of the target topics, " +
				"keeps the topics below the mastery threshold, orders them prerequisites-first and " +
				"picks the cheapest module for each, stopping at the hours budget.",
		),
	}
	opts = append(opts, withCatalogArgs()...)
	opts = append(opts,
		mcp.WithString("progress",
			mcp.Description("Progress document: {\"mastery\": {topic: 0..1}, \"completed_courses\": [...], \"preferences\": {...}}"),
		),
		mcp.WithString("targets",
			mcp.Description("Comma-separated canonical topic keys (e.g. 'loop,array'). Empty plans for every topic."),
		),
		mcp.WithNumber("max_hours",
			mcp.Description("Hours budget; overrides preferences.constraints.max_hours_per_week"),
		),
		mcp.WithNumber("mastery_threshold",
			mcp.Description("Mastery at or above which a topic counts as learned (default: 0.7)"),
		),
		mcp.WithBoolean("record",
			mcp.Description("Store the run in the history database (default: false)"),
		),
	)
	return mcp.NewTool("plan_learning_path", opts...)
}

type planPayload struct {
	*coursepath.PlanResult
	CatalogHash string `json:"catalog_hash"`
	RunID       string `json:"run_id,omitempty"`
}

// Handle processes the plan_learning_path tool call.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := catalogArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var progress coursepath.ProgressDoc
	if raw := strings.TrimSpace(req.GetString("progress", "")); raw != "" {
		progress, err = docs.DecodeProgress([]byte(raw), formatArg(req))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	out, err := t.engine.Plan(ctx, coursepath.Request{
		Catalog:          catalog,
		Progress:         progress,
		Targets:          splitList(req.GetString("targets", "")),
		MaxHours:         floatArg(req, "max_hours"),
		MasteryThreshold: floatArg(req, "mastery_threshold"),
		Record:           boolArg(req, "record", false),
	})
	if err != nil {
		t.log.Warn("plan tool failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("plan failed: %v", err)), nil
	}
	return jsonResult(planPayload{PlanResult: out.Result, CatalogHash: out.CatalogHash, RunID: out.RunID})
}

// --- catalog_summary ---

// SummaryTool handles the catalog_summary MCP tool.
type SummaryTool struct {
	engine *coursepath.Engine
}

// NewSummaryTool creates a SummaryTool backed by engine.
func NewSummaryTool(engine *coursepath.Engine) *SummaryTool {
	return &SummaryTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *SummaryTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Summarize a catalog after normalization and module deduplication: counts, " +
				"topics no module teaches, and the topics with the most coverage hours.",
		),
	}
	opts = append(opts, withCatalogArgs()...)
	opts = append(opts, mcp.WithNumber("top",
		mcp.Description("How many topics to rank by coverage hours (default: 10)"),
	))
	return mcp.NewTool("catalog_summary", opts...)
}

// Handle processes the catalog_summary tool call.
func (t *SummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := catalogArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	top := int(req.GetFloat("top", 10))
	return jsonResult(t.engine.Catalog(catalog).Summary(top))
}

// --- catalog_cycles ---

// CyclesTool handles the catalog_cycles MCP tool.
type CyclesTool struct {
	engine *coursepath.Engine
}

// NewCyclesTool creates a CyclesTool backed by engine.
func NewCyclesTool(engine *coursepath.Engine) *CyclesTool {
	return &CyclesTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *CyclesTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"List circular prerequisite chains in a catalog. Planning tolerates cycles by cutting " +
				"them silently; this tool shows catalog authors where they are.",
		),
	}
	opts = append(opts, withCatalogArgs()...)
	return mcp.NewTool("catalog_cycles", opts...)
}

// Handle processes the catalog_cycles tool call.
func (t *CyclesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := catalogArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cycles := t.engine.Catalog(catalog).PrerequisiteCycles()
	if len(cycles) == 0 {
		return mcp.NewToolResultText("No prerequisite cycles found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d prerequisite cycle(s):\n", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(&b, "- %s\n", strings.Join(c, " -> "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// --- topic_graph ---

// TopicGraphTool handles the topic_graph MCP tool.
type TopicGraphTool struct {
	engine *coursepath.Engine
}

// NewTopicGraphTool creates a TopicGraphTool backed by engine.
func NewTopicGraphTool(engine *coursepath.Engine) *TopicGraphTool {
	return &TopicGraphTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *TopicGraphTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Walk the prerequisite graph from a topic. direction=prerequisites lists what the topic " +
				"depends on; direction=dependents lists what depends on it.",
		),
	}
	opts = append(opts, withCatalogArgs()...)
	opts = append(opts,
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic label; normalized before lookup"),
		),
		mcp.WithString("direction",
			mcp.Description("Walk direction (default: prerequisites)"),
			mcp.Enum("prerequisites", "dependents"),
		),
		mcp.WithNumber("depth",
			mcp.Description("How many levels to walk (default: 5, max: 100)"),
		),
	)
	return mcp.NewTool("topic_graph", opts...)
}

// Handle processes the topic_graph tool call.
func (t *TopicGraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := catalogArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic := strings.TrimSpace(req.GetString("topic", ""))
	if topic == "" {
		return mcp.NewToolResultError("'topic' is required"), nil
	}
	depth := int(req.GetFloat("depth", 5))

	cc := t.engine.Catalog(catalog)
	var g *coursepath.TopicGraph
	switch req.GetString("direction", "prerequisites") {
	case "dependents":
		g, err = cc.TransitiveDependents(topic, depth)
	default:
		g, err = cc.TransitivePrerequisites(topic, depth)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if g == nil {
		return mcp.NewToolResultError(fmt.Sprintf("topic %q (key %q) is not in the catalog", topic, coursepath.Normalize(topic))), nil
	}
	return jsonResult(g)
}

// --- list_runs ---

// RunsTool handles the list_runs MCP tool.
type RunsTool struct {
	engine *coursepath.Engine
}

// NewRunsTool creates a RunsTool backed by engine.
func NewRunsTool(engine *coursepath.Engine) *RunsTool {
	return &RunsTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *RunsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded planning runs, newest first. Pass run_id to fetch one run with its steps."),
		mcp.WithString("run_id",
			mcp.Description("Return this run and its steps instead of a list"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (default: 50, max: 500)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Runs to skip (default: 0)"),
		),
	)
}

// Handle processes the list_runs tool call.
func (t *RunsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := t.engine.Query()

	if id := strings.TrimSpace(req.GetString("run_id", "")); id != "" {
		detail, err := q.Run(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if detail == nil {
			return mcp.NewToolResultError(fmt.Sprintf("run %q not found", id)), nil
		}
		return jsonResult(detail)
	}

	page, err := q.Runs(coursepath.Pagination{
		Offset: int(req.GetFloat("offset", 0)),
		Limit:  int(req.GetFloat("limit", 0)),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}
