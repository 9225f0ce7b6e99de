package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/storage"
)

// PlanSource abstracts where saved plans come from. A storage.PlanStore
// (local) and client.Client (remote via REST API) both satisfy it.
type PlanSource interface {
	ListPlans(ctx context.Context, limit int) ([]models.Plan, error)
}

// Compile-time checks.
var (
	_ PlanSource = storage.PlanStore(nil)
	_ PlanSource = (*client.Client)(nil)
)

// New creates an MCP server with all tools and resources registered.
// plans may be nil, in which case list_plans reports that storage is off.
func New(defaults config.ModelDefaults, plans PlanSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("runplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Training mileage progression calculator. Evaluate exponential or linear weekly mileage plans: mileage at a week, the week a mileage is reached, and the weekly rate of change. Parameters not supplied fall back to the server defaults (see runplan://defaults)."),
	)

	h := &handlers{defaults: defaults, plans: plans, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolCalculateMileage, Handler: h.calculateMileage},
		server.ServerTool{Tool: toolCalculateWeek, Handler: h.calculateWeek},
		server.ServerTool{Tool: toolRateOfChange, Handler: h.rateOfChange},
		server.ServerTool{Tool: toolProgressionTable, Handler: h.progressionTable},
		server.ServerTool{Tool: toolListModels, Handler: h.listModels},
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
	)

	s.AddResources(
		server.ServerResource{Resource: resDefaults, Handler: h.defaultsResource},
	)

	return s
}

// NewHTTPHandler wraps s in the streamable HTTP transport for mounting at /mcp.
func NewHTTPHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	defaults config.ModelDefaults
	plans    PlanSource
	log      *slog.Logger
}

var resDefaults = mcp.NewResource(
	"runplan://defaults",
	"Default Parameters",
	mcp.WithResourceDescription("Model type and parameters used when a tool call leaves them out"),
	mcp.WithMIMEType("application/json"),
)
