// Package mcp exposes lifedash's read-side operations as MCP tools for
// assistants talking over stdio.
package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"lifedash/internal/services"
)

// Services are the domain operations the tools read from.
type Services struct {
	Finance    *services.FinanceService
	Workouts   *services.WorkoutService
	Vocabulary *services.VocabularyService
	Habits     *services.HabitService
}

// New creates an MCP server with all tools and resources registered. now
// may be nil.
func New(svc Services, version string, log *slog.Logger, now func() time.Time) *server.MCPServer {
	s := server.NewMCPServer("lifedash", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions("lifedash personal dashboard. Read spending totals, portfolio valuation, finished workouts, vocabulary cards and habit streaks. Dates are YYYY-MM-DD."),
	)

	h := newHandlers(svc, log, now)

	s.AddTools(
		server.ServerTool{Tool: toolGetTotals, Handler: h.getTotals},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolSearchWords, Handler: h.searchWords},
		server.ServerTool{Tool: toolPortfolioValuation, Handler: h.portfolioValuation},
		server.ServerTool{Tool: toolHabitStreak, Handler: h.habitStreak},
	)

	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc Services
	log *slog.Logger
	now func() time.Time
}

func newHandlers(svc Services, log *slog.Logger, now func() time.Time) *handlers {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &handlers{svc: svc, log: log, now: now}
}

var resDashboard = mcp.NewResource(
	"lifedash://dashboard",
	"Dashboard",
	mcp.WithResourceDescription("Today's spending, payment and investment totals, outstanding debt and habit check-ins"),
	mcp.WithMIMEType("application/json"),
)

// ServeStdio runs s over stdin and stdout until ctx is cancelled or stdin
// closes. Protocol errors go to log.
func ServeStdio(ctx context.Context, s *server.MCPServer, log *slog.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(log.Handler(), slog.LevelError))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
