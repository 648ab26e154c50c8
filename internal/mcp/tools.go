package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"lifedash/internal/core"
	"lifedash/internal/docstore"
)

const (
	defaultWorkoutLimit = 10
	maxWorkoutLimit     = 100
)

// result is the payload of every tool: the data plus any non-fatal notices.
type result struct {
	Data    any           `json:"data"`
	Notices []core.Notice `json:"notices,omitempty"`
}

// asOf parses an optional YYYY-MM-DD date, defaulting to today.
func (h *handlers) asOf(s string) (time.Time, error) {
	if s == "" {
		return core.DateOf(h.now()).Time, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func jsonResult(data any, notices []core.Notice) (*mcp.CallToolResult, error) {
	res, err := mcp.NewToolResultJSON(result{Data: data, Notices: notices})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return res, nil
}

// --- Tool definitions ---

var toolGetTotals = mcp.NewTool("get_totals",
	mcp.WithDescription("Daily, weekly (Monday start) and monthly totals of a finance collection up to a day. Amounts are decimal strings."),
	mcp.WithString("collection", mcp.Required(), mcp.Description("Which records to add up"),
		mcp.Enum(docstore.Expenses, docstore.Payments, docstore.Investments, docstore.Debts)),
	mcp.WithString("as_of", mcp.Description("Reference day (YYYY-MM-DD). Defaults to today.")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("Finished workout sessions, newest first, with sections, exercises, entries and the hardest section."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 10."), mcp.Min(1), mcp.Max(maxWorkoutLimit)),
	mcp.WithString("focus", mcp.Description("Only sessions whose focus contains this text (case-insensitive)")),
)

var toolSearchWords = mcp.NewTool("search_words",
	mcp.WithDescription("Search vocabulary cards. Matches English, German and Turkish terms and example sentences, ignoring case."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
)

var toolPortfolioValuation = mcp.NewTool("portfolio_valuation",
	mcp.WithDescription("Value every investment at its current price. Positions without a price are valued at cost basis and reported in notices."),
	mcp.WithString("as_of", mcp.Description("Day to report the valuation for (YYYY-MM-DD). Defaults to today.")),
)

var toolHabitStreak = mcp.NewTool("habit_streak",
	mcp.WithDescription("Number of consecutive days, ending on as_of, with a check-in for a habit."),
	mcp.WithString("habit", mcp.Required(), mcp.Description("Habit name (case-insensitive)")),
	mcp.WithString("as_of", mcp.Description("Last day of the streak (YYYY-MM-DD). Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) getTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError("collection parameter is required"), nil
	}
	asOf, err := h.asOf(req.GetString("as_of", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid as_of: " + err.Error()), nil
	}

	t, notices, err := h.svc.Finance.Totals(ctx, collection, asOf)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"collection": collection,
		"as_of":      core.DateOf(asOf),
		"totals":     t,
	}, notices)
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultWorkoutLimit)
	if limit < 1 || limit > maxWorkoutLimit {
		return mcp.NewToolResultError("limit must be between 1 and 100"), nil
	}
	focus := req.GetString("focus", "")

	items, notices := h.svc.Workouts.List(ctx)
	out := items[:0]
	for _, it := range items {
		if focus == "" || containsFold(it.Record.Focus, focus) {
			out = append(out, it)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return jsonResult(out, notices)
}

func (h *handlers) searchWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	words, notices := h.svc.Vocabulary.ListWords(ctx, query)
	return jsonResult(words, notices)
}

func (h *handlers) portfolioValuation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asOf, err := h.asOf(req.GetString("as_of", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid as_of: " + err.Error()), nil
	}
	v, err := h.svc.Finance.Valuation(ctx, asOf)
	if err != nil {
		h.log.Error("mcp portfolio_valuation", "error", err)
		return mcp.NewToolResultError("valuation failed: " + err.Error()), nil
	}
	notices := v.Notices
	v.Notices = nil
	return jsonResult(v, notices)
}

func (h *handlers) habitStreak(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	habit, err := req.RequireString("habit")
	if err != nil || habit == "" {
		return mcp.NewToolResultError("habit parameter is required"), nil
	}
	asOf, err := h.asOf(req.GetString("as_of", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid as_of: " + err.Error()), nil
	}
	n, notices := h.svc.Habits.Streak(ctx, habit, asOf)
	return jsonResult(map[string]any{
		"habit":  habit,
		"as_of":  core.DateOf(asOf),
		"streak": n,
	}, notices)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
