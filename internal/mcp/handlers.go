package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/errors"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	project *storage.ProjectStorage
	global  *storage.Storage
	cfg     *config.Config
	now     func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, project *storage.ProjectStorage, global *storage.Storage, cfg *config.Config) *Handlers {
	return &Handlers{
		db:      database,
		project: project,
		global:  global,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Request types for each tool

// SearchRequest represents the arguments for memory_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// PRDFetchRequest represents the arguments for prd_fetch.
type PRDFetchRequest struct {
	Name string `json:"name"`
}

// LearningsRecentRequest represents the arguments for learnings_recent.
type LearningsRecentRequest struct {
	Days int `json:"days,omitempty"`
}

// SummaryFetchRequest represents the arguments for summary_fetch.
type SummaryFetchRequest struct {
	PeriodType string `json:"period_type,omitempty"`
	Period     string `json:"period,omitempty"`
}

// Handler implementations

// HandleSearch handles the memory_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	matches, err := db.Search(h.db, input.Query, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	type matchPayload struct {
		Kind  string `json:"kind"`
		Ref   string `json:"ref"`
		Title string `json:"title"`
		Line  int    `json:"line"`
		Text  string `json:"text"`
	}
	payload := struct {
		Query   string         `json:"query"`
		Count   int            `json:"count"`
		Matches []matchPayload `json:"matches"`
	}{Query: input.Query, Count: len(matches), Matches: []matchPayload{}}
	for _, m := range matches {
		payload.Matches = append(payload.Matches, matchPayload{
			Kind:  m.Kind,
			Ref:   m.Ref,
			Title: m.Title,
			Line:  m.Line,
			Text:  m.Text,
		})
	}
	return successResult(payload)
}

// HandleStatus handles the memory_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := prd.NewStore(h.project)

	type prdPayload struct {
		Name                  string `json:"name"`
		OpenRequirements      int    `json:"open_requirements"`
		CompletedRequirements int    `json:"completed_requirements"`
		OpenQuestions         int    `json:"open_questions"`
		TotalDecisions        int    `json:"total_decisions"`
	}
	prds := []prdPayload{}
	for _, name := range store.List() {
		sum, ok := store.GetSummary(name)
		if !ok {
			continue
		}
		prds = append(prds, prdPayload{
			Name:                  name,
			OpenRequirements:      sum.OpenRequirements,
			CompletedRequirements: sum.CompletedRequirements,
			OpenQuestions:         sum.OpenQuestions,
			TotalDecisions:        sum.TotalDecisions,
		})
	}

	indexed, err := db.Status(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	payload := struct {
		Project    string         `json:"project"`
		PRDs       []prdPayload   `json:"prds"`
		PromptDays int            `json:"prompt_days"`
		Summaries  map[string]int `json:"summaries"`
		LearnDays  int            `json:"learning_days"`
		Indexed    map[string]int `json:"indexed"`
	}{
		Project:    h.project.ProjectPath,
		PRDs:       prds,
		PromptDays: len(h.project.ListPromptDates()),
		Summaries: map[string]int{
			"weekly":  len(h.project.ListSummaries("weekly")),
			"monthly": len(h.project.ListSummaries("monthly")),
			"yearly":  len(h.project.ListSummaries("yearly")),
		},
		LearnDays: len(h.global.ListDailyDates()),
		Indexed:   indexed,
	}
	return successResult(payload)
}

// HandlePRDFetch handles the prd_fetch tool call.
func (h *Handlers) HandlePRDFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PRDFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	if input.Name == "" {
		return errorResult(errors.NewInvalidInput("name is required")), nil
	}

	store := prd.NewStore(h.project)
	content, ok := store.Read(input.Name)
	if !ok {
		return errorResult(errors.NewNotFound("prd " + input.Name)), nil
	}
	sum, _ := store.GetSummary(input.Name)

	payload := struct {
		Name                  string `json:"name"`
		Title                 string `json:"title"`
		OpenRequirements      int    `json:"open_requirements"`
		CompletedRequirements int    `json:"completed_requirements"`
		OpenQuestions         int    `json:"open_questions"`
		TotalDecisions        int    `json:"total_decisions"`
		Content               string `json:"content"`
	}{
		Name:                  input.Name,
		Title:                 documentTitle(content, input.Name),
		OpenRequirements:      sum.OpenRequirements,
		CompletedRequirements: sum.CompletedRequirements,
		OpenQuestions:         sum.OpenQuestions,
		TotalDecisions:        sum.TotalDecisions,
		Content:               content,
	}
	return successResult(payload)
}

var learningEntryRe = regexp.MustCompile(`(?s)## \[(\w+)\] \d{2}:\d{2}:\d{2}\n\n> (.+?)(\n\n\*\*Signal|\n\n## |\z)`)

// HandleLearningsRecent handles the learnings_recent tool call.
func (h *Handlers) HandleLearningsRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LearningsRecentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	days := input.Days
	if days <= 0 {
		days = h.cfg.RecentDays
	}

	type learningPayload struct {
		Date string `json:"date"`
		Type string `json:"type"`
		Text string `json:"text"`
	}
	learnings := []learningPayload{}
	for i := 0; i < days; i++ {
		date := h.now().AddDate(0, 0, -i)
		content, ok := storage.ReadFile(h.global.DailyFile(date))
		if !ok {
			continue
		}
		dateStr := date.Format("2006-01-02")
		for _, m := range learningEntryRe.FindAllStringSubmatch(content, -1) {
			learnings = append(learnings, learningPayload{
				Date: dateStr,
				Type: m[1],
				Text: strings.TrimSpace(m[2]),
			})
		}
	}

	payload := struct {
		Days      int               `json:"days"`
		Count     int               `json:"count"`
		Learnings []learningPayload `json:"learnings"`
	}{Days: days, Count: len(learnings), Learnings: learnings}
	return successResult(payload)
}

// HandleSummaryFetch handles the summary_fetch tool call.
func (h *Handlers) HandleSummaryFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	periodType := input.PeriodType
	if periodType == "" {
		periodType = "weekly"
	}
	switch periodType {
	case "weekly", "monthly", "yearly":
	default:
		return errorResult(errors.NewInvalidInput(fmt.Sprintf("unknown period type %q", periodType))), nil
	}

	available := h.project.ListSummaries(periodType)
	key := input.Period
	if key == "" {
		if len(available) == 0 {
			return errorResult(errors.NewNotFound("no " + periodType + " summaries")), nil
		}
		key = available[len(available)-1]
	}

	content, ok := storage.ReadFile(h.project.SummaryFile(periodType, key))
	if !ok {
		return errorResult(errors.NewNotFound(periodType + " summary " + key)), nil
	}

	payload := struct {
		PeriodType string   `json:"period_type"`
		Period     string   `json:"period"`
		Available  []string `json:"available"`
		Content    string   `json:"content"`
	}{PeriodType: periodType, Period: key, Available: available, Content: content}
	return successResult(payload)
}

// documentTitle returns the H1 of a markdown document, falling back to
// the document name.
func documentTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return fallback
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if nErr, ok := err.(*errors.NinhoError); ok {
		errorObj := map[string]any{
			"code":    nErr.Code,
			"message": nErr.Message,
		}
		if nErr.Code != errors.ErrInternal && nErr.Details != nil {
			errorObj["details"] = nErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
