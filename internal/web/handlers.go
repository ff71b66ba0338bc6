package web

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/errors"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	project  *storage.ProjectStorage
	global   *storage.Storage
	cfg      *config.Config
	renderer *Renderer
}

// HandlePRDList handles GET /prds: all PRDs with requirement counts.
func (h *Handlers) HandlePRDList(w http.ResponseWriter, r *http.Request) {
	store := prd.NewStore(h.project)

	var items []PRDItem
	for _, name := range store.List() {
		sum, ok := store.GetSummary(name)
		if !ok {
			continue
		}
		content, _ := store.Read(name)
		items = append(items, PRDItem{
			Name:                  name,
			Title:                 documentHeading(content, name),
			OpenRequirements:      sum.OpenRequirements,
			CompletedRequirements: sum.CompletedRequirements,
			OpenQuestions:         sum.OpenQuestions,
			TotalDecisions:        sum.TotalDecisions,
		})
	}

	h.renderer.renderPage(w, "prds", PRDListPageData{
		PageData: PageData{Title: "PRDs", Version: h.renderer.version, Nav: "prds"},
		Items:    items,
	})
}

// HandlePRDDetail handles GET /prds/{name}: one PRD rendered as HTML.
func (h *Handlers) HandlePRDDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	content, ok := storage.ReadFile(h.project.PRDFile(name))
	if !ok {
		h.renderer.renderError(w, errors.NewNotFound("prd "+name))
		return
	}

	h.renderer.renderPage(w, "document", DocumentPageData{
		PageData:     PageData{Title: documentHeading(content, name), Version: h.renderer.version, Nav: "prds"},
		Heading:      name,
		RenderedHTML: renderMarkdown(content),
	})
}

// HandlePromptIndex handles GET /prompts: days with a prompt log,
// newest first.
func (h *Handlers) HandlePromptIndex(w http.ResponseWriter, r *http.Request) {
	dates := h.project.ListPromptDates()
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}

	h.renderer.renderPage(w, "prompts", PromptsPageData{
		PageData: PageData{Title: "Prompt Logs", Version: h.renderer.version, Nav: "prompts"},
		Dates:    dates,
	})
}

// HandlePromptDetail handles GET /prompts/{date}.
func (h *Handlers) HandlePromptDetail(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		h.renderer.renderError(w, errors.NewInvalidInput("bad date "+date))
		return
	}
	content, ok := storage.ReadFile(h.project.PromptFile(parsed))
	if !ok {
		h.renderer.renderError(w, errors.NewNotFound("prompt log "+date))
		return
	}

	h.renderer.renderPage(w, "document", DocumentPageData{
		PageData:     PageData{Title: "Prompts " + date, Version: h.renderer.version, Nav: "prompts"},
		Heading:      date,
		RenderedHTML: renderMarkdown(content),
	})
}

// HandleSummaryIndex handles GET /summaries.
func (h *Handlers) HandleSummaryIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "summaries", SummariesPageData{
		PageData: PageData{Title: "Summaries", Version: h.renderer.version, Nav: "summaries"},
		Weekly:   h.project.ListSummaries("weekly"),
		Monthly:  h.project.ListSummaries("monthly"),
		Yearly:   h.project.ListSummaries("yearly"),
	})
}

// HandleSummaryDetail handles GET /summaries/{type}/{key}.
func (h *Handlers) HandleSummaryDetail(w http.ResponseWriter, r *http.Request) {
	periodType := r.PathValue("type")
	key := r.PathValue("key")
	switch periodType {
	case "weekly", "monthly", "yearly":
	default:
		h.renderer.renderError(w, errors.NewInvalidInput("unknown period type "+periodType))
		return
	}

	content, ok := storage.ReadFile(h.project.SummaryFile(periodType, key))
	if !ok {
		h.renderer.renderError(w, errors.NewNotFound(periodType+" summary "+key))
		return
	}

	h.renderer.renderPage(w, "document", DocumentPageData{
		PageData:     PageData{Title: key + " Summary", Version: h.renderer.version, Nav: "summaries"},
		Heading:      key,
		RenderedHTML: renderMarkdown(content),
	})
}

// HandleSearch handles GET /search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := SearchPageData{
		PageData: PageData{Title: "Search", Version: h.renderer.version, Nav: "search"},
		Query:    query,
		HasQuery: query != "",
	}
	if query == "" {
		h.renderer.renderPage(w, "search", data)
		return
	}

	matches, err := db.Search(h.db, query, 50)
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}
	data.Matches = matches
	h.renderer.renderPage(w, "search", data)
}

// documentHeading returns a markdown document's H1, or fallback.
func documentHeading(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return fallback
}
