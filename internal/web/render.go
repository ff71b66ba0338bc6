package web

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/errors"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "prds", "prompts", "summaries", "search"
}

// PRDItem is one PRD row on the list page.
type PRDItem struct {
	Name                  string
	Title                 string
	OpenRequirements      int
	CompletedRequirements int
	OpenQuestions         int
	TotalDecisions        int
}

// PRDListPageData is the template data for the PRD list page.
type PRDListPageData struct {
	PageData
	Items []PRDItem
}

// DocumentPageData is the template data for any rendered markdown page
// (PRD detail, prompt log, summary).
type DocumentPageData struct {
	PageData
	Heading      string
	RenderedHTML template.HTML
}

// PromptsPageData is the template data for the prompt-log index.
type PromptsPageData struct {
	PageData
	Dates []string
}

// SummariesPageData is the template data for the summaries index.
type SummariesPageData struct {
	PageData
	Weekly  []string
	Monthly []string
	Yearly  []string
}

// SearchPageData is the template data for the search page.
type SearchPageData struct {
	PageData
	Query    string
	HasQuery bool
	Matches  []db.Match
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer parses the built-in page templates.
func NewRenderer(version string) *Renderer {
	layout := template.Must(template.New("layout").Parse(layoutHTML))

	pages := map[string]string{
		"prds":      prdListHTML,
		"document":  documentHTML,
		"prompts":   promptsHTML,
		"summaries": summariesHTML,
		"search":    searchHTML,
		"error":     errorHTML,
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, body := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.Parse(body))
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders the error page for any error, mapping error codes
// to HTTP statuses.
func (r *Renderer) renderError(w http.ResponseWriter, err error) {
	var nErr *errors.NinhoError
	if !stderrors.As(err, &nErr) {
		nErr = errors.NewInternal(err)
	}

	status := statusForCode(nErr.Code)
	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    nErr.Message,
	})
}

func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrInvalidInput:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrMalformedDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
