package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/storage"
)

var testDay = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

func setupTest(t *testing.T) *Handlers {
	t.Helper()

	ps, err := storage.NewProjectStorage(t.TempDir())
	if err != nil {
		t.Fatalf("project storage: %v", err)
	}
	gs, err := storage.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("global storage: %v", err)
	}

	files := map[string]string{
		ps.PRDFile("auth-system"): "# Auth System\n\n## Requirements\n- [ ] Support OAuth login\n- [x] Hash passwords\n",
		ps.PromptFile(testDay):    "# Prompts - 2026-03-09\n\n## [auth-system] 10:00:00\n\n> we need to support OAuth login\n\n---\n\n",
		ps.SummaryFile("weekly", "2026-W10"): "# Week 10 Summary (Mar 02-08, 2026)\n\n## Overview\n- **Prompts analyzed**: 4\n",
	}
	for path, content := range files {
		if err := storage.WriteFile(path, content); err != nil {
			t.Fatal(err)
		}
	}

	database, err := db.Open(ps.IndexDBPath())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := db.Rebuild(database, ps, gs); err != nil {
		t.Fatalf("db.Rebuild: %v", err)
	}

	return &Handlers{
		db:       database,
		project:  ps,
		global:   gs,
		cfg:      config.DefaultConfig(),
		renderer: NewRenderer("test"),
	}
}

// serve routes the request through the full mux so path values resolve.
func serve(t *testing.T, h *Handlers, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(h.db, h.project, h.global, h.cfg, "test", "127.0.0.1", 0)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestHandlePRDList(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/prds")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Auth System") {
		t.Error("PRD title missing from list")
	}
	if !strings.Contains(body, `href="/prds/auth-system"`) {
		t.Error("PRD link missing from list")
	}
}

func TestHandlePRDDetail(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/prds/auth-system")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Auth System</h1>") {
		t.Error("markdown H1 not rendered")
	}
	if !strings.Contains(body, "Support OAuth login") {
		t.Error("requirement missing from rendered PRD")
	}
}

func TestHandlePRDDetailNotFound(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/prds/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlePromptPages(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/prompts")
	if !strings.Contains(rec.Body.String(), `href="/prompts/2026-03-09"`) {
		t.Error("prompt date link missing")
	}

	rec = serve(t, h, "/prompts/2026-03-09")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "we need to support OAuth login") {
		t.Error("prompt text missing from rendered log")
	}

	rec = serve(t, h, "/prompts/not-a-date")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSummaryPages(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/summaries")
	if !strings.Contains(rec.Body.String(), `href="/summaries/weekly/2026-W10"`) {
		t.Error("weekly summary link missing")
	}

	rec = serve(t, h, "/summaries/weekly/2026-W10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Prompts analyzed") {
		t.Error("summary content missing")
	}

	rec = serve(t, h, "/summaries/hourly/2026-W10")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	h := setupTest(t)

	// No query renders the empty form.
	rec := serve(t, h, "/search")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = serve(t, h, "/search?q=oauth")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "prds/auth-system.md") {
		t.Error("search hit missing")
	}

	rec = serve(t, h, "/search?q=zzzznothing")
	if !strings.Contains(rec.Body.String(), "No matches") {
		t.Error("empty result message missing")
	}
}

func TestRootRedirects(t *testing.T) {
	h := setupTest(t)

	rec := serve(t, h, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/prds" {
		t.Errorf("Location = %q", loc)
	}
}
