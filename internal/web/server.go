// Package web serves a small read-only UI over the project's memory:
// PRDs, prompt logs, summaries, and search.
package web

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/storage"
)

// NewServer creates and configures the HTTP server for the Ninho web UI.
func NewServer(database *sql.DB, project *storage.ProjectStorage, global *storage.Storage, cfg *config.Config, version, bind string, port int) *http.Server {
	h := &Handlers{
		db:       database,
		project:  project,
		global:   global,
		cfg:      cfg,
		renderer: NewRenderer(version),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/prds", http.StatusFound)
	})
	mux.HandleFunc("GET /prds", h.HandlePRDList)
	mux.HandleFunc("GET /prds/{name}", h.HandlePRDDetail)
	mux.HandleFunc("GET /prompts", h.HandlePromptIndex)
	mux.HandleFunc("GET /prompts/{date}", h.HandlePromptDetail)
	mux.HandleFunc("GET /summaries", h.HandleSummaryIndex)
	mux.HandleFunc("GET /summaries/{type}/{key}", h.HandleSummaryDetail)
	mux.HandleFunc("GET /search", h.HandleSearch)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: securityHeaders(mux),
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
// Styles are inlined in the layout template, so style-src allows inline.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Ninho UI running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
