package db

import (
	"crypto/rand"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ninho-ai/ninho/internal/errors"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Document kinds stored in the index.
const (
	KindPRD      = "prd"
	KindPrompt   = "prompt"
	KindSummary  = "summary"
	KindLearning = "learning"
)

// Match is one line hit from a search.
type Match struct {
	Kind  string
	Ref   string
	Title string
	Line  int
	Text  string
}

// Rebuild drops and re-populates the index from the project's markdown
// files and the global daily learnings. Returns how many documents were
// indexed.
func Rebuild(database *sql.DB, ps *storage.ProjectStorage, gs *storage.Storage) (int, error) {
	tx, err := database.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return 0, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	count := 0
	add := func(kind, ref, title, content string) error {
		id, err := newDocumentID()
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = tx.Exec(
			"INSERT INTO documents (id, kind, ref, title, content, indexed_at) VALUES (?, ?, ?, ?, ?, ?)",
			id, kind, ref, title, content, now,
		)
		if err != nil {
			return errors.NewInternal(err)
		}
		count++
		return nil
	}

	for _, name := range ps.ListPRDs() {
		if content, ok := storage.ReadFile(ps.PRDFile(name)); ok {
			if err := add(KindPRD, "prds/"+name+".md", name, content); err != nil {
				return 0, err
			}
		}
	}
	for _, date := range ps.ListPromptDates() {
		path := filepath.Join(ps.PromptsPath(), date+".md")
		if content, ok := storage.ReadFile(path); ok {
			if err := add(KindPrompt, "prompts/"+date+".md", date, content); err != nil {
				return 0, err
			}
		}
	}
	for _, periodType := range []string{"weekly", "monthly", "yearly"} {
		for _, key := range ps.ListSummaries(periodType) {
			if content, ok := storage.ReadFile(ps.SummaryFile(periodType, key)); ok {
				ref := "summaries/" + periodType + "/" + key + ".md"
				if err := add(KindSummary, ref, key, content); err != nil {
					return 0, err
				}
			}
		}
	}
	if gs != nil {
		for _, date := range gs.ListDailyDates() {
			path := filepath.Join(gs.DailyPath(), date+".md")
			if content, ok := storage.ReadFile(path); ok {
				if err := add(KindLearning, "daily/"+date+".md", date, content); err != nil {
					return 0, err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// Search returns up to limit line hits for query, case-insensitive,
// ordered by document ref then line number.
func Search(database *sql.DB, query string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewInvalidInput("empty search query")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := database.Query(
		"SELECT kind, ref, title, content FROM documents WHERE content LIKE ? ESCAPE '\\' ORDER BY ref",
		"%"+escapeLike(query)+"%",
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	lowered := strings.ToLower(query)
	var matches []Match
	for rows.Next() {
		var kind, ref, title, content string
		if err := rows.Scan(&kind, &ref, &title, &content); err != nil {
			return nil, errors.NewInternal(err)
		}
		for i, line := range strings.Split(content, "\n") {
			if !strings.Contains(strings.ToLower(line), lowered) {
				continue
			}
			matches = append(matches, Match{
				Kind:  kind,
				Ref:   ref,
				Title: title,
				Line:  i + 1,
				Text:  strings.TrimSpace(line),
			})
			if len(matches) >= limit {
				return matches, rows.Err()
			}
		}
	}
	return matches, rows.Err()
}

// Status returns the number of indexed documents per kind.
func Status(database *sql.DB) (map[string]int, error) {
	rows, err := database.Query("SELECT kind, COUNT(*) FROM documents GROUP BY kind")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// escapeLike escapes LIKE wildcards so queries match them literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func newDocumentID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
