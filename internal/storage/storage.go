// Package storage provides the file-backed store for Ninho's global
// (~/.ninho) and per-project (<project>/.ninho) data. All markdown and
// JSON documents live in plain files; read errors degrade to "no data".
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Storage is the global per-user store rooted at ~/.ninho.
type Storage struct {
	BasePath string
}

// NewStorage creates a Storage rooted at basePath, creating the required
// directories. Pass "" to use $NINHO_HOME, falling back to ~/.ninho.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = os.Getenv("NINHO_HOME")
	}
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		basePath = filepath.Join(home, ".ninho")
	}

	s := &Storage{BasePath: basePath}
	for _, dir := range []string{s.DailyPath(), filepath.Join(basePath, "storage")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// DailyPath returns the daily learnings directory.
func (s *Storage) DailyPath() string {
	return filepath.Join(s.BasePath, "daily")
}

// DailyFile returns the path of a specific day's learnings file.
func (s *Storage) DailyFile(date time.Time) string {
	return filepath.Join(s.DailyPath(), date.Format("2006-01-02")+".md")
}

// ListDailyDates returns all dates with a learnings file, sorted.
func (s *Storage) ListDailyDates() []string {
	return listMarkdown(s.DailyPath())
}

// LearningsIndexPath returns the learnings deduplication index path.
func (s *Storage) LearningsIndexPath() string {
	return filepath.Join(s.BasePath, "learnings-index.json")
}

// LogPath returns the process-wide JSONL log file path.
func (s *Storage) LogPath() string {
	return filepath.Join(s.BasePath, "ninho.log")
}

// ThrottlePath returns the Stop-hook throttle timestamp file.
func (s *Storage) ThrottlePath() string {
	return filepath.Join(s.BasePath, "last_prd_update")
}

// ProjectStorage is the per-project store rooted at <project>/.ninho.
type ProjectStorage struct {
	ProjectPath string
	NinhoPath   string
}

// NewProjectStorage creates a ProjectStorage for the given project root,
// creating the required directories.
func NewProjectStorage(projectPath string) (*ProjectStorage, error) {
	ninhoPath := filepath.Join(projectPath, ".ninho")
	ps := &ProjectStorage{ProjectPath: projectPath, NinhoPath: ninhoPath}

	for _, dir := range []string{ps.PRDsPath(), ps.PromptsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return ps, nil
}

// OpenProjectStorage returns a ProjectStorage without creating directories.
// Used by read-only surfaces that must not leave .ninho droppings behind.
func OpenProjectStorage(projectPath string) *ProjectStorage {
	return &ProjectStorage{
		ProjectPath: projectPath,
		NinhoPath:   filepath.Join(projectPath, ".ninho"),
	}
}

// Exists reports whether the project's .ninho directory exists.
func (ps *ProjectStorage) Exists() bool {
	info, err := os.Stat(ps.NinhoPath)
	return err == nil && info.IsDir()
}

// PRDsPath returns the PRDs directory.
func (ps *ProjectStorage) PRDsPath() string {
	return filepath.Join(ps.NinhoPath, "prds")
}

// PromptsPath returns the daily prompt logs directory.
func (ps *ProjectStorage) PromptsPath() string {
	return filepath.Join(ps.NinhoPath, "prompts")
}

// PRDFile returns the path of a PRD by name (without .md extension).
func (ps *ProjectStorage) PRDFile(name string) string {
	return filepath.Join(ps.PRDsPath(), name+".md")
}

// PromptFile returns the path of a specific day's prompts file.
func (ps *ProjectStorage) PromptFile(date time.Time) string {
	return filepath.Join(ps.PromptsPath(), date.Format("2006-01-02")+".md")
}

// SummaryFile returns the path of a summary for a period type and key.
// periodType is one of "weekly", "monthly", "yearly".
func (ps *ProjectStorage) SummaryFile(periodType, period string) string {
	return filepath.Join(ps.NinhoPath, "summaries", periodType, period+".md")
}

// SummaryStatePath returns the summary generation state file.
func (ps *ProjectStorage) SummaryStatePath() string {
	return filepath.Join(ps.NinhoPath, "summary-state.json")
}

// PromptIndexPath returns the prompt/PRD-capture deduplication index file.
func (ps *ProjectStorage) PromptIndexPath() string {
	return filepath.Join(ps.NinhoPath, "prompt-index.json")
}

// SnapshotPath returns the transient session snapshot file.
func (ps *ProjectStorage) SnapshotPath() string {
	return filepath.Join(ps.NinhoPath, ".session-snapshot.json")
}

// CompactSeenPath returns the transient compaction marker file.
func (ps *ProjectStorage) CompactSeenPath() string {
	return filepath.Join(ps.NinhoPath, ".last-compact-seen")
}

// PRMappingsPath returns the branch-to-requirements mappings file.
func (ps *ProjectStorage) PRMappingsPath() string {
	return filepath.Join(ps.NinhoPath, "pr-mappings.json")
}

// IndexDBPath returns the optional sqlite search index path.
func (ps *ProjectStorage) IndexDBPath() string {
	return filepath.Join(ps.NinhoPath, "index.db")
}

// ListPRDs returns all PRD names (without .md), sorted.
func (ps *ProjectStorage) ListPRDs() []string {
	return listMarkdown(ps.PRDsPath())
}

// ListSummaries returns all summary period keys for a period type, sorted.
func (ps *ProjectStorage) ListSummaries(periodType string) []string {
	return listMarkdown(filepath.Join(ps.NinhoPath, "summaries", periodType))
}

// ListPromptDates returns all dates with a prompt log, sorted.
func (ps *ProjectStorage) ListPromptDates() []string {
	return listMarkdown(ps.PromptsPath())
}

func listMarkdown(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// ReadFile returns a file's contents, or ("", false) if it doesn't exist.
func ReadFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// WriteFile writes content to a file, creating parent directories.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// AppendFile appends content to a file, creating parent directories.
func AppendFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// ReadJSON decodes a JSON file into v. Missing or malformed files are
// treated as no data: v is left untouched and false is returned.
func ReadJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFile(path, string(data))
}
