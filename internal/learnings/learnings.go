// Package learnings captures corrections and notes from prompts into
// global daily files under ~/.ninho/daily/. Unlike PRD items, learnings
// are keyed to the user across projects.
package learnings

import (
	"fmt"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/dedupe"
	"github.com/ninho-ai/ninho/internal/extract"
	"github.com/ninho-ai/ninho/internal/signal"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Learning is one classified statement worth remembering.
type Learning struct {
	Type      signal.LearningType
	Text      string
	Timestamp string
	Signal    string
}

// Manager extracts and persists learnings.
type Manager struct {
	storage *storage.Storage
	index   *dedupe.Index
	now     func() time.Time
}

func NewManager(gs *storage.Storage, maxHashes int) *Manager {
	return &Manager{
		storage: gs,
		index:   dedupe.NewIndex(gs.LearningsIndexPath(), maxHashes),
		now:     time.Now,
	}
}

// Extract classifies prompts into learnings. Deduplication happens at
// save time, not here, so callers can inspect everything that matched.
func (m *Manager) Extract(prompts []extract.Prompt) []Learning {
	var out []Learning
	for _, p := range prompts {
		typ, ok := signal.DetectLearningType(p.Text)
		if !ok {
			continue
		}
		ts := p.Timestamp
		if ts == "" {
			ts = m.now().Format(time.RFC3339)
		}
		out = append(out, Learning{
			Type:      typ,
			Text:      p.Text,
			Timestamp: ts,
			Signal:    signal.LearningSignal(p.Text, typ),
		})
	}
	return out
}

// Format renders a learning as a markdown entry for the daily file.
func Format(l Learning) string {
	title := strings.ToUpper(string(l.Type)[:1]) + string(l.Type)[1:]
	return fmt.Sprintf("## [%s] %s\n\n> %s\n\n**Signal:** `%s`\n\n---\n\n",
		title, timeOfDay(l.Timestamp), l.Text, l.Signal)
}

func timeOfDay(timestamp string) string {
	if strings.Contains(timestamp, "T") {
		if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
			return t.Format("15:04:05")
		}
	}
	return timestamp
}

// Save appends new learnings to the day's file, skipping duplicates via
// the global index. Returns the number actually written.
func (m *Manager) Save(items []Learning, date time.Time) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	path := m.storage.DailyFile(date)
	if _, ok := storage.ReadFile(path); !ok {
		header := fmt.Sprintf("# Daily Learnings - %s\n\n", date.Format("2006-01-02"))
		if err := storage.WriteFile(path, header); err != nil {
			return 0, err
		}
	}
	saved := 0
	for _, l := range items {
		if l.Text == "" || m.index.Seen(l.Text) {
			continue
		}
		if err := storage.AppendFile(path, Format(l)); err != nil {
			return saved, err
		}
		if err := m.index.MarkSeen(l.Text); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
