package summary

import (
	"time"

	"github.com/ninho-ai/ninho/internal/period"
	"github.com/ninho-ai/ninho/internal/storage"
)

const defaultHistoryMax = 100

type generationRecord struct {
	Type        string `json:"type"`
	Period      string `json:"period"`
	GeneratedAt string `json:"generated_at"`
}

type state struct {
	LastWeekly  string             `json:"last_weekly,omitempty"`
	LastMonthly string             `json:"last_monthly,omitempty"`
	LastYearly  string             `json:"last_yearly,omitempty"`
	History     []generationRecord `json:"generation_history"`
}

func (m *Manager) loadState() *state {
	if m.state != nil {
		return m.state
	}
	m.state = &state{}
	storage.ReadJSON(m.project.SummaryStatePath(), m.state)
	return m.state
}

// markGenerated records the period as the latest of its type and appends
// a bounded history entry.
func (m *Manager) markGenerated(typ period.Type, key string) error {
	st := m.loadState()
	switch typ {
	case period.Weekly:
		st.LastWeekly = key
	case period.Monthly:
		st.LastMonthly = key
	case period.Yearly:
		st.LastYearly = key
	}
	st.History = append(st.History, generationRecord{
		Type:        string(typ),
		Period:      key,
		GeneratedAt: m.now().Format(time.RFC3339),
	})
	if len(st.History) > m.historyMax {
		st.History = st.History[len(st.History)-m.historyMax:]
	}
	return storage.WriteJSON(m.project.SummaryStatePath(), st)
}

// Exists reports whether the summary file for a period is on disk.
func (m *Manager) Exists(typ period.Type, key string) bool {
	_, ok := storage.ReadFile(m.project.SummaryFile(string(typ), key))
	return ok
}

// Pending names a summary that should be generated now.
type Pending struct {
	Type period.Type
	Key  string
}

// CheckPending reports which summaries are due. Each level fires only on
// its exact boundary day (Monday, the 1st, Jan 1) and only when the
// previous period's summary file is absent. Gaps longer than one period
// are not backfilled.
func (m *Manager) CheckPending(date time.Time) []Pending {
	var pending []Pending
	if period.IsWeekStart(date) {
		prev := period.PreviousWeek(date)
		if !m.Exists(period.Weekly, prev) {
			pending = append(pending, Pending{period.Weekly, prev})
		}
	}
	if period.IsMonthStart(date) {
		prev := period.PreviousMonth(date)
		if !m.Exists(period.Monthly, prev) {
			pending = append(pending, Pending{period.Monthly, prev})
		}
	}
	if period.IsYearStart(date) {
		prev := period.PreviousYear(date)
		if !m.Exists(period.Yearly, prev) {
			pending = append(pending, Pending{period.Yearly, prev})
		}
	}
	return pending
}
