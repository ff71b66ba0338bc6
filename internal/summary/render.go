package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ninho-ai/ninho/internal/period"
	"github.com/ninho-ai/ninho/internal/storage"
)

const learningsPerType = 5

// GenerateWeekly collects a week's data, renders the summary, writes it
// under summaries/weekly/, and records the generation in state.
// Regenerating overwrites the file; there is no merge.
func (m *Manager) GenerateWeekly(key string) (string, error) {
	data, err := m.CollectWeek(key)
	if err != nil {
		return "", err
	}
	start, end, err := period.WeekRange(key)
	if err != nil {
		return "", err
	}

	weekNum := key
	if parts := strings.SplitN(key, "-W", 2); len(parts) == 2 {
		weekNum = parts[1]
	}
	lines := []string{
		fmt.Sprintf("# Week %s Summary (%s-%s)", weekNum, start.Format("Jan 02"), end.Format("02, 2006")),
		"",
		"## Overview",
		fmt.Sprintf("- **Prompts analyzed**: %d", len(data.Prompts)),
		fmt.Sprintf("- **Requirements completed**: %d", len(data.RequirementsCompleted)),
		fmt.Sprintf("- **Decisions made**: %d", len(data.Decisions)),
		fmt.Sprintf("- **Learnings captured**: %d", len(data.Learnings)),
		fmt.Sprintf("- **Questions raised**: %d", len(data.Questions)),
		"",
	}

	if len(data.Decisions) > 0 {
		lines = append(lines, "## Decisions Made", "")
		decisions := append([]DecisionEntry(nil), data.Decisions...)
		sort.SliceStable(decisions, func(i, j int) bool {
			if decisions[i].PRD != decisions[j].PRD {
				return decisions[i].PRD < decisions[j].PRD
			}
			return decisions[i].Date < decisions[j].Date
		})
		currentPRD := ""
		for _, dec := range decisions {
			if dec.PRD != currentPRD {
				currentPRD = dec.PRD
				lines = append(lines, "### "+prdHeading(currentPRD))
			}
			lines = append(lines,
				fmt.Sprintf("- **%s** - %s", dec.Decision, dec.Rationale),
				fmt.Sprintf("  - Date: %s", dec.Date))
		}
		lines = append(lines, "")
	}

	if len(data.RequirementsCompleted) > 0 {
		lines = append(lines, "## Requirements Completed", "")
		reqs := append([]CompletedRequirement(nil), data.RequirementsCompleted...)
		sort.SliceStable(reqs, func(i, j int) bool {
			if reqs[i].PRD != reqs[j].PRD {
				return reqs[i].PRD < reqs[j].PRD
			}
			return reqs[i].Date < reqs[j].Date
		})
		currentPRD := ""
		for _, req := range reqs {
			if req.PRD != currentPRD {
				currentPRD = req.PRD
				lines = append(lines, "### "+prdHeading(currentPRD))
			}
			refLink := ""
			if req.Ref != "" {
				refLink = fmt.Sprintf(" ([prompt](%s))", req.Ref)
			}
			lines = append(lines, fmt.Sprintf("- [x] %s%s", req.Text, refLink))
		}
		lines = append(lines, "")
	}

	if len(data.Learnings) > 0 {
		lines = append(lines, "## Learnings", "")
		byType := map[string][]LearningEntry{}
		for _, l := range data.Learnings {
			byType[l.Type] = append(byType[l.Type], l)
		}
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			lines = append(lines, fmt.Sprintf("### %ss", t))
			items := byType[t]
			if len(items) > learningsPerType {
				items = items[:learningsPerType]
			}
			for _, item := range items {
				text := item.Text
				if len(text) > 100 {
					text = text[:100] + "..."
				}
				lines = append(lines,
					"- "+text,
					fmt.Sprintf("  - [Source](../%s)", item.Ref))
			}
			lines = append(lines, "")
		}
	}

	if len(data.Questions) > 0 {
		lines = append(lines, "## Open Questions", "")
		for _, q := range data.Questions {
			lines = append(lines, fmt.Sprintf("- %s (%s, asked %s)", q.Text, q.PRD, q.Date))
		}
		lines = append(lines, "")
	}

	if len(data.Prompts) > 0 {
		lines = append(lines, "## Prompt References", "")
		byDate := map[string]int{}
		for _, p := range data.Prompts {
			byDate[p.Date]++
		}
		dates := make([]string, 0, len(byDate))
		for d := range byDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			lines = append(lines, fmt.Sprintf("- **%s**: %d prompts ([view](../prompts/%s.md))", d, byDate[d], d))
		}
		lines = append(lines, "")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	lines = append(lines,
		"---",
		fmt.Sprintf("_Generated: %s_", m.now().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("_Period: %s to %s_", data.StartDate, data.EndDate),
		fmt.Sprintf("_Days covered: %d/7_", days),
	)

	content := strings.Join(lines, "\n")
	if err := storage.WriteFile(m.project.SummaryFile(string(period.Weekly), key), content); err != nil {
		return "", err
	}
	if err := m.markGenerated(period.Weekly, key); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateMonthly renders a month's summary from its weekly summaries.
func (m *Manager) GenerateMonthly(key string) (string, error) {
	data, err := m.CollectMonth(key)
	if err != nil {
		return "", err
	}
	start, _, err := period.MonthRange(key)
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("# %s Summary", start.Format("January 2006")),
		"",
		"## Overview",
		fmt.Sprintf("- **Weeks included**: %s", joinOrNone(data.WeeksIncluded)),
		fmt.Sprintf("- **Weeks missing**: %s", joinOrNone(data.WeeksMissing)),
		fmt.Sprintf("- **Total prompts**: %d", data.TotalPrompts),
		fmt.Sprintf("- **Total decisions**: %d", data.TotalDecisions),
		fmt.Sprintf("- **Total requirements completed**: %d", data.TotalRequirementsCompleted),
		fmt.Sprintf("- **Total learnings**: %d", data.TotalLearnings),
		"",
	}

	if len(data.Weekly) > 0 {
		lines = append(lines,
			"## Weekly Breakdown",
			"",
			"| Week | Prompts | Decisions | Requirements | Learnings |",
			"|------|---------|-----------|--------------|-----------|")
		for _, ws := range data.Weekly {
			lines = append(lines, fmt.Sprintf("| [%s](weekly/%s.md) | %d | %d | %d | %d |",
				ws.Week, ws.Week, ws.PromptCount, ws.DecisionCount, ws.RequirementsCompleted, ws.LearningCount))
		}
		lines = append(lines, "")
	}

	total := len(data.WeeksIncluded) + len(data.WeeksMissing)
	lines = append(lines,
		"---",
		fmt.Sprintf("_Generated: %s_", m.now().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("_Period: %s to %s_", data.StartDate, data.EndDate),
		fmt.Sprintf("_Weeks covered: %d/%d_", len(data.WeeksIncluded), total),
	)

	content := strings.Join(lines, "\n")
	if err := storage.WriteFile(m.project.SummaryFile(string(period.Monthly), key), content); err != nil {
		return "", err
	}
	if err := m.markGenerated(period.Monthly, key); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateYearly renders a year's summary from its monthly summaries.
func (m *Manager) GenerateYearly(key string) (string, error) {
	data := m.CollectYear(key)

	lines := []string{
		fmt.Sprintf("# %s Annual Summary", key),
		"",
		"## Overview",
		fmt.Sprintf("- **Months included**: %d", len(data.MonthsIncluded)),
		fmt.Sprintf("- **Months missing**: %d", len(data.MonthsMissing)),
		fmt.Sprintf("- **Total prompts**: %d", data.TotalPrompts),
		fmt.Sprintf("- **Total decisions**: %d", data.TotalDecisions),
		fmt.Sprintf("- **Total requirements completed**: %d", data.TotalRequirementsCompleted),
		fmt.Sprintf("- **Total learnings**: %d", data.TotalLearnings),
		"",
	}

	if len(data.Monthly) > 0 {
		lines = append(lines,
			"## Monthly Breakdown",
			"",
			"| Month | Prompts | Decisions | Requirements | Learnings |",
			"|-------|---------|-----------|--------------|-----------|")
		for _, ms := range data.Monthly {
			lines = append(lines, fmt.Sprintf("| [%s](monthly/%s.md) | %d | %d | %d | %d |",
				ms.Month, ms.Month, ms.TotalPrompts, ms.TotalDecisions, ms.TotalRequirementsCompleted, ms.TotalLearnings))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"---",
		fmt.Sprintf("_Generated: %s_", m.now().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("_Months covered: %d/12_", len(data.MonthsIncluded)),
	)

	content := strings.Join(lines, "\n")
	if err := storage.WriteFile(m.project.SummaryFile(string(period.Yearly), key), content); err != nil {
		return "", err
	}
	if err := m.markGenerated(period.Yearly, key); err != nil {
		return "", err
	}
	return content, nil
}

// Generate dispatches to the right generator for a period type.
func (m *Manager) Generate(typ period.Type, key string) (string, error) {
	switch typ {
	case period.Monthly:
		return m.GenerateMonthly(key)
	case period.Yearly:
		return m.GenerateYearly(key)
	default:
		return m.GenerateWeekly(key)
	}
}

func prdHeading(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
