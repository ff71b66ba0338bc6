// Package summary builds the weekly/monthly/yearly rollup hierarchy.
// Weekly summaries are distilled from raw prompt, PRD, and learnings
// files with file#line breadcrumbs back to the source; monthly and
// yearly summaries read only the level below them, never the raw data.
package summary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/period"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Manager generates and tracks summaries for one project.
type Manager struct {
	project    *storage.ProjectStorage
	global     *storage.Storage
	historyMax int
	now        func() time.Time
	state      *state
}

func NewManager(project *storage.ProjectStorage, global *storage.Storage) *Manager {
	return &Manager{
		project:    project,
		global:     global,
		historyMax: defaultHistoryMax,
		now:        time.Now,
	}
}

// PromptEntry is one prompt parsed back out of a daily prompts file.
type PromptEntry struct {
	Feature string
	Time    string
	Date    string
	Text    string
	Line    int
	Ref     string
}

// DecisionEntry is a decisions-table row that fell inside the period.
type DecisionEntry struct {
	PRD       string
	Date      string
	Decision  string
	Rationale string
}

// CompletedRequirement is a session-log entry marking finished work.
type CompletedRequirement struct {
	PRD  string
	Date string
	Text string
	Ref  string
}

// QuestionEntry is an open question asked during the period.
type QuestionEntry struct {
	PRD  string
	Date string
	Text string
}

// LearningEntry is one learning parsed from a global daily file.
type LearningEntry struct {
	Type string
	Time string
	Date string
	Text string
	Line int
	Ref  string
}

// WeekData is everything collected for one weekly summary.
type WeekData struct {
	Period                string
	StartDate             string
	EndDate               string
	Prompts               []PromptEntry
	Decisions             []DecisionEntry
	RequirementsCompleted []CompletedRequirement
	Learnings             []LearningEntry
	Questions             []QuestionEntry
}

// CollectWeek gathers a week's raw activity from prompt files, PRD
// documents, and global learnings files. Missing files contribute
// nothing.
func (m *Manager) CollectWeek(key string) (WeekData, error) {
	start, end, err := period.WeekRange(key)
	if err != nil {
		return WeekData{}, err
	}
	data := WeekData{
		Period:    key,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		if content, ok := storage.ReadFile(m.project.PromptFile(d)); ok {
			data.Prompts = append(data.Prompts, parsePromptsFile(content, dateStr)...)
		}
		if m.global != nil {
			if content, ok := storage.ReadFile(m.global.DailyFile(d)); ok {
				data.Learnings = append(data.Learnings, parseLearningsFile(content, dateStr)...)
			}
		}
	}

	for _, name := range m.project.ListPRDs() {
		content, ok := storage.ReadFile(m.project.PRDFile(name))
		if !ok {
			continue
		}
		pd := parsePRDForPeriod(content, name, start, end)
		data.Decisions = append(data.Decisions, pd.decisions...)
		data.RequirementsCompleted = append(data.RequirementsCompleted, pd.completed...)
		data.Questions = append(data.Questions, pd.questions...)
	}
	return data, nil
}

// WeeklyStats are the counters carried from a weekly summary up into the
// monthly one.
type WeeklyStats struct {
	Week                  string
	PromptCount           int
	DecisionCount         int
	RequirementsCompleted int
	LearningCount         int
}

// MonthData aggregates the weekly summaries overlapping one month.
type MonthData struct {
	Period                     string
	StartDate                  string
	EndDate                    string
	WeeksIncluded              []string
	WeeksMissing               []string
	TotalPrompts               int
	TotalDecisions             int
	TotalRequirementsCompleted int
	TotalLearnings             int
	Weekly                     []WeeklyStats
}

// CollectMonth reads the already-generated weekly summaries for every
// week touching the month. A missing weekly summary is recorded, not
// regenerated, and contributes nothing to the totals.
func (m *Manager) CollectMonth(key string) (MonthData, error) {
	start, end, err := period.MonthRange(key)
	if err != nil {
		return MonthData{}, err
	}
	weeks, err := period.WeeksInMonth(key)
	if err != nil {
		return MonthData{}, err
	}
	data := MonthData{
		Period:    key,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}
	for _, week := range weeks {
		content, ok := storage.ReadFile(m.project.SummaryFile(string(period.Weekly), week))
		if !ok {
			data.WeeksMissing = append(data.WeeksMissing, week)
			continue
		}
		data.WeeksIncluded = append(data.WeeksIncluded, week)
		stats := parseWeeklyStats(content)
		stats.Week = week
		data.Weekly = append(data.Weekly, stats)
		data.TotalPrompts += stats.PromptCount
		data.TotalDecisions += stats.DecisionCount
		data.TotalRequirementsCompleted += stats.RequirementsCompleted
		data.TotalLearnings += stats.LearningCount
	}
	return data, nil
}

// MonthlyStats are the counters carried from a monthly summary up into
// the yearly one.
type MonthlyStats struct {
	Month                      string
	TotalPrompts               int
	TotalDecisions             int
	TotalRequirementsCompleted int
	TotalLearnings             int
}

// YearData aggregates a year's monthly summaries.
type YearData struct {
	Period                     string
	MonthsIncluded             []string
	MonthsMissing              []string
	TotalPrompts               int
	TotalDecisions             int
	TotalRequirementsCompleted int
	TotalLearnings             int
	Monthly                    []MonthlyStats
}

// CollectYear reads the twelve monthly summaries of a year, recording
// the absent ones.
func (m *Manager) CollectYear(key string) YearData {
	data := YearData{Period: key}
	for _, month := range period.MonthsInYear(key) {
		content, ok := storage.ReadFile(m.project.SummaryFile(string(period.Monthly), month))
		if !ok {
			data.MonthsMissing = append(data.MonthsMissing, month)
			continue
		}
		data.MonthsIncluded = append(data.MonthsIncluded, month)
		stats := parseMonthlyStats(content)
		stats.Month = month
		data.Monthly = append(data.Monthly, stats)
		data.TotalPrompts += stats.TotalPrompts
		data.TotalDecisions += stats.TotalDecisions
		data.TotalRequirementsCompleted += stats.TotalRequirementsCompleted
		data.TotalLearnings += stats.TotalLearnings
	}
	return data
}

var promptEntryRe = regexp.MustCompile(`(?s)## \[([^\]]+)\] (\d{2}:\d{2}:\d{2})\n\n> (.+?)(\n\n---|\z)`)

// parsePromptsFile reads the entries back out of a daily prompts file.
// The line number of each entry header becomes its breadcrumb.
func parsePromptsFile(content, dateStr string) []PromptEntry {
	var prompts []PromptEntry
	for _, m := range promptEntryRe.FindAllStringSubmatchIndex(content, -1) {
		feature := content[m[2]:m[3]]
		timeStr := content[m[4]:m[5]]
		text := strings.TrimSpace(content[m[6]:m[7]])
		line := strings.Count(content[:m[0]], "\n") + 1
		prompts = append(prompts, PromptEntry{
			Feature: feature,
			Time:    timeStr,
			Date:    dateStr,
			Text:    text,
			Line:    line,
			Ref:     fmt.Sprintf("prompts/%s.md#L%d", dateStr, line),
		})
	}
	return prompts
}

var learningEntryRe = regexp.MustCompile(`(?s)## \[(\w+)\] (\d{2}:\d{2}:\d{2})\n\n> (.+?)\n\n\*\*Signal`)

// parseLearningsFile reads entries from a global daily learnings file.
func parseLearningsFile(content, dateStr string) []LearningEntry {
	var learnings []LearningEntry
	for _, m := range learningEntryRe.FindAllStringSubmatchIndex(content, -1) {
		line := strings.Count(content[:m[0]], "\n") + 1
		learnings = append(learnings, LearningEntry{
			Type: content[m[2]:m[3]],
			Time: content[m[4]:m[5]],
			Date: dateStr,
			Text: strings.TrimSpace(content[m[6]:m[7]]),
			Line: line,
			Ref:  fmt.Sprintf("daily/%s.md#L%d", dateStr, line),
		})
	}
	return learnings
}

type prdPeriodData struct {
	decisions []DecisionEntry
	completed []CompletedRequirement
	questions []QuestionEntry
}

var (
	decisionRowRe = regexp.MustCompile(`\| (\d{4}-\d{2}-\d{2}) \| ([^|]+) \| ([^|]+) \|`)
	dayHeaderRe   = regexp.MustCompile(`(?m)^### (\d{4}-\d{2}-\d{2})\s*$`)
	promptRefRe   = regexp.MustCompile(`\[prompt\]\(([^)]+)\)`)
	// Matches the full " ([prompt](...))" wrapper for stripping.
	promptRefWrapRe = regexp.MustCompile(`\s*\(\[prompt\]\([^)]+\)\)`)
	questionsRe   = regexp.MustCompile(`(?s)## Open Questions\n(.*?)(\n## |\z)`)
	askedRe       = regexp.MustCompile(`- (.+?) \*\(asked (\d{4}-\d{2}-\d{2})\)\*`)
)

// parsePRDForPeriod re-scans one PRD, keeping decisions table rows,
// completed session-log entries, and open questions whose embedded date
// falls inside [start, end].
func parsePRDForPeriod(content, name string, start, end time.Time) prdPeriodData {
	var data prdPeriodData

	for _, m := range decisionRowRe.FindAllStringSubmatch(content, -1) {
		if !dateInRange(m[1], start, end) {
			continue
		}
		data.decisions = append(data.decisions, DecisionEntry{
			PRD:       name,
			Date:      m[1],
			Decision:  strings.TrimSpace(m[2]),
			Rationale: strings.TrimSpace(m[3]),
		})
	}

	headers := dayHeaderRe.FindAllStringSubmatchIndex(content, -1)
	for i, h := range headers {
		dateStr := content[h[2]:h[3]]
		if !dateInRange(dateStr, start, end) {
			continue
		}
		bodyEnd := len(content)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		if j := strings.Index(content[h[1]:bodyEnd], "\n## "); j >= 0 {
			bodyEnd = h[1] + j
		}
		for _, line := range strings.Split(content[h[1]:bodyEnd], "\n") {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, "completed") && !strings.Contains(lower, "[x]") {
				continue
			}
			ref := ""
			if rm := promptRefRe.FindStringSubmatch(line); rm != nil {
				ref = rm[1]
				line = promptRefWrapRe.ReplaceAllString(line, "")
			}
			data.completed = append(data.completed, CompletedRequirement{
				PRD:  name,
				Date: dateStr,
				Text: strings.Trim(strings.TrimSpace(line), "- "),
				Ref:  ref,
			})
		}
	}

	if qm := questionsRe.FindStringSubmatch(content); qm != nil {
		for _, q := range askedRe.FindAllStringSubmatch(qm[1], -1) {
			if !dateInRange(q[2], start, end) {
				continue
			}
			data.questions = append(data.questions, QuestionEntry{PRD: name, Date: q[2], Text: strings.TrimSpace(q[1])})
		}
	}
	return data
}

func dateInRange(dateStr string, start, end time.Time) bool {
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

var overviewRe = regexp.MustCompile(`(?s)## Overview\n(.*?)(\n## |\z)`)
var firstNumberRe = regexp.MustCompile(`(\d+)`)

func counterFromLine(line string) int {
	if m := firstNumberRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// parseWeeklyStats reads the labeled counters back out of a weekly
// summary's Overview section.
func parseWeeklyStats(content string) WeeklyStats {
	var stats WeeklyStats
	m := overviewRe.FindStringSubmatch(content)
	if m == nil {
		return stats
	}
	for _, line := range strings.Split(m[1], "\n") {
		switch {
		case strings.Contains(line, "Prompts analyzed"):
			stats.PromptCount = counterFromLine(line)
		case strings.Contains(line, "Decisions made"):
			stats.DecisionCount = counterFromLine(line)
		case strings.Contains(line, "Requirements completed"):
			stats.RequirementsCompleted = counterFromLine(line)
		case strings.Contains(line, "Learnings captured"):
			stats.LearningCount = counterFromLine(line)
		}
	}
	return stats
}

// parseMonthlyStats reads the labeled totals from a monthly summary.
func parseMonthlyStats(content string) MonthlyStats {
	var stats MonthlyStats
	m := overviewRe.FindStringSubmatch(content)
	if m == nil {
		return stats
	}
	for _, line := range strings.Split(m[1], "\n") {
		switch {
		case strings.Contains(line, "Total prompts"):
			stats.TotalPrompts = counterFromLine(line)
		case strings.Contains(line, "Total decisions"):
			stats.TotalDecisions = counterFromLine(line)
		case strings.Contains(line, "Total requirements completed"):
			stats.TotalRequirementsCompleted = counterFromLine(line)
		case strings.Contains(line, "Total learnings"):
			stats.TotalLearnings = counterFromLine(line)
		}
	}
	return stats
}
