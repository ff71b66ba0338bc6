package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
	"github.com/ninho-ai/ninho/internal/summary"
)

const memoryPreamble = `## Ninho - Your Persistent Memory

This is your memory from past sessions. You do NOT start from scratch.

**Rules:**
- Before implementing a feature, check if a PRD exists below with requirements/decisions
- When asked about prior discussions, search prompt history: ` + "`/ninho:search <query>`" + `
- Before making architectural decisions, check existing decisions in the relevant PRD
- Do not contradict decisions listed below without explicit user discussion
- For full memory status: ` + "`/ninho:status`" + ` | To search: ` + "`/ninho:search`" + `
- To read a specific PRD: ` + "`read .ninho/prds/<name>.md`"

// prdOverview is one PRD's state for context injection.
type prdOverview struct {
	name            string
	summary         prd.Summary
	stale           []prd.StaleQuestion
	daysSinceUpdate int
}

// fullPRD is a PRD whose actionable sections are injected verbatim.
type fullPRD struct {
	name    string
	content string
}

// SessionStart injects memory context at the start of a session. A
// fresh session gets the full block; source "compact" gets a lighter
// re-injection built from the PreCompact snapshot.
func (r *Runner) SessionStart() error {
	if !r.project.Exists() {
		return nil
	}
	source := r.in.Source
	if source == "" {
		source = "startup"
	}

	if source == "startup" || source == "clear" {
		r.cleanupSessionFiles()
	}

	// Summaries whose period closed since the last session are
	// generated here, regardless of source.
	sm := summary.NewManager(r.project, r.global)
	for _, p := range sm.CheckPending(r.now()) {
		if _, err := sm.Generate(p.Type, p.Key); err != nil {
			fmt.Fprintf(r.errOut, "Warning: Summary generation failed: %v\n", err)
		} else {
			fmt.Fprintf(r.errOut, "Generated %s summary for %s\n", p.Type, p.Key)
		}
	}

	store := prd.NewStore(r.project)
	overviews := r.collectOverviews(store)

	if source == "compact" {
		fmt.Fprintln(r.out, r.formatCompactContext(overviews, r.readSnapshot()))
		return nil
	}

	// Recently-touched PRDs are injected in full until the character
	// budget runs out; the rest fall back to one-line overviews.
	var full []fullPRD
	var brief []prdOverview
	budget := r.cfg.FullPRDBudget
	for _, ov := range overviews {
		if ov.daysSinceUpdate <= 7 && len(full) < r.cfg.MaxFullPRDs && budget > 0 {
			if content, ok := r.fullPRDContent(store, ov.name); ok && len(content) <= budget {
				full = append(full, fullPRD{name: ov.name, content: content})
				budget -= len(content)
				continue
			}
		}
		brief = append(brief, ov)
	}

	learningLines := r.recentLearnings()
	recentPrompts := r.recentPromptSummaries()
	weekly := r.latestWeeklySummary()

	if len(full) == 0 && len(brief) == 0 && len(learningLines) == 0 &&
		len(recentPrompts) == 0 && weekly == "" {
		return nil
	}
	fmt.Fprintln(r.out, r.formatContext(full, brief, learningLines, recentPrompts, weekly))
	return nil
}

func (r *Runner) cleanupSessionFiles() {
	for _, path := range []string{r.project.SnapshotPath(), r.project.CompactSeenPath()} {
		os.Remove(path)
	}
}

func (r *Runner) collectOverviews(store *prd.Store) []prdOverview {
	var out []prdOverview
	for _, name := range store.List() {
		sum, ok := store.GetSummary(name)
		if !ok {
			continue
		}
		days := 0
		if info, err := os.Stat(r.project.PRDFile(name)); err == nil {
			days = int(r.now().Sub(info.ModTime()).Hours() / 24)
		}
		out = append(out, prdOverview{
			name:            name,
			summary:         sum,
			stale:           store.StaleQuestions(name, r.cfg.StaleQuestionDays),
			daysSinceUpdate: days,
		})
	}
	// Most recently updated first.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].daysSinceUpdate < out[j-1].daysSinceUpdate; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

var (
	overviewSectionRe     = regexp.MustCompile(`(?s)## Overview\n(.*?)\n## `)
	requirementsSectionRe = regexp.MustCompile(`(?s)## Requirements\n(.*?)\n## `)
	constraintsSectionRe  = regexp.MustCompile(`(?s)## Constraints\n(.*?)\n## `)
	questionsSectionRe    = regexp.MustCompile(`(?s)## Open Questions\n(.*?)\n## `)
	decisionRowRe         = regexp.MustCompile(`\| (\d{4}-\d{2}-\d{2}) \| ([^|]+) \| ([^|]+) \|`)
)

// fullPRDContent extracts a PRD's actionable sections: Overview,
// Requirements, the last five decisions, Constraints, and Open
// Questions. Session Log and Related Files are too verbose to inject.
func (r *Runner) fullPRDContent(store *prd.Store, name string) (string, bool) {
	raw, ok := store.Read(name)
	if !ok {
		return "", false
	}

	var sections []string
	if m := overviewSectionRe.FindStringSubmatch(raw); m != nil && strings.TrimSpace(m[1]) != "" {
		sections = append(sections, "### Overview\n"+strings.TrimSpace(m[1]))
	}
	if m := requirementsSectionRe.FindStringSubmatch(raw); m != nil && strings.TrimSpace(m[1]) != "" {
		sections = append(sections, "### Requirements\n"+strings.TrimSpace(m[1]))
	}

	if rows := decisionRowRe.FindAllStringSubmatch(raw, -1); len(rows) > 0 {
		if len(rows) > 5 {
			rows = rows[len(rows)-5:]
		}
		table := "| Date | Decision | Rationale |\n|------|----------|-----------|"
		for _, row := range rows {
			table += fmt.Sprintf("\n| %s | %s | %s |", row[1], strings.TrimSpace(row[2]), strings.TrimSpace(row[3]))
		}
		sections = append(sections, "### Decisions (latest)\n"+table)
	}

	if m := constraintsSectionRe.FindStringSubmatch(raw); m != nil {
		text := strings.TrimSpace(m[1])
		if text != "" && !strings.Contains(text, "(No constraints defined yet)") {
			sections = append(sections, "### Constraints\n"+text)
		}
	}
	if m := questionsSectionRe.FindStringSubmatch(raw); m != nil {
		text := strings.TrimSpace(m[1])
		if text != "" && !strings.Contains(text, "(No open questions)") {
			sections = append(sections, "### Open Questions\n"+text)
		}
	}

	if len(sections) == 0 {
		return "", false
	}
	content := strings.Join(sections, "\n\n")
	if len(content) > r.cfg.MaxFullPRDChars {
		content = content[:r.cfg.MaxFullPRDChars] + "\n...(truncated)"
	}
	return content, true
}

// learningLine is one recent learning for context injection.
type learningLine struct {
	typ  string
	date string
	text string
}

var learningHeadRe = regexp.MustCompile(`(?s)## \[(\w+)\] \d{2}:\d{2}:\d{2}\n\n> (.+?)(\n\n\*\*Signal|\n\n## |\z)`)

func (r *Runner) recentLearnings() []learningLine {
	var out []learningLine
	for i := 0; i < r.cfg.RecentDays; i++ {
		date := r.now().AddDate(0, 0, -i)
		content, ok := storage.ReadFile(r.global.DailyFile(date))
		if !ok {
			continue
		}
		dateStr := date.Format("2006-01-02")
		for _, m := range learningHeadRe.FindAllStringSubmatch(content, -1) {
			out = append(out, learningLine{
				typ:  m[1],
				date: dateStr,
				text: strings.TrimSpace(m[2]),
			})
		}
	}
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

// promptSummary is one recent prompt-log entry for context injection.
type promptSummary struct {
	date     string
	time     string
	feature  string
	preview  string
	response string
}

var promptLogEntryRe = regexp.MustCompile(`(?s)## \[([^\]]+)\] (\d{2}:\d{2}:\d{2})\n\n> (.+?)\n\n---\n\n(?:← ([^\n]+)\n)?`)

func (r *Runner) recentPromptSummaries() []promptSummary {
	var out []promptSummary
	for i := 0; i < r.cfg.RecentDays; i++ {
		date := r.now().AddDate(0, 0, -i)
		content, ok := storage.ReadFile(r.project.PromptFile(date))
		if !ok {
			continue
		}
		dateStr := date.Format("2006-01-02")
		for _, m := range promptLogEntryRe.FindAllStringSubmatch(content, -1) {
			text := strings.TrimSpace(m[3])
			preview := text
			if len(preview) > 60 {
				preview = preview[:60] + "..."
			}
			out = append(out, promptSummary{
				date:     dateStr,
				time:     m[2],
				feature:  m[1],
				preview:  preview,
				response: strings.TrimSpace(m[4]),
			})
		}
	}
	if len(out) > r.cfg.MaxRecentPrompts {
		out = out[:r.cfg.MaxRecentPrompts]
	}
	return out
}

var (
	summaryOverviewRe  = regexp.MustCompile(`(?s)## Overview\n(.*?)(\n## |\z)`)
	summaryDecisionsRe = regexp.MustCompile(`(?s)## Decisions Made\n(.*?)(\n## |\z)`)
)

func (r *Runner) latestWeeklySummary() string {
	weeks := r.project.ListSummaries("weekly")
	if len(weeks) == 0 {
		return ""
	}
	latest := weeks[len(weeks)-1]
	content, ok := storage.ReadFile(r.project.SummaryFile("weekly", latest))
	if !ok {
		return ""
	}

	var sections []string
	if m := summaryOverviewRe.FindStringSubmatch(content); m != nil {
		sections = append(sections, fmt.Sprintf("**%s Overview**\n%s", latest, strings.TrimSpace(m[1])))
	}
	if m := summaryDecisionsRe.FindStringSubmatch(content); m != nil {
		sections = append(sections, "**Key Decisions**\n"+strings.TrimSpace(m[1]))
	}
	if len(sections) == 0 {
		return ""
	}
	result := strings.Join(sections, "\n\n")
	if len(result) > r.cfg.MaxWeeklySummaryChars {
		result = result[:r.cfg.MaxWeeklySummaryChars] + "\n...(truncated)"
	}
	return result
}

func (r *Runner) formatContext(full []fullPRD, brief []prdOverview, learningLines []learningLine, prompts []promptSummary, weekly string) string {
	var lines []string
	lines = append(lines, "<ninho-context>", memoryPreamble)

	if len(full) > 0 {
		lines = append(lines, "## Active PRDs (detailed)", "")
		for _, p := range full {
			lines = append(lines, "### "+featureTitle(p.name), p.content, "")
		}
	}

	var allStale []struct {
		prdName string
		q       prd.StaleQuestion
	}
	for _, ov := range brief {
		for _, q := range ov.stale {
			allStale = append(allStale, struct {
				prdName string
				q       prd.StaleQuestion
			}{ov.name, q})
		}
	}

	if len(brief) > 0 {
		lines = append(lines, "## Active PRDs (overview)", "")
		for _, ov := range brief {
			var status []string
			if ov.summary.OpenRequirements > 0 {
				status = append(status, fmt.Sprintf("%d open", ov.summary.OpenRequirements))
			}
			if ov.summary.CompletedRequirements > 0 {
				status = append(status, fmt.Sprintf("%d done", ov.summary.CompletedRequirements))
			}
			if ov.summary.OpenQuestions > 0 {
				status = append(status, fmt.Sprintf("%d questions", ov.summary.OpenQuestions))
			}
			statusText := "No requirements"
			if len(status) > 0 {
				statusText = strings.Join(status, ", ")
			}

			freshness := fmt.Sprintf("%d days ago", ov.daysSinceUpdate)
			switch ov.daysSinceUpdate {
			case 0:
				freshness = "today"
			case 1:
				freshness = "yesterday"
			}

			lines = append(lines,
				"### "+featureTitle(ov.name),
				"- Status: "+statusText,
				"- Last updated: "+freshness,
			)
			if ov.summary.LatestDecision != nil {
				lines = append(lines, fmt.Sprintf("- Latest decision: %s (%s)",
					ov.summary.LatestDecision.Text, ov.summary.LatestDecision.Date))
			}
			if ov.summary.OpenQuestions > 0 && len(ov.stale) == 0 {
				lines = append(lines, fmt.Sprintf("- Has %d open question(s)", ov.summary.OpenQuestions))
			}
			lines = append(lines, "")
		}
	}

	if len(full) == 0 && len(brief) == 0 {
		lines = append(lines, "## Active PRDs", "",
			"No PRDs found. Ninho will create them as you discuss features.", "")
	}

	if len(allStale) > 0 {
		if len(allStale) > 5 {
			allStale = allStale[:5]
		}
		lines = append(lines, "### Stale Questions (need attention)")
		for _, sq := range allStale {
			lines = append(lines, fmt.Sprintf("- **%s**: %s (asked %s)", sq.prdName, sq.q.Text, sq.q.Date))
		}
		lines = append(lines, "")
	}

	if len(prompts) > 0 {
		lines = append(lines, "## Recent Conversations", "")
		currentDate := ""
		for _, p := range prompts {
			if p.date != currentDate {
				currentDate = p.date
				lines = append(lines, "### "+currentDate)
			}
			entry := fmt.Sprintf("- %s [%s] %s", p.time, p.feature, p.preview)
			if p.response != "" {
				entry += " -> " + p.response
			}
			lines = append(lines, entry)
		}
		lines = append(lines, "")
	}

	if weekly != "" {
		lines = append(lines, "## Weekly Summary", "", weekly, "")
	}

	if len(learningLines) > 0 {
		lines = append(lines, "## Recent Learnings", "")
		currentDate := ""
		for _, l := range learningLines {
			if l.date != currentDate {
				currentDate = l.date
				lines = append(lines, "### "+currentDate)
			}
			text := l.text
			if len(text) > 100 {
				text = text[:100] + "..."
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s", l.typ, text))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "</ninho-context>")
	return strings.Join(lines, "\n")
}

// formatCompactContext is the lighter block re-injected after the
// editor compacts its context.
func (r *Runner) formatCompactContext(overviews []prdOverview, snap Snapshot) string {
	var lines []string
	lines = append(lines,
		"<ninho-context-restored>",
		"Context was compacted. Your persistent memory is in `.ninho/`.",
		"",
	)

	if snap.ActiveFeature != "" {
		lines = append(lines, "**Active feature**: "+snap.ActiveFeature, "")
	}
	if len(snap.ModifiedFiles) > 0 {
		files := snap.ModifiedFiles
		if len(files) > 5 {
			files = files[:5]
		}
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = filepath.Base(f)
		}
		lines = append(lines, "**Recently modified**: "+strings.Join(names, ", "), "")
	}

	if len(overviews) > 0 {
		shown := overviews
		if len(shown) > 5 {
			shown = shown[:5]
		}
		lines = append(lines, "## PRD Status", "")
		for _, ov := range shown {
			var parts []string
			if ov.summary.OpenRequirements > 0 {
				parts = append(parts, fmt.Sprintf("%d open reqs", ov.summary.OpenRequirements))
			}
			if ov.summary.OpenQuestions > 0 {
				parts = append(parts, fmt.Sprintf("%d questions", ov.summary.OpenQuestions))
			}
			status := ""
			if len(parts) > 0 {
				status = " (" + strings.Join(parts, ", ") + ")"
			}
			latest := ""
			if ov.summary.LatestDecision != nil {
				latest = " | Latest: " + clip(ov.summary.LatestDecision.Text, 60)
			}
			lines = append(lines, fmt.Sprintf("- **%s**%s%s", featureTitle(ov.name), status, latest))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"Use `/ninho:search <query>` to find past discussions.",
		"Read full PRDs: `read .ninho/prds/<name>.md`",
		"</ninho-context-restored>",
	)
	return strings.Join(lines, "\n")
}
