// Package prd creates and maintains per-feature requirements documents
// as plain markdown. Each document is parsed once into an ordered
// section record, edited in place, and serialized back, so hand edits
// elsewhere in the file survive. A document missing the target section
// is left untouched.
package prd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/storage"
)

const (
	sectionRequirements = "Requirements"
	sectionDecisions    = "Decisions"
	sectionConstraints  = "Constraints"
	sectionQuestions    = "Open Questions"
	sectionFiles        = "Related Files"
	sectionSessionLog   = "Session Log"
)

const placeholderConstraints = "(No constraints defined yet)"
const placeholderQuestions = "(No open questions)"
const placeholderFiles = "(No files tracked yet)"

const template = `# %s

## Overview
%s

## Requirements
- [ ] Initial requirement

## Decisions
| Date | Decision | Rationale |
|------|----------|-----------|


## Constraints
- ` + placeholderConstraints + `

## Open Questions
- ` + placeholderQuestions + `

## Related Files
- ` + placeholderFiles + `

## Session Log
### %s
- PRD created
`

// Store manages the PRD files of one project.
type Store struct {
	storage *storage.ProjectStorage
	now     func() time.Time
}

func NewStore(ps *storage.ProjectStorage) *Store {
	return &Store{storage: ps, now: time.Now}
}

// Create writes a fresh PRD from the template. Creating a PRD that
// already exists is a no-op; callers wanting the old content gone must
// delete it first. An empty title is derived from the name, an empty
// overview gets a stock line.
func (s *Store) Create(name, title, overview string) (string, error) {
	path := s.storage.PRDFile(name)
	if s.Exists(name) {
		return path, nil
	}
	if title == "" {
		title = titleFromName(name)
	}
	if overview == "" {
		overview = fmt.Sprintf("Documentation for %s.", title)
	}
	content := fmt.Sprintf(template, title, overview, s.now().Format("2006-01-02"))
	if err := storage.WriteFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

func titleFromName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *Store) Exists(name string) bool {
	_, ok := storage.ReadFile(s.storage.PRDFile(name))
	return ok
}

func (s *Store) Read(name string) (string, bool) {
	return storage.ReadFile(s.storage.PRDFile(name))
}

// List returns the names of all PRDs in the project.
func (s *Store) List() []string {
	return s.storage.ListPRDs()
}

// edit loads a PRD, applies fn to its parsed form, and writes the
// result back. fn returning false means nothing changed and the file is
// not rewritten. A missing PRD is a silent no-op.
func (s *Store) edit(name string, fn func(doc *document) bool) error {
	content, ok := s.Read(name)
	if !ok {
		return nil
	}
	doc := parseDocument(content)
	if !fn(doc) {
		return nil
	}
	return storage.WriteFile(s.storage.PRDFile(name), doc.render())
}

// AddRequirement appends an unchecked checkbox line. A requirement whose
// text already appears in the section is skipped.
func (s *Store) AddRequirement(name, requirement string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionRequirements)
		if sec == nil || sec.containsFold(requirement) {
			return false
		}
		sec.appendLine("- [ ] " + requirement)
		return true
	})
}

// AddDecision appends a dated row to the decisions table. Duplicate
// detection considers only the table rows, not the header.
func (s *Store) AddDecision(name, decision, rationale string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionDecisions)
		if sec == nil {
			return false
		}
		if strings.Contains(strings.ToLower(tableRows(sec.body)), strings.ToLower(decision)) {
			return false
		}
		sec.appendLine(fmt.Sprintf("| %s | %s | %s |", s.now().Format("2006-01-02"), decision, rationale))
		return true
	})
}

// tableRows strips the markdown table header and separator lines.
func tableRows(body string) string {
	var rows []string
	past := false
	for _, line := range strings.Split(body, "\n") {
		if past {
			rows = append(rows, line)
		} else if strings.HasPrefix(line, "|--") {
			past = true
		}
	}
	return strings.Join(rows, "\n")
}

func (s *Store) AddConstraint(name, constraint string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionConstraints)
		if sec == nil {
			return false
		}
		sec.dropPlaceholder(placeholderConstraints)
		if sec.containsFold(constraint) {
			return false
		}
		sec.appendLine("- " + constraint)
		return true
	})
}

// AddQuestion records an open question annotated with the asked date.
func (s *Store) AddQuestion(name, question string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionQuestions)
		if sec == nil {
			return false
		}
		sec.dropPlaceholder(placeholderQuestions)
		if sec.containsFold(question) {
			return false
		}
		sec.appendLine(fmt.Sprintf("- %s *(asked %s)*", question, s.now().Format("2006-01-02")))
		return true
	})
}

// RemoveQuestion deletes every question line containing the substring
// (case-insensitive) and restores the placeholder when none remain.
func (s *Store) RemoveQuestion(name, substring string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionQuestions)
		if sec == nil {
			return false
		}
		trimmed := strings.TrimRight(sec.body, "\n")
		trailing := sec.body[len(trimmed):]
		var kept []string
		for _, line := range strings.Split(trimmed, "\n") {
			if strings.Contains(strings.ToLower(line), strings.ToLower(substring)) {
				continue
			}
			kept = append(kept, line)
		}
		empty := true
		for _, line := range kept {
			if strings.TrimSpace(line) != "" {
				empty = false
				break
			}
		}
		if empty {
			kept = []string{"- " + placeholderQuestions}
		}
		sec.body = strings.Join(kept, "\n") + trailing
		return true
	})
}

// AddFile tracks a related file path, fenced in backticks. Matching is
// exact, not case-insensitive, since paths are case-sensitive.
func (s *Store) AddFile(name, filePath string) error {
	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionFiles)
		if sec == nil {
			return false
		}
		sec.dropPlaceholder(placeholderFiles)
		if strings.Contains(sec.body, filePath) {
			return false
		}
		sec.appendLine(fmt.Sprintf("- `%s`", filePath))
		return true
	})
}

// AddSessionLog appends an entry under today's day heading. A new day
// gets a fresh heading at the top of the log; existing day groups keep
// their position and insertion order, even out of date order.
func (s *Store) AddSessionLog(name, entry, promptRef string) error {
	line := "- " + entry
	if promptRef != "" {
		line = fmt.Sprintf("- %s ([prompt](%s))", entry, promptRef)
	}
	header := "### " + s.now().Format("2006-01-02")

	return s.edit(name, func(doc *document) bool {
		sec := doc.section(sectionSessionLog)
		if sec == nil {
			return false
		}
		lines := strings.Split(sec.body, "\n")
		day := -1
		for i, l := range lines {
			if strings.TrimRight(l, " ") == header {
				day = i
				break
			}
		}
		if day < 0 {
			sec.body = header + "\n" + line + "\n" + sec.body
			return true
		}
		insert := len(lines)
		for i := day + 1; i < len(lines); i++ {
			if strings.HasPrefix(lines[i], "### ") {
				insert = i
				break
			}
		}
		// Skip back over the blank tail of the day group.
		for insert > day+1 && strings.TrimSpace(lines[insert-1]) == "" {
			insert--
		}
		lines = append(lines[:insert], append([]string{line}, lines[insert:]...)...)
		sec.body = strings.Join(lines, "\n")
		return true
	})
}

// Decision is one row of the decisions table.
type Decision struct {
	Date string
	Text string
}

// Decisions returns every decision table row in document order.
func Decisions(content string) []Decision {
	var out []Decision
	for _, m := range decisionRe.FindAllStringSubmatch(content, -1) {
		out = append(out, Decision{Date: m[1], Text: strings.TrimSpace(m[2])})
	}
	return out
}

// OpenQuestionLines returns the bullet lines of the Open Questions
// section, placeholder excluded.
func OpenQuestionLines(content string) []string {
	sec := parseDocument(content).section(sectionQuestions)
	if sec == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(sec.body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") || strings.Contains(line, placeholderQuestions) {
			continue
		}
		out = append(out, strings.TrimPrefix(line, "- "))
	}
	return out
}

// Summary is the counted state of one PRD.
type Summary struct {
	Name                  string
	OpenRequirements      int
	CompletedRequirements int
	OpenQuestions         int
	LatestDecision        *Decision
	TotalDecisions        int
}

var (
	checkboxRe = regexp.MustCompile(`- \[([ x])\]`)
	decisionRe = regexp.MustCompile(`\| (\d{4}-\d{2}-\d{2}) \| ([^|]+) \|`)
)

// GetSummary counts requirements, open questions, and decisions. A
// missing PRD yields a zero summary with ok=false.
func (s *Store) GetSummary(name string) (Summary, bool) {
	content, ok := s.Read(name)
	if !ok {
		return Summary{}, false
	}
	sum := Summary{Name: name}

	for _, m := range checkboxRe.FindAllStringSubmatch(content, -1) {
		if m[1] == "x" {
			sum.CompletedRequirements++
		} else {
			sum.OpenRequirements++
		}
	}

	if sec := parseDocument(content).section(sectionQuestions); sec != nil {
		if !strings.Contains(sec.body, placeholderQuestions) {
			for _, line := range strings.Split(sec.body, "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), "-") {
					sum.OpenQuestions++
				}
			}
		}
	}

	decisions := decisionRe.FindAllStringSubmatch(content, -1)
	sum.TotalDecisions = len(decisions)
	if len(decisions) > 0 {
		last := decisions[len(decisions)-1]
		sum.LatestDecision = &Decision{Date: last[1], Text: strings.TrimSpace(last[2])}
	}
	return sum, true
}

// StaleQuestion is an open question that has sat unanswered past the
// staleness threshold.
type StaleQuestion struct {
	Text string
	Date string
}

var askedQuestionRe = regexp.MustCompile(`- (.+?) \*\(asked (\d{4}-\d{2}-\d{2})\)\*`)

// StaleQuestions returns open questions asked more than days ago.
// Questions without a parseable asked date are skipped.
func (s *Store) StaleQuestions(name string, days int) []StaleQuestion {
	content, ok := s.Read(name)
	if !ok {
		return nil
	}
	sec := parseDocument(content).section(sectionQuestions)
	if sec == nil {
		return nil
	}
	cutoff := s.now().AddDate(0, 0, -days)
	var stale []StaleQuestion
	for _, q := range askedQuestionRe.FindAllStringSubmatch(sec.body, -1) {
		asked, err := time.Parse("2006-01-02", q[2])
		if err != nil {
			continue
		}
		if asked.Before(cutoff) {
			stale = append(stale, StaleQuestion{Text: q[1], Date: q[2]})
		}
	}
	return stale
}
