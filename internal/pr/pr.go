// Package pr links git branches and pull requests to requirements
// documents. Branch-to-requirement mappings live in pr-mappings.json;
// git and gh are shelled out to and treated as optional, any failure
// reads as "not available".
package pr

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/storage"
)

// Mapping records which requirements a branch was linked to.
type Mapping struct {
	PRD          string   `json:"prd"`
	Requirements []string `json:"requirements"`
	Created      string   `json:"created"`
	Merged       bool     `json:"merged"`
	MergedAt     string   `json:"merged_at,omitempty"`
}

// Requirement is one checkbox line from a PRD's Requirements section.
type Requirement struct {
	Text      string
	Completed bool
}

// Info is the subset of gh pr view output the hooks use.
type Info struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

// Integration manages PR-to-PRD linking for one project.
type Integration struct {
	storage *storage.ProjectStorage
	now     func() time.Time

	// run executes a command in dir and returns trimmed stdout.
	// Swapped in tests.
	run func(dir, name string, args ...string) (string, error)
}

func NewIntegration(ps *storage.ProjectStorage) *Integration {
	return &Integration{storage: ps, now: time.Now, run: runCommand}
}

func runCommand(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (in *Integration) loadMappings() map[string]Mapping {
	mappings := map[string]Mapping{}
	storage.ReadJSON(in.storage.PRMappingsPath(), &mappings)
	return mappings
}

func (in *Integration) saveMappings(mappings map[string]Mapping) error {
	return storage.WriteJSON(in.storage.PRMappingsPath(), mappings)
}

// CurrentBranch returns the checked-out branch, or "" outside a repo
// or in detached HEAD.
func (in *Integration) CurrentBranch() string {
	out, err := in.run(in.storage.ProjectPath, "git", "branch", "--show-current")
	if err != nil {
		return ""
	}
	return out
}

var branchPatterns = []struct {
	pattern *regexp.Regexp
	prd     string
}{
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/auth[-_]`), "auth-system"},
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/api[-_]`), "api-integration"},
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/dashboard[-_]`), "user-dashboard"},
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/user[-_]`), "user-management"},
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/payment[-_]`), "payments"},
	{regexp.MustCompile(`(?i)^(?:feat|fix|feature)/notification[-_]`), "notifications"},
}

var branchFeatureRe = regexp.MustCompile(`(?i)^(?:feat|fix|feature)/([a-z0-9-]+)`)

// DetectPRDFromBranch maps a branch name to a PRD name. Well-known
// prefixes map to fixed names, otherwise the slug after feat/fix is
// used. Returns "" when nothing matches.
func DetectPRDFromBranch(branch string) string {
	for _, bp := range branchPatterns {
		if bp.pattern.MatchString(branch) {
			return bp.prd
		}
	}
	if m := branchFeatureRe.FindStringSubmatch(branch); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// DetectPRDFromFiles infers a PRD name from the files changed against
// main or master.
func (in *Integration) DetectPRDFromFiles() string {
	for _, base := range []string{"main", "master"} {
		out, err := in.run(in.storage.ProjectPath, "git", "diff", base, "--name-only")
		if err != nil || out == "" {
			continue
		}
		return inferPRDFromFiles(strings.Split(out, "\n"))
	}
	return ""
}

// inferPRDFromFiles picks the most-touched top-level directory,
// skipping a leading src/.
func inferPRDFromFiles(files []string) string {
	counts := map[string]int{}
	for _, f := range files {
		parts := strings.Split(strings.TrimSpace(f), "/")
		if len(parts) < 2 {
			continue
		}
		key := parts[0]
		if key == "src" {
			key = parts[1]
		}
		counts[key]++
	}
	best, bestCount := "", 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return strings.ReplaceAll(best, "_", "-")
}

var checkboxRe = regexp.MustCompile(`- \[([ x])\] (.+)`)
var requirementsSectionRe = regexp.MustCompile(`(?s)## Requirements\n(.*?)(\n## |\z)`)
var constraintsSectionRe = regexp.MustCompile(`(?s)## Constraints\n(.*?)(\n## |\z)`)
var decisionRowRe = regexp.MustCompile(`\| (\d{4}-\d{2}-\d{2}) \| ([^|]+) \| ([^|]+) \|`)

// PRDRequirements returns the checkbox items of a PRD.
func (in *Integration) PRDRequirements(prdName string) []Requirement {
	content, ok := storage.ReadFile(in.storage.PRDFile(prdName))
	if !ok {
		return nil
	}
	m := requirementsSectionRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var reqs []Requirement
	for _, line := range strings.Split(m[1], "\n") {
		if cm := checkboxRe.FindStringSubmatch(line); cm != nil {
			reqs = append(reqs, Requirement{
				Text:      strings.TrimSpace(cm[2]),
				Completed: cm[1] == "x",
			})
		}
	}
	return reqs
}

// LinkBranch records a branch as addressing the given requirements.
func (in *Integration) LinkBranch(branch, prdName string, requirements []string) error {
	mappings := in.loadMappings()
	mappings[branch] = Mapping{
		PRD:          prdName,
		Requirements: requirements,
		Created:      in.now().Format(time.RFC3339),
	}
	return in.saveMappings(mappings)
}

// BranchMapping returns the stored mapping for a branch.
func (in *Integration) BranchMapping(branch string) (Mapping, bool) {
	m, ok := in.loadMappings()[branch]
	return m, ok
}

// PRInfo fetches the current branch's pull request via the gh CLI.
func (in *Integration) PRInfo() (Info, bool) {
	out, err := in.run(in.storage.ProjectPath, "gh", "pr", "view", "--json", "number,url,title,state")
	if err != nil {
		return Info{}, false
	}
	var info Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return Info{}, false
	}
	return info, true
}

// GenerateContext renders a PR-description block from the branch's
// linked PRD: requirements addressed, recent decisions, constraints.
func (in *Integration) GenerateContext(branch string) (string, bool) {
	mapping, ok := in.BranchMapping(branch)
	if !ok {
		return "", false
	}
	content, ok := storage.ReadFile(in.storage.PRDFile(mapping.PRD))
	if !ok {
		return "", false
	}

	var b strings.Builder
	title := featureTitle(mapping.PRD)
	fmt.Fprintf(&b, "## Context from PRD\n\n")
	fmt.Fprintf(&b, "**Feature**: %s ([PRD](.ninho/prds/%s.md))\n\n", title, mapping.PRD)

	b.WriteString("### Requirements Addressed\n")
	for _, req := range mapping.Requirements {
		fmt.Fprintf(&b, "- [x] %s\n", req)
	}
	b.WriteString("\n")

	decisions := decisionRowRe.FindAllStringSubmatch(content, -1)
	if len(decisions) > 0 {
		if len(decisions) > 5 {
			decisions = decisions[:5]
		}
		b.WriteString("### Decisions Made\n")
		b.WriteString("| Decision | Rationale |\n")
		b.WriteString("|----------|-----------|\n")
		for _, d := range decisions {
			fmt.Fprintf(&b, "| %s | %s |\n", strings.TrimSpace(d[2]), strings.TrimSpace(d[3]))
		}
		b.WriteString("\n")
	}

	constraints := extractConstraints(content)
	if len(constraints) > 0 {
		if len(constraints) > 3 {
			constraints = constraints[:3]
		}
		b.WriteString("### Constraints Considered\n")
		for _, c := range constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Generated by [Ninho](https://ninho.ai) - AI coding context management*")
	return b.String(), true
}

func featureTitle(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func extractConstraints(content string) []string {
	m := constraintsSectionRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var constraints []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") && !strings.Contains(line, "No constraints") {
			constraints = append(constraints, strings.TrimPrefix(line, "- "))
		}
	}
	return constraints
}

// MarkRequirementsComplete checks off the branch's linked requirements
// in its PRD and flags the mapping merged. Returns how many boxes were
// ticked. A branch already marked merged is left alone.
func (in *Integration) MarkRequirementsComplete(branch string) int {
	mapping, ok := in.BranchMapping(branch)
	if !ok || mapping.Merged {
		return 0
	}
	path := in.storage.PRDFile(mapping.PRD)
	content, ok := storage.ReadFile(path)
	if !ok {
		return 0
	}

	count := 0
	for _, req := range mapping.Requirements {
		open := "- [ ] " + req
		if strings.Contains(content, open) {
			content = strings.ReplaceAll(content, open, "- [x] "+req)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	if err := storage.WriteFile(path, content); err != nil {
		return 0
	}

	mappings := in.loadMappings()
	if m, ok := mappings[branch]; ok {
		m.Merged = true
		m.MergedAt = in.now().Format(time.RFC3339)
		mappings[branch] = m
		in.saveMappings(mappings)
	}
	return count
}

const prTableHeader = "| PR | Branch | Status | Requirements Addressed |\n" +
	"|----|--------|--------|------------------------|\n"

var statusEmoji = map[string]string{
	"Open":   "\U0001F504",
	"Merged": "✅",
	"Closed": "❌",
}

// AddPRToPRD upserts a row in the PRD's Pull Requests table, creating
// the section when the document does not have one yet.
func (in *Integration) AddPRToPRD(prdName string, prNumber int, prURL, branch string, requirements []string, status string) error {
	path := in.storage.PRDFile(prdName)
	content, ok := storage.ReadFile(path)
	if !ok {
		return nil
	}

	emoji, ok := statusEmoji[status]
	if !ok {
		emoji = statusEmoji["Open"]
	}
	reqText := strings.Join(firstN(requirements, 2), ", ")
	if len(requirements) > 2 {
		reqText += fmt.Sprintf(" (+%d more)", len(requirements)-2)
	}
	newRow := fmt.Sprintf("| [#%d](%s) | `%s` | %s %s | %s |\n", prNumber, prURL, branch, emoji, status, reqText)

	idx := strings.Index(content, prTableHeader)
	if idx < 0 {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += "\n## Pull Requests\n" + prTableHeader + newRow
		return storage.WriteFile(path, content)
	}

	marker := fmt.Sprintf("| [#%d]", prNumber)
	if strings.Contains(content, marker) {
		oldRowRe := regexp.MustCompile(`\| \[#` + fmt.Sprint(prNumber) + `\][^\n]+\n`)
		content = oldRowRe.ReplaceAllString(content, newRow)
	} else {
		insert := idx + len(prTableHeader)
		content = content[:insert] + newRow + content[insert:]
	}
	return storage.WriteFile(path, content)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
