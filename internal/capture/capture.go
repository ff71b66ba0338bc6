// Package capture reads editor transcripts, a JSON-Lines file of user
// and assistant turns, and pulls out the pieces the hooks care about:
// user prompts, tool invocations, modified files, and a one-line digest
// of the last assistant response.
package capture

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Prompt is one user message with its transcript timestamp.
type Prompt struct {
	Text      string
	Timestamp string
}

// ToolUse is one tool invocation by the assistant.
type ToolUse struct {
	Name      string
	Input     map[string]any
	Timestamp string
}

type entry struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Message   message `json:"message"`
}

type message struct {
	Content []contentBlock `json:"content"`
}

// contentBlock is either a tagged block object or a bare string.
type contentBlock struct {
	Type  string
	Text  string
	Name  string
	Input map[string]any
}

func (b *contentBlock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Type = "text"
		b.Text = s
		return nil
	}
	var obj struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Type = obj.Type
	b.Text = obj.Text
	b.Name = obj.Name
	b.Input = obj.Input
	return nil
}

// Transcript lazily loads and caches a transcript file. Unparseable
// lines are skipped, a missing file reads as empty.
type Transcript struct {
	path    string
	entries []entry
	loaded  bool
	now     func() time.Time
}

func NewTranscript(path string) *Transcript {
	return &Transcript{path: path, now: time.Now}
}

func (t *Transcript) load() []entry {
	if t.loaded {
		return t.entries
	}
	t.loaded = true
	f, err := os.Open(t.path)
	if err != nil {
		return nil
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		t.entries = append(t.entries, e)
	}
	return t.entries
}

// UserPrompts returns every user message in transcript order.
func (t *Transcript) UserPrompts() []Prompt {
	var prompts []Prompt
	for _, e := range t.load() {
		if e.Type != "user" {
			continue
		}
		var parts []string
		for _, b := range e.Message.Content {
			if b.Type == "text" && b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		if len(parts) == 0 {
			continue
		}
		ts := e.Timestamp
		if ts == "" {
			ts = t.now().Format(time.RFC3339)
		}
		prompts = append(prompts, Prompt{Text: strings.Join(parts, "\n"), Timestamp: ts})
	}
	return prompts
}

// RecentPrompts returns the last count user prompts.
func (t *Transcript) RecentPrompts(count int) []Prompt {
	prompts := t.UserPrompts()
	if len(prompts) > count {
		return prompts[len(prompts)-count:]
	}
	return prompts
}

// ToolUses returns every assistant tool invocation in transcript order.
func (t *Transcript) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, e := range t.load() {
		if e.Type != "assistant" {
			continue
		}
		for _, b := range e.Message.Content {
			if b.Type == "tool_use" {
				uses = append(uses, ToolUse{Name: b.Name, Input: b.Input, Timestamp: e.Timestamp})
			}
		}
	}
	return uses
}

// ModifiedFiles returns the sorted, deduplicated paths touched by Edit,
// Write, and NotebookEdit tools.
func (t *Transcript) ModifiedFiles() []string {
	seen := map[string]bool{}
	for _, tool := range t.ToolUses() {
		switch tool.Name {
		case "Edit", "Write", "NotebookEdit":
		default:
			continue
		}
		path := stringInput(tool.Input, "file_path")
		if path == "" {
			path = stringInput(tool.Input, "notebook_path")
		}
		if path != "" {
			seen[path] = true
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func stringInput(input map[string]any, key string) string {
	if s, ok := input[key].(string); ok {
		return s
	}
	return ""
}

var featurePatterns = []struct {
	pattern *regexp.Regexp
	feature string
}{
	{regexp.MustCompile(`src/auth/`), "auth-system"},
	{regexp.MustCompile(`src/api/`), "api-integration"},
	{regexp.MustCompile(`src/components/dashboard/`), "user-dashboard"},
	{regexp.MustCompile(`src/components/`), "frontend"},
	{regexp.MustCompile(`src/utils/`), "utilities"},
	{regexp.MustCompile(`tests/`), "testing"},
	{regexp.MustCompile(`docs/`), "documentation"},
}

// DetectFeatureContext guesses a feature name from the modified files.
// Well-known directories map to fixed names; otherwise the first
// directory under src/ is used. Returns "" when nothing matches.
func (t *Transcript) DetectFeatureContext() string {
	files := t.ModifiedFiles()
	for _, f := range files {
		for _, fp := range featurePatterns {
			if fp.pattern.MatchString(f) {
				return fp.feature
			}
		}
	}
	for _, f := range files {
		parts := strings.Split(filepath.ToSlash(f), "/")
		if len(parts) > 1 && parts[0] == "src" {
			return strings.ReplaceAll(parts[1], "_", "-")
		}
	}
	return ""
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s`)

// LastAssistantSummary digests the final assistant turn: its first
// sentence, truncated to maxLength, plus the names of the tools it used.
// Returns "" when the transcript has no assistant turn with content.
func (t *Transcript) LastAssistantSummary(maxLength int) string {
	entries := t.load()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Type != "assistant" {
			continue
		}
		var textParts, tools []string
		seenTool := map[string]bool{}
		for _, b := range e.Message.Content {
			switch b.Type {
			case "text":
				if b.Text != "" {
					textParts = append(textParts, b.Text)
				}
			case "tool_use":
				if b.Name != "" && !seenTool[b.Name] {
					seenTool[b.Name] = true
					tools = append(tools, b.Name)
				}
			}
		}
		var parts []string
		if len(textParts) > 0 {
			full := strings.TrimSpace(strings.Join(textParts, " "))
			sentence := full
			if loc := sentenceEndRe.FindStringIndex(full); loc != nil {
				sentence = full[:loc[0]+1]
			}
			if len(sentence) > maxLength {
				sentence = sentence[:maxLength] + "..."
			}
			parts = append(parts, sentence)
		}
		if len(tools) > 0 {
			parts = append(parts, "["+strings.Join(tools, ", ")+"]")
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

// PRCommand is a pull-request related shell command found in the
// transcript. Kind is one of "pr_create", "pr_merge", "branch_push".
type PRCommand struct {
	Kind    string
	Command string
}

var upstreamPushRe = regexp.MustCompile(`git push.*-u`)

// DetectPRCommand scans the most recent transcript entries, newest
// first, for a pull-request related Bash command. Only the last 50
// entries are considered.
func (t *Transcript) DetectPRCommand() (PRCommand, bool) {
	entries := t.load()
	first := 0
	if len(entries) > 50 {
		first = len(entries) - 50
	}
	for i := len(entries) - 1; i >= first; i-- {
		e := entries[i]
		if e.Type != "assistant" {
			continue
		}
		for _, b := range e.Message.Content {
			if b.Type != "tool_use" || b.Name != "Bash" {
				continue
			}
			cmd := stringInput(b.Input, "command")
			switch {
			case strings.Contains(cmd, "gh pr create"):
				return PRCommand{Kind: "pr_create", Command: cmd}, true
			case strings.Contains(cmd, "gh pr merge"):
				return PRCommand{Kind: "pr_merge", Command: cmd}, true
			case upstreamPushRe.MatchString(cmd):
				return PRCommand{Kind: "branch_push", Command: cmd}, true
			}
		}
	}
	return PRCommand{}, false
}
