package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTranscript(t *testing.T, lines ...string) *Transcript {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewTranscript(path)
}

func TestUserPrompts(t *testing.T) {
	tr := writeTranscript(t,
		`{"type":"user","timestamp":"2026-03-09T10:00:00Z","message":{"content":"plain string prompt"}}`,
		`not json at all`,
		`{"type":"assistant","timestamp":"2026-03-09T10:00:05Z","message":{"content":[{"type":"text","text":"ack"}]}}`,
		`{"type":"user","timestamp":"2026-03-09T10:01:00Z","message":{"content":[{"type":"text","text":"first part"},{"type":"text","text":"second part"}]}}`,
		`{"type":"user","message":{"content":[{"type":"text","text":"no timestamp"}]}}`,
	)
	fixed := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	prompts := tr.UserPrompts()
	if len(prompts) != 3 {
		t.Fatalf("prompts = %d, want 3", len(prompts))
	}
	if prompts[0].Text != "plain string prompt" {
		t.Errorf("first prompt = %q", prompts[0].Text)
	}
	if prompts[0].Timestamp != "2026-03-09T10:00:00Z" {
		t.Errorf("first timestamp = %q", prompts[0].Timestamp)
	}
	if prompts[1].Text != "first part\nsecond part" {
		t.Errorf("joined prompt = %q", prompts[1].Text)
	}
	if prompts[2].Timestamp != fixed.Format(time.RFC3339) {
		t.Errorf("fallback timestamp = %q", prompts[2].Timestamp)
	}

	recent := tr.RecentPrompts(2)
	if len(recent) != 2 || recent[0].Text != "first part\nsecond part" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestMissingFileReadsEmpty(t *testing.T) {
	tr := NewTranscript(filepath.Join(t.TempDir(), "nope.jsonl"))
	if got := tr.UserPrompts(); got != nil {
		t.Errorf("prompts from missing file = %+v", got)
	}
	if got := tr.ModifiedFiles(); len(got) != 0 {
		t.Errorf("files from missing file = %+v", got)
	}
}

func TestModifiedFiles(t *testing.T) {
	tr := writeTranscript(t,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Edit","input":{"file_path":"src/api/client.go"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Write","input":{"file_path":"src/api/client.go"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"NotebookEdit","input":{"notebook_path":"notebooks/eda.ipynb"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"README.md"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Edit","input":{"file_path":"docs/guide.md"}}]}}`,
	)
	got := tr.ModifiedFiles()
	want := []string{"docs/guide.md", "notebooks/eda.ipynb", "src/api/client.go"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDetectFeatureContext(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"known auth dir", "src/auth/login.go", "auth-system"},
		{"known api dir", "src/api/client.go", "api-integration"},
		{"dashboard before generic components", "src/components/dashboard/chart.tsx", "user-dashboard"},
		{"generic components", "src/components/button.tsx", "frontend"},
		{"tests dir", "tests/api_test.go", "testing"},
		{"src fallback with underscore", "src/data_layer/store.go", "data-layer"},
		{"no match", "cmd/main.go", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := writeTranscript(t,
				`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Edit","input":{"file_path":"`+tt.file+`"}}]}}`,
			)
			if got := tr.DetectFeatureContext(); got != tt.want {
				t.Errorf("DetectFeatureContext(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestLastAssistantSummary(t *testing.T) {
	tr := writeTranscript(t,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Old answer. Ignored."}]}}`,
		`{"type":"user","message":{"content":"thanks"}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Fixed the retry loop. It now backs off exponentially."},{"type":"tool_use","name":"Edit","input":{}},{"type":"tool_use","name":"Bash","input":{}},{"type":"tool_use","name":"Edit","input":{}}]}}`,
	)
	got := tr.LastAssistantSummary(200)
	want := "Fixed the retry loop. [Edit, Bash]"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestLastAssistantSummaryTruncates(t *testing.T) {
	long := strings.Repeat("x", 50)
	tr := writeTranscript(t,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"`+long+`"}]}}`,
	)
	got := tr.LastAssistantSummary(20)
	if got != strings.Repeat("x", 20)+"..." {
		t.Errorf("truncated summary = %q", got)
	}
}

func TestLastAssistantSummaryEmpty(t *testing.T) {
	tr := writeTranscript(t,
		`{"type":"user","message":{"content":"hello"}}`,
	)
	if got := tr.LastAssistantSummary(100); got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
}

func TestDetectPRCommand(t *testing.T) {
	bash := func(cmd string) string {
		return `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"` + cmd + `"}}]}}`
	}
	tests := []struct {
		name string
		cmd  string
		kind string
	}{
		{"pr create", "gh pr create --title 'feat: retries'", "pr_create"},
		{"pr merge", "gh pr merge 42 --squash", "pr_merge"},
		{"upstream push", "git push -u origin feature/retries", "branch_push"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := writeTranscript(t, bash("ls -la"), bash(tt.cmd))
			got, ok := tr.DetectPRCommand()
			if !ok {
				t.Fatal("no PR command detected")
			}
			if got.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.kind)
			}
			if got.Command != tt.cmd {
				t.Errorf("command = %q, want %q", got.Command, tt.cmd)
			}
		})
	}

	t.Run("newest wins", func(t *testing.T) {
		tr := writeTranscript(t, bash("gh pr create --fill"), bash("gh pr merge 42"))
		got, ok := tr.DetectPRCommand()
		if !ok || got.Kind != "pr_merge" {
			t.Errorf("got %+v ok=%v, want pr_merge", got, ok)
		}
	})

	t.Run("none", func(t *testing.T) {
		tr := writeTranscript(t, bash("git status"), bash("git push origin main"))
		if got, ok := tr.DetectPRCommand(); ok {
			t.Errorf("unexpected detection: %+v", got)
		}
	})
}
