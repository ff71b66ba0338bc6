package hooks

import (
	"strings"
	"testing"

	"github.com/ninho-ai/ninho/internal/storage"
)

func assistantText(text string) string {
	return `{"type":"assistant","message":{"content":[{"type":"text","text":"` + text + `"}]}}`
}

func editTool(path string) string {
	return `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Edit","input":{"file_path":"` + path + `"}}]}}`
}

func TestHasUpdateSignal(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"we need to retry failed uploads", true},
		{"the response must be under 100ms", true},
		{"which cache should we pick?", true},
		{"thanks, looks good", false},
	}
	for _, tt := range tests {
		if got := hasUpdateSignal(tt.text); got != tt.want {
			t.Errorf("hasUpdateSignal(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestStopCreatesAndThrottles(t *testing.T) {
	transcript := writeTranscript(t,
		userLine("2026-03-09T10:00:00Z", "we need to retry failed uploads"),
		editTool("src/upload/retry.go"),
		assistantText("Added retry logic. More detail follows."),
	)
	r, out := newTestRunner(t, Input{TranscriptPath: transcript})

	// The response summary only lands when the day already has a log.
	if _, err := r.project.AppendPrompt("we need to retry failed uploads", "upload", testNow); err != nil {
		t.Fatal(err)
	}

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "Created new PRD: upload") {
		t.Errorf("output = %q", out.String())
	}
	prdContent, ok := storage.ReadFile(r.project.PRDFile("upload"))
	if !ok {
		t.Fatal("PRD not created")
	}
	if !strings.Contains(prdContent, "`src/upload/retry.go`") {
		t.Errorf("modified file missing:\n%s", prdContent)
	}

	promptLog, _ := storage.ReadFile(r.project.PromptFile(testNow))
	if !strings.Contains(promptLog, "← Added retry logic.") {
		t.Errorf("response summary missing:\n%s", promptLog)
	}

	if _, ok := storage.ReadFile(r.global.ThrottlePath()); !ok {
		t.Fatal("throttle stamp not written")
	}

	// Within the throttle window nothing further happens.
	out.Reset()
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Created new PRD") {
		t.Errorf("throttled run still updated: %q", out.String())
	}
}

func TestStopWithoutSignalsIsQuiet(t *testing.T) {
	transcript := writeTranscript(t,
		userLine("2026-03-09T10:00:00Z", "thanks, merge it when ready please"),
	)
	r, out := newTestRunner(t, Input{TranscriptPath: transcript})

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.String())
	}
	if _, ok := storage.ReadFile(r.global.ThrottlePath()); ok {
		t.Error("throttle stamp written without an update")
	}
}

func TestStopMalformedThrottleIsIgnored(t *testing.T) {
	transcript := writeTranscript(t,
		userLine("2026-03-09T10:00:00Z", "we need to paginate results"),
	)
	r, out := newTestRunner(t, Input{TranscriptPath: transcript})
	if err := storage.WriteFile(r.global.ThrottlePath(), "not a number"); err != nil {
		t.Fatal(err)
	}

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Created new PRD: general") {
		t.Errorf("output = %q", out.String())
	}
}

func TestStopSurfacesFileContext(t *testing.T) {
	store := prdStoreWithContext(t)
	transcript := writeTranscript(t,
		userLine("2026-03-09T10:00:00Z", "we need to harden the login flow"),
		editTool("src/auth/login.go"),
	)
	r, out := newTestRunner(t, Input{TranscriptPath: transcript, CWD: store})

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	output := out.String()
	if !strings.Contains(output, "<ninho-file-context>") {
		t.Fatalf("context block missing:\n%s", output)
	}
	if !strings.Contains(output, "## Editing files related to: Auth System") {
		t.Errorf("PRD heading missing:\n%s", output)
	}
	if !strings.Contains(output, "- Use JWT tokens (2026-03-02)") {
		t.Errorf("decision missing:\n%s", output)
	}
}

// prdStoreWithContext seeds a project dir with an auth-system PRD that
// has a decision and a tracked file.
func prdStoreWithContext(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ps, err := storage.NewProjectStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	content := `# Auth System

## Overview
Login and session handling.

## Requirements
- [ ] Harden the login flow

## Decisions
| Date | Decision | Rationale |
|------|----------|-----------|
| 2026-03-02 | Use JWT tokens | Stateless scaling |

## Constraints
- (No constraints defined yet)

## Open Questions
- (No open questions)

## Related Files
- ` + "`src/auth/login.go`" + `

## Session Log
### 2026-03-02
- PRD created
`
	if err := storage.WriteFile(ps.PRDFile("auth-system"), content); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestStopPRCommandSkipsUpdate(t *testing.T) {
	transcript := writeTranscript(t,
		userLine("2026-03-09T10:00:00Z", "we need to retry failed uploads"),
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"gh pr merge 42 --squash"}}]}}`,
	)
	r, _ := newTestRunner(t, Input{TranscriptPath: transcript})

	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	// The PR path outranks regular updates; outside a git repo it is a
	// harmless no-op, and the throttle is left untouched.
	if _, ok := storage.ReadFile(r.global.ThrottlePath()); ok {
		t.Error("throttle stamp written on PR command path")
	}
	if _, ok := storage.ReadFile(r.project.PRDFile("general")); ok {
		t.Error("regular update ran despite PR command")
	}
}
