package hooks

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ninho-ai/ninho/internal/storage"
)

// newStartRunner builds a session-start runner, which must not create
// .ninho itself.
func newStartRunner(t *testing.T, cwd, source string, now func() time.Time) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(cwd, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	r, err := NewRunner(Input{CWD: cwd, Source: source}, EventSessionStart, Options{
		Stdout:     &out,
		Stderr:     &errOut,
		GlobalBase: t.TempDir(),
		Now:        now,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r, &out, &errOut
}

func TestSessionStartWithoutProjectIsQuiet(t *testing.T) {
	cwd := t.TempDir()
	r, out, _ := newStartRunner(t, cwd, "startup", time.Now)

	if err := r.SessionStart(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(cwd, ".ninho")); !os.IsNotExist(err) {
		t.Error("session start created .ninho")
	}
}

func TestSessionStartFullContext(t *testing.T) {
	cwd := t.TempDir()
	ps, err := storage.NewProjectStorage(cwd)
	if err != nil {
		t.Fatal(err)
	}

	prdContent := `# Auth System

## Overview
Login and session handling.

## Requirements
- [ ] Support OAuth login
- [x] Hash passwords with bcrypt

## Decisions
| Date | Decision | Rationale |
|------|----------|-----------|
| 2026-03-02 | Use JWT tokens | Stateless scaling |

## Constraints
- Must work offline

## Open Questions
- (No open questions)

## Related Files
- (No files tracked yet)

## Session Log
### 2026-03-02
- PRD created
`
	if err := storage.WriteFile(ps.PRDFile("auth-system"), prdContent); err != nil {
		t.Fatal(err)
	}

	r, out, _ := newStartRunner(t, cwd, "startup", time.Now)

	// Today's prompt log and a global learning feed the context too.
	if _, err := ps.AppendPrompt("we need to support OAuth login", "auth-system", time.Now()); err != nil {
		t.Fatal(err)
	}
	daily := "# Daily Learnings - x\n\n## [Correction] 09:00:00\n\n> no, use tabs not spaces\n\n**Signal:** `no, `\n\n---\n\n"
	if err := storage.WriteFile(r.global.DailyFile(time.Now()), daily); err != nil {
		t.Fatal(err)
	}

	if err := r.SessionStart(); err != nil {
		t.Fatal(err)
	}

	output := out.String()
	for _, want := range []string{
		"<ninho-context>",
		"## Ninho - Your Persistent Memory",
		"## Active PRDs (detailed)",
		"### Auth System",
		"### Overview",
		"- [ ] Support OAuth login",
		"| 2026-03-02 | Use JWT tokens | Stateless scaling |",
		"### Constraints\n- Must work offline",
		"## Recent Conversations",
		"we need to support OAuth login",
		"## Recent Learnings",
		"- [Correction] no, use tabs not spaces",
		"</ninho-context>",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("context missing %q", want)
		}
	}
	// The placeholder-only questions section is not injected.
	if strings.Contains(output, "(No open questions)") {
		t.Error("placeholder questions leaked into context")
	}
}

func TestSessionStartCompactPath(t *testing.T) {
	cwd := t.TempDir()
	ps, err := storage.NewProjectStorage(cwd)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteFile(ps.PRDFile("auth-system"),
		"# Auth System\n\n## Requirements\n- [ ] Support OAuth login\n"); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{
		Timestamp:       "2026-03-09T10:00:00Z",
		ActiveFeature:   "auth-system",
		ModifiedFiles:   []string{"src/auth/login.go"},
		CompactionCount: 1,
	}
	if err := storage.WriteJSON(ps.SnapshotPath(), snap); err != nil {
		t.Fatal(err)
	}

	r, out, _ := newStartRunner(t, cwd, "compact", time.Now)
	if err := r.SessionStart(); err != nil {
		t.Fatal(err)
	}

	output := out.String()
	for _, want := range []string{
		"<ninho-context-restored>",
		"**Active feature**: auth-system",
		"**Recently modified**: login.go",
		"## PRD Status",
		"- **Auth System** (1 open reqs)",
		"</ninho-context-restored>",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("compact context missing %q:\n%s", want, output)
		}
	}

	// The snapshot survives a compact resume for later compactions.
	if got := r.readSnapshot(); got.CompactionCount != 1 {
		t.Errorf("snapshot gone after compact resume: %+v", got)
	}
}

func TestSessionStartCleansTransientFiles(t *testing.T) {
	cwd := t.TempDir()
	ps, err := storage.NewProjectStorage(cwd)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteJSON(ps.SnapshotPath(), Snapshot{CompactionCount: 2}); err != nil {
		t.Fatal(err)
	}

	r, _, _ := newStartRunner(t, cwd, "startup", time.Now)
	if err := r.SessionStart(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(ps.SnapshotPath()); !os.IsNotExist(err) {
		t.Error("snapshot not cleaned up on fresh startup")
	}
}

func TestSessionStartGeneratesPendingSummaries(t *testing.T) {
	cwd := t.TempDir()
	if _, err := storage.NewProjectStorage(cwd); err != nil {
		t.Fatal(err)
	}

	// 2026-03-16 is a Monday, so the previous week is pending.
	monday := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	r, out, errOut := newStartRunner(t, cwd, "resume", func() time.Time { return monday })

	if err := r.SessionStart(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(errOut.String(), "Generated weekly summary for 2026-W11") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if _, ok := storage.ReadFile(r.project.SummaryFile("weekly", "2026-W11")); !ok {
		t.Fatal("weekly summary not written")
	}
	if !strings.Contains(out.String(), "## Weekly Summary") {
		t.Errorf("weekly summary not injected:\n%s", out.String())
	}
}
