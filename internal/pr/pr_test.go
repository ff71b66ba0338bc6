package pr

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ninho-ai/ninho/internal/storage"
)

const testPRD = `# Auth System

## Overview
Login and session handling.

## Requirements
- [ ] Support OAuth login
- [x] Hash passwords with bcrypt
- [ ] Add session expiry

## Decisions
| Date | Decision | Rationale |
|------|----------|-----------|
| 2026-03-02 | Use JWT tokens | Stateless scaling |
| 2026-03-05 | Rotate refresh tokens | Limits replay window |

## Constraints
- Must work offline
- (No constraints defined yet)

## Session Log
### 2026-03-02
- PRD created
`

func newTestIntegration(t *testing.T) *Integration {
	t.Helper()
	ps, err := storage.NewProjectStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	in := NewIntegration(ps)
	in.now = func() time.Time {
		return time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	}
	in.run = func(dir, name string, args ...string) (string, error) {
		return "", fmt.Errorf("unexpected command %s %v", name, args)
	}
	return in
}

func writePRD(t *testing.T, in *Integration, name, content string) {
	t.Helper()
	if err := storage.WriteFile(in.storage.PRDFile(name), content); err != nil {
		t.Fatal(err)
	}
}

func TestDetectPRDFromBranch(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"feat/auth-login", "auth-system"},
		{"fix/api_timeout", "api-integration"},
		{"feature/dashboard-widgets", "user-dashboard"},
		{"feat/payment-gateway", "payments"},
		{"FEAT/AUTH-SSO", "auth-system"},
		{"feat/search-index", "search-index"},
		{"chore/deps", ""},
		{"main", ""},
	}
	for _, tt := range tests {
		if got := DetectPRDFromBranch(tt.branch); got != tt.want {
			t.Errorf("DetectPRDFromBranch(%q) = %q, want %q", tt.branch, got, tt.want)
		}
	}
}

func TestInferPRDFromFiles(t *testing.T) {
	files := []string{
		"src/data_layer/store.go",
		"src/data_layer/query.go",
		"docs/guide.md",
	}
	if got := inferPRDFromFiles(files); got != "data-layer" {
		t.Errorf("inferPRDFromFiles = %q, want data-layer", got)
	}
	if got := inferPRDFromFiles([]string{"README.md"}); got != "" {
		t.Errorf("inferPRDFromFiles with no directories = %q", got)
	}
}

func TestPRDRequirements(t *testing.T) {
	in := newTestIntegration(t)
	writePRD(t, in, "auth-system", testPRD)

	reqs := in.PRDRequirements("auth-system")
	if len(reqs) != 3 {
		t.Fatalf("requirements = %d, want 3", len(reqs))
	}
	if reqs[0].Text != "Support OAuth login" || reqs[0].Completed {
		t.Errorf("first requirement = %+v", reqs[0])
	}
	if reqs[1].Text != "Hash passwords with bcrypt" || !reqs[1].Completed {
		t.Errorf("second requirement = %+v", reqs[1])
	}

	if got := in.PRDRequirements("missing"); got != nil {
		t.Errorf("requirements for missing PRD = %+v", got)
	}
}

func TestLinkBranchAndMapping(t *testing.T) {
	in := newTestIntegration(t)
	if _, ok := in.BranchMapping("feat/auth-sso"); ok {
		t.Fatal("mapping should not exist yet")
	}
	if err := in.LinkBranch("feat/auth-sso", "auth-system", []string{"Support OAuth login"}); err != nil {
		t.Fatal(err)
	}
	m, ok := in.BranchMapping("feat/auth-sso")
	if !ok {
		t.Fatal("mapping not saved")
	}
	if m.PRD != "auth-system" || len(m.Requirements) != 1 || m.Merged {
		t.Errorf("mapping = %+v", m)
	}
	if m.Created != "2026-03-09T10:00:00Z" {
		t.Errorf("created = %q", m.Created)
	}
}

func TestMarkRequirementsComplete(t *testing.T) {
	in := newTestIntegration(t)
	writePRD(t, in, "auth-system", testPRD)
	in.LinkBranch("feat/auth-sso", "auth-system", []string{"Support OAuth login", "Add session expiry"})

	if got := in.MarkRequirementsComplete("feat/auth-sso"); got != 2 {
		t.Fatalf("marked = %d, want 2", got)
	}
	content, _ := storage.ReadFile(in.storage.PRDFile("auth-system"))
	if strings.Contains(content, "- [ ] Support OAuth login") {
		t.Error("requirement left unchecked")
	}
	if !strings.Contains(content, "- [x] Add session expiry") {
		t.Error("requirement not checked")
	}

	m, _ := in.BranchMapping("feat/auth-sso")
	if !m.Merged || m.MergedAt == "" {
		t.Errorf("mapping after merge = %+v", m)
	}

	// Merged branches are not re-applied.
	if got := in.MarkRequirementsComplete("feat/auth-sso"); got != 0 {
		t.Errorf("second merge marked = %d, want 0", got)
	}
}

func TestAddPRToPRD(t *testing.T) {
	in := newTestIntegration(t)
	writePRD(t, in, "auth-system", testPRD)

	reqs := []string{"Support OAuth login", "Add session expiry", "Rotate keys"}
	if err := in.AddPRToPRD("auth-system", 42, "https://example.com/pr/42", "feat/auth-sso", reqs, "Open"); err != nil {
		t.Fatal(err)
	}
	content, _ := storage.ReadFile(in.storage.PRDFile("auth-system"))
	if !strings.Contains(content, "## Pull Requests") {
		t.Fatal("Pull Requests section not created")
	}
	if !strings.Contains(content, "| [#42](https://example.com/pr/42) | `feat/auth-sso` |") {
		t.Errorf("row missing:\n%s", content)
	}
	if !strings.Contains(content, "Support OAuth login, Add session expiry (+1 more)") {
		t.Error("requirement summary wrong")
	}

	// Same PR number updates in place.
	if err := in.AddPRToPRD("auth-system", 42, "https://example.com/pr/42", "feat/auth-sso", reqs, "Merged"); err != nil {
		t.Fatal(err)
	}
	content, _ = storage.ReadFile(in.storage.PRDFile("auth-system"))
	if strings.Count(content, "| [#42]") != 1 {
		t.Error("duplicate row for same PR")
	}
	if !strings.Contains(content, "Merged") {
		t.Error("status not updated")
	}
}

func TestGenerateContext(t *testing.T) {
	in := newTestIntegration(t)
	writePRD(t, in, "auth-system", testPRD)
	in.LinkBranch("feat/auth-sso", "auth-system", []string{"Support OAuth login"})

	ctx, ok := in.GenerateContext("feat/auth-sso")
	if !ok {
		t.Fatal("no context generated")
	}
	for _, want := range []string{
		"**Feature**: Auth System ([PRD](.ninho/prds/auth-system.md))",
		"- [x] Support OAuth login",
		"| Use JWT tokens | Stateless scaling |",
		"- Must work offline",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
	if strings.Contains(ctx, "No constraints") {
		t.Error("placeholder constraint leaked into context")
	}

	if _, ok := in.GenerateContext("unmapped"); ok {
		t.Error("context for unmapped branch")
	}
}

func TestShellOuts(t *testing.T) {
	in := newTestIntegration(t)
	in.run = func(dir, name string, args ...string) (string, error) {
		switch name {
		case "git":
			if args[0] == "branch" {
				return "feat/auth-sso", nil
			}
			if args[0] == "diff" && args[1] == "main" {
				return "src/auth/login.go\nsrc/auth/token.go", nil
			}
			return "", fmt.Errorf("unexpected git args %v", args)
		case "gh":
			return `{"number":7,"url":"https://example.com/pr/7","title":"Add SSO","state":"OPEN"}`, nil
		}
		return "", fmt.Errorf("unexpected command %s", name)
	}

	if got := in.CurrentBranch(); got != "feat/auth-sso" {
		t.Errorf("CurrentBranch = %q", got)
	}
	if got := in.DetectPRDFromFiles(); got != "auth" {
		t.Errorf("DetectPRDFromFiles = %q", got)
	}
	info, ok := in.PRInfo()
	if !ok || info.Number != 7 || info.State != "OPEN" {
		t.Errorf("PRInfo = %+v ok=%v", info, ok)
	}
}
