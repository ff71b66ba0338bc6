package hooks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ninho-ai/ninho/internal/capture"
	"github.com/ninho-ai/ninho/internal/pr"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Stop-hook detection uses looser patterns than prompt capture: here a
// single hit on the recent prompts is enough to warrant a PRD touch,
// classification happens elsewhere.
var updateSignalRes = []*regexp.Regexp{
	// requirement
	regexp.MustCompile(`\bneed\s+to\b`),
	regexp.MustCompile(`\bshould\s+have\b`),
	regexp.MustCompile(`\bmust\s+support\b`),
	regexp.MustCompile(`\brequire[sd]?\b`),
	regexp.MustCompile(`\bfeature\b`),
	// decision
	regexp.MustCompile(`\blet's\s+(use|go with)\b`),
	regexp.MustCompile(`\bwe('ll| will)\s+use\b`),
	regexp.MustCompile(`\bdecided\s+(to|on)\b`),
	regexp.MustCompile(`\bchose\b`),
	regexp.MustCompile(`\bprefer\b`),
	// constraint
	regexp.MustCompile(`\bmust\s+be\b`),
	regexp.MustCompile(`\bcannot\b`),
	regexp.MustCompile(`\blimit(ed)?\s+to\b`),
	regexp.MustCompile(`\bmaximum\b`),
	regexp.MustCompile(`\bminimum\b`),
}

func hasUpdateSignal(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	lower := strings.ToLower(text)
	for _, re := range updateSignalRes {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Stop runs after each assistant response: records a response summary,
// reacts to PR commands immediately, and otherwise keeps the feature's
// PRD file list and surfaced context fresh, throttled to one update per
// configured window.
func (r *Runner) Stop() error {
	tr := capture.NewTranscript(r.in.TranscriptPath)
	store := prd.NewStore(r.project)
	integ := pr.NewIntegration(r.project)

	// Response summary is always recorded, no throttle.
	if summary := tr.LastAssistantSummary(150); summary != "" {
		if err := r.project.AppendResponseSummary(summary, r.now()); err != nil {
			r.log.Error("append response summary", err, nil)
		}
	}

	// PR commands outrank the throttle.
	if cmd, ok := tr.DetectPRCommand(); ok {
		switch cmd.Kind {
		case "pr_create", "branch_push":
			r.handlePRCreation(integ, tr, store)
		case "pr_merge":
			r.handlePRMerge(integ)
		}
		return nil
	}

	if r.throttled() {
		return nil
	}

	recent := tr.RecentPrompts(3)
	if len(recent) == 0 {
		return nil
	}
	hasSignal := false
	for _, p := range recent {
		if hasUpdateSignal(p.Text) {
			hasSignal = true
			break
		}
	}
	if !hasSignal {
		return nil
	}

	feature := tr.DetectFeatureContext()
	if feature == "" {
		feature = fallbackFeature(tr.ModifiedFiles())
	}

	if !store.Exists(feature) {
		if _, err := store.Create(feature, "", ""); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Created new PRD: %s\n", feature)
	}

	modified := tr.ModifiedFiles()
	for _, file := range modified {
		if err := store.AddFile(feature, file); err != nil {
			return err
		}
	}

	r.surfaceFileContext(store, modified)

	return r.updateThrottle()
}

// fallbackFeature names a feature from the first modified file's top
// directory, skipping a leading src/.
func fallbackFeature(modified []string) string {
	if len(modified) == 0 {
		return "general"
	}
	parts := strings.Split(modified[0], "/")
	if len(parts) < 2 {
		return "general"
	}
	if parts[0] == "src" {
		return parts[1]
	}
	return parts[0]
}

func (r *Runner) throttled() bool {
	content, ok := storage.ReadFile(r.global.ThrottlePath())
	if !ok {
		return false
	}
	last, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
	if err != nil {
		return false
	}
	elapsed := float64(r.now().UnixNano())/1e9 - last
	return elapsed < float64(r.cfg.ThrottleSeconds)
}

func (r *Runner) updateThrottle() error {
	stamp := strconv.FormatFloat(float64(r.now().UnixNano())/1e9, 'f', 6, 64)
	return storage.WriteFile(r.global.ThrottlePath(), stamp)
}

// handlePRCreation links the current branch to its PRD's incomplete
// requirements and records the PR in the PRD when one exists.
func (r *Runner) handlePRCreation(integ *pr.Integration, tr *capture.Transcript, store *prd.Store) bool {
	branch := integ.CurrentBranch()
	if branch == "" || branch == "main" || branch == "master" {
		return false
	}
	if _, exists := integ.BranchMapping(branch); exists {
		return false
	}

	prdName := pr.DetectPRDFromBranch(branch)
	if prdName == "" {
		prdName = integ.DetectPRDFromFiles()
	}
	if prdName == "" {
		prdName = tr.DetectFeatureContext()
	}
	if prdName == "" || !store.Exists(prdName) {
		return false
	}

	var incomplete []string
	for _, req := range integ.PRDRequirements(prdName) {
		if !req.Completed {
			incomplete = append(incomplete, req.Text)
		}
	}
	if len(incomplete) == 0 {
		return false
	}

	if err := integ.LinkBranch(branch, prdName, incomplete); err != nil {
		r.log.Error("link branch", err, map[string]any{"branch": branch})
		return false
	}
	fmt.Fprintf(r.out, "\U0001FABA Auto-linked branch '%s' to PRD '%s'\n", branch, prdName)
	fmt.Fprintf(r.out, "   Requirements tracked: %d\n", len(incomplete))

	if info, ok := integ.PRInfo(); ok {
		shown := incomplete
		if len(shown) > 3 {
			shown = shown[:3]
		}
		state := info.State
		if state == "" {
			state = "Open"
		}
		if err := integ.AddPRToPRD(prdName, info.Number, info.URL, branch, shown, state); err != nil {
			r.log.Error("add PR to PRD", err, map[string]any{"prd": prdName})
		} else {
			fmt.Fprintf(r.out, "   PR #%d added to PRD\n", info.Number)
		}
	}
	return true
}

func (r *Runner) handlePRMerge(integ *pr.Integration) bool {
	branch := integ.CurrentBranch()
	if branch == "" {
		return false
	}
	count := integ.MarkRequirementsComplete(branch)
	if count > 0 {
		fmt.Fprintf(r.out, "\U0001FABA Auto-completed %d requirement(s) in PRD\n", count)
		return true
	}
	return false
}

// surfaceFileContext prints decisions and open questions from PRDs whose
// Related Files mention one of the modified files.
func (r *Runner) surfaceFileContext(store *prd.Store, modified []string) bool {
	if len(modified) == 0 {
		return false
	}

	type surfacedPRD struct {
		name      string
		decisions []prd.Decision
		questions []string
	}
	var surfaced []surfacedPRD

	for _, name := range store.List() {
		content, ok := store.Read(name)
		if !ok {
			continue
		}
		touched := false
		for _, file := range modified {
			if strings.Contains(content, file) {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}

		decisions := prd.Decisions(content)
		if len(decisions) > 3 {
			decisions = decisions[len(decisions)-3:]
		}
		questions := prd.OpenQuestionLines(content)
		if len(questions) > 2 {
			questions = questions[:2]
		}
		if len(decisions) > 0 || len(questions) > 0 {
			surfaced = append(surfaced, surfacedPRD{name, decisions, questions})
		}
	}

	if len(surfaced) == 0 {
		return false
	}
	if len(surfaced) > 2 {
		surfaced = surfaced[:2]
	}

	fmt.Fprintln(r.out, "\n<ninho-file-context>")
	for _, ctx := range surfaced {
		fmt.Fprintf(r.out, "## Editing files related to: %s\n", featureTitle(ctx.name))
		if len(ctx.decisions) > 0 {
			fmt.Fprintln(r.out, "\nRecent decisions:")
			for _, d := range ctx.decisions {
				fmt.Fprintf(r.out, "- %s (%s)\n", d.Text, d.Date)
			}
		}
		if len(ctx.questions) > 0 {
			fmt.Fprintln(r.out, "\nOpen questions:")
			for _, q := range ctx.questions {
				fmt.Fprintf(r.out, "- %s\n", q)
			}
		}
	}
	fmt.Fprint(r.out, "</ninho-file-context>\n\n")
	return true
}
