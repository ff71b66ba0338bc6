package hooks

import (
	"fmt"
	"time"

	"github.com/ninho-ai/ninho/internal/capture"
	"github.com/ninho-ai/ninho/internal/extract"
	"github.com/ninho-ai/ninho/internal/learnings"
	"github.com/ninho-ai/ninho/internal/prd"
)

// sweepTranscript is the shared capture pass of PreCompact and
// SessionEnd: it saves every not-yet-seen prompt, extracts learnings to
// the global daily log, and files PRD items under the transcript's
// feature context. prefix tags the progress lines.
func (r *Runner) sweepTranscript(tr *capture.Transcript, prefix string) error {
	rawPrompts := tr.UserPrompts()
	if len(rawPrompts) == 0 {
		return nil
	}

	prompts := make([]extract.Prompt, len(rawPrompts))
	for i, p := range rawPrompts {
		prompts[i] = extract.Prompt{Text: p.Text, Timestamp: p.Timestamp}
	}

	feature := tr.DetectFeatureContext()
	if feature == "" {
		feature = "general"
	}

	index := r.promptIndex()
	saved := 0
	for _, p := range rawPrompts {
		if p.Text == "" || index.Seen(p.Text) {
			continue
		}
		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			ts = r.now()
		}
		if _, err := r.project.AppendPrompt(p.Text, feature, ts); err != nil {
			return err
		}
		saved++
	}
	if saved > 0 {
		fmt.Fprintf(r.out, "%s: Saved %d prompts for summarization\n", prefix, saved)
	}

	lm := learnings.NewManager(r.global, r.cfg.IndexMaxHashes)
	found := lm.Extract(prompts)
	if len(found) > 0 {
		count, err := lm.Save(found, r.now())
		if err != nil {
			return err
		}
		if count > 0 {
			fmt.Fprintf(r.out, "%s: Saved %d new learnings to daily log\n", prefix, count)
		}
	}

	// Items are pulled before the prompts are marked seen, so the save
	// pass above must not mark them.
	ex := extract.NewExtractor(index)
	ex.Now = r.now
	items := ex.Items(prompts)
	for _, p := range rawPrompts {
		if p.Text != "" {
			index.MarkSeen(p.Text)
		}
	}
	if len(items) == 0 {
		return nil
	}

	store := prd.NewStore(r.project)
	if !store.Exists(feature) {
		if _, err := store.Create(feature, "", ""); err != nil {
			return err
		}
	}
	for _, file := range tr.ModifiedFiles() {
		if err := store.AddFile(feature, file); err != nil {
			return err
		}
	}

	promptRef := fmt.Sprintf("prompts/%s.md", r.now().Format("2006-01-02"))
	if err := r.applyItems(store, feature, items, promptRef); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s: Captured %d PRD items for '%s'\n", prefix, len(items), feature)
	return nil
}
