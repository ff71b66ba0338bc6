package hooks

import (
	"fmt"
	"time"

	"github.com/ninho-ai/ninho/internal/extract"
	"github.com/ninho-ai/ninho/internal/prd"
)

// UserPrompt captures a submitted prompt as it arrives: saves it to the
// day's prompt log, and files any requirement, decision, constraint, or
// question it carries into the feature's PRD.
func (r *Runner) UserPrompt() error {
	text := r.in.Prompt
	if text == "" {
		return nil
	}

	index := r.promptIndex()
	if index.Seen(text) {
		return nil
	}

	feature := featureFromPrompt(text)
	now := r.now()

	if _, err := r.project.AppendPrompt(text, feature, now); err != nil {
		return err
	}

	ex := extract.NewExtractor(index)
	ex.Now = r.now
	items := ex.Items([]extract.Prompt{{Text: text, Timestamp: now.Format(time.RFC3339)}})
	if err := index.MarkSeen(text); err != nil {
		r.log.Error("mark prompt seen", err, nil)
	}

	store := prd.NewStore(r.project)
	promptRef := fmt.Sprintf("prompts/%s.md", now.Format("2006-01-02"))
	return r.applyItems(store, feature, items, promptRef)
}
