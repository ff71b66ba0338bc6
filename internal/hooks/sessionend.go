package hooks

import (
	"fmt"

	"github.com/ninho-ai/ninho/internal/capture"
)

// SessionEnd is the final sweep after the user exits: everything the
// earlier hooks missed gets captured here.
func (r *Runner) SessionEnd() error {
	tr := capture.NewTranscript(r.in.TranscriptPath)
	if len(tr.UserPrompts()) == 0 {
		fmt.Fprintln(r.out, "No prompts found in transcript")
		return nil
	}
	return r.sweepTranscript(tr, "SessionEnd")
}
