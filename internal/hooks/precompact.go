package hooks

import (
	"fmt"
	"time"

	"github.com/ninho-ai/ninho/internal/capture"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Snapshot is the transient session state PreCompact leaves behind for
// the post-compaction SessionStart to re-inject.
type Snapshot struct {
	Timestamp       string   `json:"timestamp"`
	ActiveFeature   string   `json:"active_feature"`
	ModifiedFiles   []string `json:"modified_files"`
	PRDNames        []string `json:"prd_names"`
	CompactionCount int      `json:"compaction_count"`
}

// PreCompact runs just before the editor compacts its context: a full
// capture sweep of the transcript, then a session snapshot so the
// restored session knows what was being worked on.
func (r *Runner) PreCompact() error {
	tr := capture.NewTranscript(r.in.TranscriptPath)

	sweepErr := r.sweepTranscript(tr, "Pre-compact")

	// The snapshot is written even when the sweep found nothing; the
	// compaction still happened.
	if err := r.writeSnapshot(tr); err != nil {
		fmt.Fprintf(r.errOut, "Warning: failed to write session snapshot: %v\n", err)
	} else {
		fmt.Fprintln(r.out, "Pre-compact: Wrote session snapshot for context restoration")
	}
	return sweepErr
}

func (r *Runner) writeSnapshot(tr *capture.Transcript) error {
	files := tr.ModifiedFiles()
	if len(files) > 10 {
		files = files[:10]
	}
	snap := Snapshot{
		Timestamp:       r.now().Format(time.RFC3339),
		ActiveFeature:   tr.DetectFeatureContext(),
		ModifiedFiles:   files,
		PRDNames:        prd.NewStore(r.project).List(),
		CompactionCount: r.readSnapshot().CompactionCount + 1,
	}
	return storage.WriteJSON(r.project.SnapshotPath(), snap)
}

// readSnapshot returns the stored snapshot, or a zero Snapshot when
// missing or unreadable.
func (r *Runner) readSnapshot() Snapshot {
	var snap Snapshot
	storage.ReadJSON(r.project.SnapshotPath(), &snap)
	return snap
}
