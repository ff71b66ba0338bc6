package signal

import "testing"

func TestDetectItemType(t *testing.T) {
	tests := []struct {
		text string
		want ItemType
		ok   bool
	}{
		{"I need to build a login page", ItemRequirement, true},
		{"please add pagination to the list", ItemRequirement, true},
		{"we want to support dark mode", ItemRequirement, true},
		{"there's a bug in the parser", ItemBug, true},
		{"the export is broken", ItemBug, true},
		{"error when saving drafts", ItemBug, true},
		{"let's use postgres for storage", ItemDecision, true},
		{"we decided to ship weekly", ItemDecision, true},
		{"going with the queue approach", ItemDecision, true},
		{"responses must be under 100ms", ItemConstraint, true},
		{"payloads limited to 1MB", ItemConstraint, true},
		{"we cannot depend on network access", ItemConstraint, true},
		{"should we cache these results?", ItemQuestion, true},
		{"how do I rotate the keys", ItemQuestion, true},
		{"what if the token expires", ItemQuestion, true},
		{"the weather is nice today", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectItemType(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("DetectItemType(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDetectItemTypeOrder(t *testing.T) {
	// Question beats decision even when a decision trigger is present.
	if got, _ := DetectItemType("should we use redis here?"); got != ItemQuestion {
		t.Errorf("got %q, want question", got)
	}
	// Decision beats bug.
	if got, _ := DetectItemType("let's use retries to fix the broken client"); got != ItemDecision {
		t.Errorf("got %q, want decision", got)
	}
	// Bug beats requirement when both match.
	if got, _ := DetectItemType("fix the crash on startup"); got != ItemBug {
		t.Errorf("got %q, want bug", got)
	}
}

func TestDetectLearningType(t *testing.T) {
	tests := []struct {
		text string
		want LearningType
		ok   bool
	}{
		{"no, use the batch endpoint", LearningCorrection, true},
		{"actually, the flag is inverted", LearningCorrection, true},
		{"never commit directly to main", LearningCorrection, true},
		{"TIL: slices share backing arrays", LearningNote, true},
		{"note: the staging db resets nightly", LearningNote, true},
		{"keep in mind the rate limit", LearningNote, true},
		{"we decided on trunk-based development", LearningDecision, true},
		{"always use context timeouts", LearningDecision, true},
		{"convention is snake_case for config keys", LearningDecision, true},
		{"just a normal message", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectLearningType(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("DetectLearningType(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestItemSignal(t *testing.T) {
	if got := ItemSignal("There's a BUG in the tokenizer", ItemBug); got != "there's a bug" {
		t.Errorf("signal = %q", got)
	}
	if got := ItemSignal("should we cache these?", ItemQuestion); got != "?" {
		t.Errorf("signal = %q", got)
	}
	// Unmatched falls back to the type name.
	if got := ItemSignal("plain text", ItemDecision); got != "decision" {
		t.Errorf("signal = %q", got)
	}
}

func TestLearningSignal(t *testing.T) {
	if got := LearningSignal("no, that path is deprecated", LearningCorrection); got != "no," {
		t.Errorf("signal = %q", got)
	}
	if got := LearningSignal("always use prepared statements", LearningDecision); got != "always use" {
		t.Errorf("signal = %q", got)
	}
}
