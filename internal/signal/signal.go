// Package signal holds the trigger vocabulary for classifying prompt
// text into PRD items and learnings. Matching is case-insensitive over
// the lowercased text and first-match wins within each table.
package signal

import (
	"regexp"
	"strings"
)

// ItemType classifies a PRD-worthy statement.
type ItemType string

const (
	ItemRequirement ItemType = "requirement"
	ItemBug         ItemType = "bug"
	ItemDecision    ItemType = "decision"
	ItemConstraint  ItemType = "constraint"
	ItemQuestion    ItemType = "question"
)

// LearningType classifies a learning-worthy statement.
type LearningType string

const (
	LearningCorrection LearningType = "correction"
	LearningNote       LearningType = "learning"
	LearningDecision   LearningType = "decision"
)

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

var requirementPatterns = compileAll([]string{
	`\b(i\s+)?need\s+to\s+(build|create|add|fix|implement|make|write|update)\b`,
	`\bfix\s+(this|the|a)\b`,
	`\bshould\s+have\b`,
	`\bmust\s+support\b`,
	`\brequire[sd]?\b`,
	`\bwe\s+(need|should|must)\b`,
	`\b(add|create|build|implement|write)\s+a\b`,
	`\bmake\s+(it|this|the)\b`,
	`\b(can|could)\s+you\b`,
	`\bplease\s+(add|create|fix|implement|update)\b`,
	`\b(i|we)\s+(want|'d like)\s+to\b`,
	`\blet's\s+(add|create|build|implement)\b`,
	`\bi('d| would)\s+like\s+to\b`,
})

var bugPatterns = compileAll([]string{
	`\bfix\s+(this|the|a)\b`,
	`\bthere's\s+a\s+bug\b`,
	`\bbug\s+in\b`,
	`\bdoesn't\s+work\b`,
	`\bnot\s+working\b`,
	`\bbroken\b`,
	`\berror\s+when\b`,
	`\bfailing\b`,
	`\bcrashes\b`,
	`\bissue\s+with\b`,
})

var decisionPatterns = compileAll([]string{
	`\blet's\s+use\b`,
	`\bwe'll\s+(go\s+with|use)\b`,
	`\bdecided\s+(to|on)\b`,
	`\bchose\b`,
	`\bi'll\s+use\b`,
	`\bwe\s+should\s+use\b`,
	`\bgoing\s+with\b`,
	`\bprefer\s+to\b`,
	`\bbetter\s+to\b`,
	`\bmakes\s+sense\s+to\b`,
	`\bagreed\s+(to|on)\b`,
})

var constraintPatterns = compileAll([]string{
	`\bmust\s+be\b`,
	`\bcannot\b`,
	`\bcan't\b`,
	`\bshouldn't\b`,
	`\blimited\s+to\b`,
	`\bmaximum\b`,
	`\bminimum\b`,
	`\bat\s+(most|least)\b`,
	`\bonly\s+if\b`,
	`\bunless\b`,
	`\bno\s+more\s+than\b`,
})

var questionPatterns = compileAll([]string{
	`\?$`,
	`\bhow\s+(do|can|should)\b`,
	`\bwhat\s+if\b`,
	`\bshould\s+we\b`,
	`\bcan\s+we\b`,
	`\bwhy\s+(do|does|is|are)\b`,
	`\bwhat\s+(is|are|does)\b`,
})

var correctionPatterns = compileAll([]string{
	`\bno,\s`,
	`\bactually,\s`,
	`\bdon't\s+do\b`,
	`\bnever\s`,
	`\bwrong\b`,
	`\bincorrect\b`,
	`\binstead\s+of\b`,
	`\bshould\s+not\b`,
	`\bshouldn't\b`,
})

var learningPatterns = compileAll([]string{
	`\bi\s+learned\b`,
	`\btil:\s`,
	`\bnote:\s`,
	`\bremember:\s`,
	`\bimportant:\s`,
	`\bkeep\s+in\s+mind\b`,
	`\bgood\s+to\s+know\b`,
})

var learningDecisionPatterns = compileAll([]string{
	`\bwe\s+decided\b`,
	`\blet's\s+go\s+with\b`,
	`\bconvention\s+is\b`,
	`\bstandard\s+is\b`,
	`\bprefer\s+to\b`,
	`\balways\s+use\b`,
	`\bchose\s+to\b`,
	`\bagreed\s+on\b`,
})

// itemRules is the classification order. Questions outrank everything
// (a "can we X?" is filed as open, not as a requirement), decisions
// outrank bugs, and requirements are the broadest catch-all.
var itemRules = []struct {
	typ      ItemType
	patterns []*regexp.Regexp
}{
	{ItemQuestion, questionPatterns},
	{ItemDecision, decisionPatterns},
	{ItemBug, bugPatterns},
	{ItemConstraint, constraintPatterns},
	{ItemRequirement, requirementPatterns},
}

var learningRules = []struct {
	typ      LearningType
	patterns []*regexp.Regexp
}{
	{LearningCorrection, correctionPatterns},
	{LearningNote, learningPatterns},
	{LearningDecision, learningDecisionPatterns},
}

func matchAny(patterns []*regexp.Regexp, lower string) bool {
	for _, re := range patterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// DetectItemType classifies text as a PRD item, or returns false when no
// trigger matches.
func DetectItemType(text string) (ItemType, bool) {
	lower := strings.ToLower(text)
	for _, rule := range itemRules {
		if matchAny(rule.patterns, lower) {
			return rule.typ, true
		}
	}
	return "", false
}

// DetectLearningType classifies text as a learning, or returns false.
func DetectLearningType(text string) (LearningType, bool) {
	lower := strings.ToLower(text)
	for _, rule := range learningRules {
		if matchAny(rule.patterns, lower) {
			return rule.typ, true
		}
	}
	return "", false
}

// ItemSignal returns the literal trigger text for the given item type,
// falling back to the type name when nothing matches.
func ItemSignal(text string, typ ItemType) string {
	var patterns []*regexp.Regexp
	switch typ {
	case ItemRequirement:
		patterns = requirementPatterns
	case ItemBug:
		patterns = bugPatterns
	case ItemDecision:
		patterns = decisionPatterns
	case ItemConstraint:
		patterns = constraintPatterns
	case ItemQuestion:
		patterns = questionPatterns
	}
	return firstMatch(patterns, text, string(typ))
}

// LearningSignal returns the literal trigger text for a learning type.
func LearningSignal(text string, typ LearningType) string {
	var patterns []*regexp.Regexp
	switch typ {
	case LearningCorrection:
		patterns = correctionPatterns
	case LearningNote:
		patterns = learningPatterns
	case LearningDecision:
		patterns = learningDecisionPatterns
	}
	return firstMatch(patterns, text, string(typ))
}

func firstMatch(patterns []*regexp.Regexp, text, fallback string) string {
	lower := strings.ToLower(text)
	for _, re := range patterns {
		if m := re.FindString(lower); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return fallback
}
