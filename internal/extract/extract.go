// Package extract turns classified prompt text into PRD items with
// short summaries and, for decisions, a rationale pulled from the
// connective clause ("because", "since", and friends).
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/dedupe"
	"github.com/ninho-ai/ninho/internal/signal"
)

// Prompt is a captured user message.
type Prompt struct {
	Text      string
	Timestamp string
}

// Item is a classified, summarized PRD candidate.
type Item struct {
	Type      signal.ItemType
	Text      string
	Timestamp string
	Signal    string
	Summary   string
	Rationale string
}

// Extractor classifies prompts into items, skipping text already in the
// dedupe index. A nil index disables deduplication.
type Extractor struct {
	Index *dedupe.Index
	Now   func() time.Time
}

func NewExtractor(index *dedupe.Index) *Extractor {
	return &Extractor{Index: index, Now: time.Now}
}

// Items extracts PRD candidates from prompts in order. Each extracted
// item is marked seen so later invocations skip it.
func (e *Extractor) Items(prompts []Prompt) []Item {
	var items []Item
	for _, p := range prompts {
		if p.Text == "" {
			continue
		}
		if e.Index != nil && e.Index.Seen(p.Text) {
			continue
		}
		typ, ok := signal.DetectItemType(p.Text)
		if !ok {
			continue
		}
		ts := p.Timestamp
		if ts == "" {
			ts = e.Now().Format(time.RFC3339)
		}
		item := Item{
			Type:      typ,
			Text:      p.Text,
			Timestamp: ts,
			Signal:    signal.ItemSignal(p.Text, typ),
		}
		switch typ {
		case signal.ItemDecision:
			item.Rationale = Rationale(p.Text)
			item.Summary = summarizeDecision(p.Text)
		case signal.ItemQuestion:
			item.Summary = questionText(p.Text)
		default:
			item.Summary = truncate(p.Text, 100)
		}
		items = append(items, item)
		if e.Index != nil {
			// Index write failures are non-fatal; the item still lands.
			_ = e.Index.MarkSeen(p.Text)
		}
	}
	return items
}

var rationalePatterns = []*regexp.Regexp{
	regexp.MustCompile(`because\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`since\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`for\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`to\s+(enable|allow|support|ensure|make)\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`it's\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`this\s+(is|will|allows?|enables?)\s+(.+?)(?:\.|$)`),
}

// Rationale pulls the justification clause out of a decision statement.
// Falls back to "See discussion" when no connective is present.
func Rationale(text string) string {
	lower := strings.ToLower(text)
	for _, re := range rationalePatterns {
		if groups := re.FindStringSubmatch(lower); groups != nil {
			rationale := strings.TrimSpace(groups[len(groups)-1])
			if rationale != "" {
				return strings.ToUpper(rationale[:1]) + rationale[1:]
			}
		}
	}
	return "See discussion"
}

var decisionTrailer = regexp.MustCompile(`(?i)\s+(because|since|for|to enable|to allow).*$`)

func summarizeDecision(text string) string {
	core := decisionTrailer.ReplaceAllString(text, "")
	if len(core) > 80 {
		core = core[:77] + "..."
	}
	return strings.TrimSpace(core)
}

var embeddedQuestion = regexp.MustCompile(`([^.!]+\?)`)

func questionText(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return trimmed
	}
	if m := embeddedQuestion.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

func truncate(text string, max int) string {
	if len(text) > max {
		return text[:max-3] + "..."
	}
	return strings.TrimSpace(text)
}
