package prd

import (
	"strings"
)

// document is a PRD parsed into its ordered sections. The preamble is
// everything before the first "## " header (the H1 title line). Bodies
// keep their raw text, trailing blank lines included, so an untouched
// document renders back byte for byte.
type document struct {
	preamble string
	sections []*section
}

type section struct {
	title string
	body  string
}

func parseDocument(content string) *document {
	doc := &document{}
	var current *section
	var buf strings.Builder

	flush := func() {
		if current == nil {
			doc.preamble = buf.String()
		} else {
			current.body = buf.String()
			doc.sections = append(doc.sections, current)
		}
		buf.Reset()
	}

	rest := content
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		if title, ok := strings.CutPrefix(strings.TrimRight(line, "\n"), "## "); ok {
			flush()
			current = &section{title: title}
			continue
		}
		buf.WriteString(line)
	}
	flush()
	return doc
}

func (d *document) render() string {
	var b strings.Builder
	b.WriteString(d.preamble)
	for _, sec := range d.sections {
		b.WriteString("## ")
		b.WriteString(sec.title)
		b.WriteString("\n")
		b.WriteString(sec.body)
	}
	return b.String()
}

// section returns the named section, or nil when the document does not
// have it.
func (d *document) section(title string) *section {
	for _, sec := range d.sections {
		if sec.title == title {
			return sec
		}
	}
	return nil
}

// appendLine inserts a line (no trailing newline) before the section's
// trailing blank lines so the separation from the next header survives
// the edit.
func (sec *section) appendLine(line string) {
	trimmed := strings.TrimRight(sec.body, "\n")
	trailing := sec.body[len(trimmed):]
	if trailing == "" {
		trailing = "\n"
	}
	if trimmed == "" {
		sec.body = line + trailing
		return
	}
	sec.body = trimmed + "\n" + line + trailing
}

func (sec *section) containsFold(s string) bool {
	return strings.Contains(strings.ToLower(sec.body), strings.ToLower(s))
}

// dropPlaceholder removes a placeholder bullet line, keeping the rest of
// the body and the blank-line separation intact.
func (sec *section) dropPlaceholder(placeholder string) {
	if !strings.Contains(sec.body, placeholder) {
		return
	}
	trimmed := strings.TrimRight(sec.body, "\n")
	trailing := sec.body[len(trimmed):]
	var kept []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.Contains(line, placeholder) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		sec.body = trailing
		return
	}
	sec.body = strings.Join(kept, "\n") + trailing
}
