package storage

import (
	"fmt"
	"strings"
	"time"
)

// AppendPrompt saves a prompt entry to the day's prompt log, creating the
// file with a header on first write. Returns a line reference of the form
// "prompts/<date>.md#L<n>" pointing at the entry's header line.
func (ps *ProjectStorage) AppendPrompt(text, feature string, timestamp time.Time) (string, error) {
	dateStr := timestamp.Format("2006-01-02")
	path := ps.PromptFile(timestamp)

	content, exists := ReadFile(path)
	if !exists {
		content = fmt.Sprintf("# Prompts - %s\n\n", dateStr)
		if err := WriteFile(path, content); err != nil {
			return "", err
		}
	}

	// The entry's header lands on the line after the last newline.
	entryLine := strings.Count(content, "\n") + 1

	entry := fmt.Sprintf("## [%s] %s\n\n> %s\n\n---\n\n",
		feature, timestamp.Format("15:04:05"), text)
	if err := AppendFile(path, entry); err != nil {
		return "", err
	}

	return fmt.Sprintf("prompts/%s.md#L%d", dateStr, entryLine), nil
}

// AppendResponseSummary appends a one-line assistant response summary to
// the day's prompt log. A no-op when the day has no prompt log yet.
func (ps *ProjectStorage) AppendResponseSummary(summary string, now time.Time) error {
	path := ps.PromptFile(now)
	if _, exists := ReadFile(path); !exists {
		return nil
	}
	return AppendFile(path, fmt.Sprintf("← %s\n\n", summary))
}
