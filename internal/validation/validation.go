// Package validation decides whether user input may enter the task store.
package validation

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"taskKeeper/internal/models/task"
)

// IsValidTask filters out garbage input: blank text, a single character,
// or text without a single letter. Single-letter words are rejected too.
func IsValidTask(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if utf8.RuneCountInString(trimmed) == 1 {
		return false
	}
	return strings.IndexFunc(trimmed, unicode.IsLetter) >= 0
}

// IsFutureDateTime reports whether date combined with the hour and minute of
// clock is strictly after now.
func IsFutureDateTime(date, clock, now time.Time) bool {
	return task.CombineDateTime(date, clock).After(now)
}

// IsNonBlank is the weaker check applied to edits and subtasks.
func IsNonBlank(text string) bool {
	return strings.TrimSpace(text) != ""
}
