// Package strings provides string utility functions.
package strings

import (
	"fmt"
	stdstrings "strings"
)

// Pluralize returns singular or plural form based on count.
// Example: Pluralize("file", 1) returns "file", Pluralize("file", 2) returns "files"
func Pluralize(word string, count int64) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

// CountNoun formats a count followed by the matching noun form ("1 file", "3 files").
func CountNoun(count int64, word string) string {
	return fmt.Sprintf("%d %s", count, Pluralize(word, count))
}

// Truncate shortens s to at most maxLen runes, ending it with "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// NormalizeName trims surrounding whitespace from a user-entered entity name.
// An empty result means the input should be ignored.
func NormalizeName(name string) string {
	return stdstrings.TrimSpace(name)
}
