package models

import "strings"

// NormalizeKey canonicalizes an item key for uniqueness checks:
// surrounding whitespace is trimmed and letters are upper-cased.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
