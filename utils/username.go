package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername lowercases and strips accent marks so lookups by
// username are case and accent insensitive. Stored usernames go through
// the same function, so equality on the normalized form is exact.
func NormalizeUsername(name string) string {
	t := norm.NFD.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue // remove accent marks
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
