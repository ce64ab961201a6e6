// Package match decides whether an extracted channel title denotes the
// requested channel. Three tiers, cheapest and strictest first: exact
// equality, word-boundary containment, then a fuzzy fallback with separator
// and tv/тв variants. Exact short-circuits before the permissive tiers run.
package match

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, replaces non-word characters with spaces and
// collapses whitespace. Applied to titles before any tier runs.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Matches reports whether title denotes the channel described by patterns.
// Patterns shorter than 2 runes never reach here (filtered by the pattern
// generator); length 2-3 patterns only ever match as plain substrings.
func Matches(title string, patterns []string) bool {
	title = Normalize(title)
	if title == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if title == p {
			return true
		}
		if wordBoundaryMatch(title, p) {
			return true
		}
		if fuzzyMatch(title, p) {
			return true
		}
	}
	return false
}

func wordBoundaryMatch(title, pattern string) bool {
	// \b is ASCII-oriented in RE2; spell the boundary out so Cyrillic
	// patterns get the same treatment.
	re, err := regexp.Compile(`(^|[\s.])` + regexp.QuoteMeta(pattern) + `($|[\s.])`)
	if err != nil {
		return false
	}
	return re.MatchString(title)
}

// fuzzyMatch tries separator-insensitive and tv/тв-swapped containment.
// Sub-4-rune patterns are too ambiguous for variants and only match as
// plain substrings.
func fuzzyMatch(title, pattern string) bool {
	if len([]rune(pattern)) < 4 {
		return strings.Contains(title, pattern)
	}
	variants := []string{
		pattern,
		strings.ReplaceAll(pattern, " ", ""),
		strings.ReplaceAll(pattern, " ", "."),
		strings.ReplaceAll(pattern, " ", "-"),
		strings.ReplaceAll(pattern, "тв", "tv"),
		strings.ReplaceAll(pattern, "tv", "тв"),
	}
	for _, v := range variants {
		if len([]rune(v)) > 2 && strings.Contains(title, v) {
			return true
		}
	}
	return false
}
