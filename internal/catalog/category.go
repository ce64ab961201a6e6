package catalog

import "strings"

// DefaultGroup is the fallback category for channels the table doesn't know.
const DefaultGroup = "Общие"

// categoryKeywords maps title substrings to a category when the lookup table
// has no entry at all. Checked after exact and substring table matches.
var categoryKeywords = map[string]string{
	"спорт":  "Спортивные",
	"sport":  "Спортивные",
	"news":   "Новости",
	"новост": "Новости",
	"кино":   "Фильмы",
	"movie":  "Фильмы",
	"cinema": "Фильмы",
	"музык":  "Музыка",
	"music":  "Музыка",
	"дет":    "Детские",
	"kids":   "Детские",
}

// Categories is the channel-name → category lookup table loaded by the
// configuration collaborator. Resolution order: exact match, substring match
// in either direction, keyword heuristics, DefaultGroup.
type Categories map[string]string

// Resolve returns the category for channelName. Never returns "".
func (c Categories) Resolve(channelName string) string {
	if cat, ok := c[channelName]; ok {
		return cat
	}
	for pattern, cat := range c {
		if strings.Contains(channelName, pattern) || strings.Contains(pattern, channelName) {
			return cat
		}
	}
	lower := strings.ToLower(channelName)
	for kw, cat := range categoryKeywords {
		if strings.Contains(lower, kw) {
			return cat
		}
	}
	return DefaultGroup
}
