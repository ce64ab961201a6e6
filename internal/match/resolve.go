package match

import (
	"sort"
	"strings"
)

// ResolvedName is one ranked candidate for which existing channel a
// user-supplied name refers to. The caller (CLI or GUI) decides how to act
// on ambiguity; this package only ranks.
type ResolvedName struct {
	Name       string
	Confidence float64 // 1.0 exact .. 0 no relation
}

// Resolve ranks existing channel names by how plausibly query refers to them.
// Returns only names with non-zero confidence, best first.
func Resolve(query string, existing []string) []ResolvedName {
	nq := Normalize(query)
	if nq == "" {
		return nil
	}
	var out []ResolvedName
	for _, name := range existing {
		c := confidence(nq, Normalize(name))
		if c > 0 {
			out = append(out, ResolvedName{Name: name, Confidence: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func confidence(query, name string) float64 {
	if name == "" {
		return 0
	}
	if query == name {
		return 1.0
	}
	compact := func(s string) string { return strings.ReplaceAll(s, " ", "") }
	if compact(query) == compact(name) {
		return 0.95
	}
	// Containment either way, scaled by how much of the longer string the
	// shorter one covers.
	if strings.Contains(name, query) || strings.Contains(query, name) {
		shorter, longer := len([]rune(query)), len([]rune(name))
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 0.5 + 0.4*float64(shorter)/float64(longer)
	}
	if fuzzyMatch(name, query) || fuzzyMatch(query, name) {
		return 0.4
	}
	return 0
}
