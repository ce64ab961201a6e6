// Package pattern turns a channel name into the set of lowercase text
// variants the matcher searches playlist titles for: separator variants,
// quality suffixes, Cyrillic/Latin tv swaps and a transliterated form.
package pattern

import (
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// minPatternLen filters out degenerate patterns. One-character patterns match
// practically every title and flood the pipeline with false positives.
const minPatternLen = 2

// qualitySuffixes are appended to the literal name; real playlists routinely
// tag the quality tier into the display title.
var qualitySuffixes = []string{"hd", "fhd", "1080p", "720p", "4k"}

// fillerWords are stripped to produce a shorter variant ("Канал Дождь" should
// also match plain "Дождь").
var fillerWords = []string{"канал", "channel"}

// Generate returns the deduplicated, sorted set of search patterns for name.
// Always includes at least the literal lowercase form when it passes the
// length filter; an empty or single-rune name yields only what survives.
func Generate(name string) []string {
	base := strings.ToLower(strings.TrimSpace(name))
	if base == "" {
		return nil
	}

	set := map[string]struct{}{}
	add := func(p string) {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= minPatternLen {
			set[p] = struct{}{}
		}
	}

	add(base)
	for _, suffix := range qualitySuffixes {
		add(base + " " + suffix)
		// The name itself may carry a quality tag ("Первый HD"); the bare
		// name must match too.
		if strings.HasSuffix(base, " "+suffix) {
			add(strings.TrimSuffix(base, " "+suffix))
		}
	}
	for _, sep := range []string{"", ".", "-", "_"} {
		add(strings.ReplaceAll(base, " ", sep))
	}
	add(strings.ReplaceAll(base, "тв", "tv"))
	add(strings.ReplaceAll(base, "tv", "тв"))
	add(base + " tv")
	add(base + " тв")

	for _, filler := range fillerWords {
		if strings.Contains(base, filler) {
			add(strings.TrimSpace(strings.ReplaceAll(base, filler, "")))
		}
	}

	// ASCII transliteration hint for Cyrillic names ("первый" → "pervyi"):
	// many aggregator playlists label Russian channels in Latin script.
	if ascii := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(base))); ascii != base {
		add(ascii)
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
