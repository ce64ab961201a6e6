// Package score assigns the two heuristic scores a candidate carries into
// verification: a quality score from resolution/bitrate hints in the title
// and a stability score from source-domain reputation. Pure functions of
// metadata and URL, no network access.
package score

import (
	"strings"

	"github.com/streamscan/stream-scan/internal/catalog"
)

// qualityPoints: additive points per keyword found in the title.
var qualityPoints = map[string]int{
	"4k":     20,
	"uhd":    20,
	"fhd":    15,
	"fullhd": 15,
	"1080p":  15,
	"hd":     10,
	"720p":   10,
}

// stableDomains: reputation-listed hosts that tend to keep URLs alive.
var stableDomains = map[string]int{
	"github.com":                3,
	"raw.githubusercontent.com": 3,
	"iptv-org.github.io":        3,
	"youtube.com":               2,
	"youtu.be":                  2,
}

// unstableKeywords: title markers that predict a short-lived stream.
var unstableKeywords = map[string]int{
	"test":      -3,
	"тест":      -3,
	"temp":      -2,
	"localhost": -5,
}

// lowQualityIndicators disqualify a candidate outright before scoring.
var lowQualityIndicators = []string{
	"test", "тест", "demo", "демо", "sample", "пример",
	"low", "низк", "bad", "плох", "fake", "фейк",
	"offline", "оффлайн", "not working", "не работает",
}

// Quality returns the additive quality score for the metadata: resolution
// keywords in the title plus small bonuses for a logo and an EPG id.
func Quality(meta catalog.StreamMetadata) int {
	name := strings.ToLower(meta.Name)
	s := 0
	for kw, points := range qualityPoints {
		if strings.Contains(name, kw) {
			s += points
		}
	}
	if meta.Logo != "" {
		s += 5
	}
	if meta.TVGID != "" {
		s += 3
	}
	return s
}

// Stability returns the 1..10 stability score: baseline 5, domain reputation
// bonuses, keyword penalties, clamped.
func Stability(meta catalog.StreamMetadata, url string) int {
	s := 5
	urlLower := strings.ToLower(url)
	name := strings.ToLower(meta.Name)
	for domain, points := range stableDomains {
		if strings.Contains(urlLower, domain) {
			s += points
		}
	}
	for kw, penalty := range unstableKeywords {
		if strings.Contains(name, kw) {
			s += penalty
		}
	}
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

// IsHighQuality reports whether the candidate passes the low-quality filter.
// Titles carrying any disqualifying marker are rejected before verification
// so the worker pool never wastes a probe on them.
func IsHighQuality(meta catalog.StreamMetadata) bool {
	name := strings.ToLower(meta.Name)
	for _, indicator := range lowQualityIndicators {
		if strings.Contains(name, indicator) {
			return false
		}
	}
	return true
}
