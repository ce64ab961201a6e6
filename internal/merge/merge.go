// Package merge reconciles newly verified streams for a channel with the
// streams already persisted for it. The rules keep discovery idempotent:
// repeated runs with identical results never accumulate duplicates, and a
// run that finds nothing never destroys known-good state.
package merge

import (
	"sort"

	"github.com/streamscan/stream-scan/internal/catalog"
)

// DefaultCap bounds how many streams a channel keeps after a merge.
const DefaultCap = 5

// Streams merges old and new stream lists, capped at max (DefaultCap when
// max <= 0). Priority: every new working stream first, deduplicated by URL;
// then old working+stable streams whose URL is not already present. When new
// is empty, old is returned unchanged: a failed discovery run is not a
// deletion signal.
func Streams(old, new []catalog.VerifiedStream, max int) []catalog.VerifiedStream {
	if max <= 0 {
		max = DefaultCap
	}
	if len(new) == 0 {
		return old
	}

	seen := make(map[string]struct{}, len(new)+len(old))
	merged := make([]catalog.VerifiedStream, 0, len(new)+len(old))

	for _, s := range new {
		if !s.Working {
			continue
		}
		if _, dup := seen[s.URL]; dup {
			continue
		}
		seen[s.URL] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range old {
		if !s.Working || !s.Stable {
			continue
		}
		if _, dup := seen[s.URL]; dup {
			continue
		}
		seen[s.URL] = struct{}{}
		merged = append(merged, s)
	}

	if len(merged) > max {
		// Favour stable entries when trimming to the cap.
		sort.SliceStable(merged, func(i, j int) bool {
			if merged[i].Stable != merged[j].Stable {
				return merged[i].Stable
			}
			return false
		})
		merged = merged[:max]
	}
	return merged
}

// SortByScore orders streams by stability score then quality score,
// descending. Re-establishes a deterministic order after concurrent
// verification joins.
func SortByScore(streams []catalog.VerifiedStream) {
	sort.SliceStable(streams, func(i, j int) bool {
		if streams[i].StabilityScore != streams[j].StabilityScore {
			return streams[i].StabilityScore > streams[j].StabilityScore
		}
		return streams[i].QualityScore > streams[j].QualityScore
	})
}
