package collector

import (
	"bufio"
	"context"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
	"github.com/streamscan/stream-scan/internal/match"
	"github.com/streamscan/stream-scan/internal/playlist"
	"github.com/streamscan/stream-scan/internal/score"
)

// iptvOrgCategories expands an iptv-org.github.io seed into per-category
// playlists, mirroring the aggregator's published layout.
var iptvOrgCategories = []string{"news", "sports", "entertainment", "kids", "music", "movies"}

// canonicalPlaylistURLs resolves a configured playlist-source URL into the
// concrete playlist documents to download. GitHub /blob/ links become raw
// links; iptv-org.github.io seeds expand to category playlists.
func canonicalPlaylistURLs(source string) []string {
	lower := strings.ToLower(source)
	switch {
	case strings.HasSuffix(lower, ".m3u"), strings.HasSuffix(lower, ".m3u8"):
		if strings.Contains(lower, "github.com") && strings.Contains(lower, "/blob/") {
			raw := strings.Replace(source, "github.com", "raw.githubusercontent.com", 1)
			return []string{strings.Replace(raw, "/blob/", "/", 1)}
		}
		return []string{source}
	case strings.Contains(lower, "iptv-org.github.io"):
		urls := make([]string, 0, len(iptvOrgCategories))
		for _, cat := range iptvOrgCategories {
			urls = append(urls, "https://iptv-org.github.io/iptv/categories/"+cat+".m3u")
		}
		return urls
	case strings.Contains(lower, "raw.githubusercontent.com"):
		return []string{source}
	default:
		// Not a direct playlist; the scraper class handles it instead.
		return nil
	}
}

// collectFromPlaylist downloads one aggregator playlist and extracts entries
// whose title matches the channel patterns. Parse failures and unreachable
// sources contribute zero candidates.
func (c *Collector) collectFromPlaylist(ctx context.Context, playlistURL, channelName string, patterns []string, stats *httpclient.Stats) []catalog.Candidate {
	resp, err := httpclient.Get(ctx, c.Client, playlistURL, c.Policy, stats)
	if err != nil {
		log.WithError(err).WithField("url", playlistURL).Debug("aggregator unreachable")
		return nil
	}
	content, err := httpclient.ReadBody(resp)
	if err != nil {
		log.WithError(err).WithField("url", playlistURL).Debug("aggregator body unreadable")
		return nil
	}
	return extractFromPlaylist(content, channelName, patterns)
}

// extractFromPlaylist walks EXTINF/URL record pairs and keeps entries whose
// display title matches the patterns and passes the low-quality filter.
// Results are scored, sorted and capped.
func extractFromPlaylist(content, channelName string, patterns []string) []catalog.Candidate {
	var out []catalog.Candidate
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(nil, 1<<20)

	var rec *playlist.Record
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			r := playlist.ParseEXTINF(line)
			rec = &r
		case strings.HasPrefix(line, "#"):
			continue
		case rec != nil && strings.HasPrefix(line, "http"):
			meta := rec.Meta
			rec = nil
			if !match.Matches(meta.Name, patterns) {
				continue
			}
			if !score.IsHighQuality(meta) {
				continue
			}
			out = append(out, catalog.Candidate{
				Channel:        channelName,
				URL:            line,
				Source:         catalog.SourcePlaylist,
				Meta:           meta,
				QualityScore:   score.Quality(meta),
				StabilityScore: score.Stability(meta, line),
			})
		default:
			rec = nil
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StabilityScore != out[j].StabilityScore {
			return out[i].StabilityScore > out[j].StabilityScore
		}
		return out[i].QualityScore > out[j].QualityScore
	})
	if len(out) > perPlaylistCap {
		out = out[:perPlaylistCap]
	}
	return out
}
