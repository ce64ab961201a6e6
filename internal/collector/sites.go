package collector

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
	"github.com/streamscan/stream-scan/internal/score"
)

const perSiteCap = 10

var (
	m3u8URLRe = regexp.MustCompile(`https?://[^\s"'<>]+\.m3u8`)
	m3uURLRe  = regexp.MustCompile(`https?://[^\s"'<>]+\.m3u\b`)
)

// collectFromSite fetches one configured page and extracts playlist links:
// absolute URLs anywhere in the body plus href attributes ending in a
// playlist extension, relative ones resolved against the page URL.
func (c *Collector) collectFromSite(ctx context.Context, siteURL, channelName string, stats *httpclient.Stats) []catalog.Candidate {
	resp, err := httpclient.Get(ctx, c.Client, siteURL, c.Policy, stats)
	if err != nil {
		log.WithError(err).WithField("url", siteURL).Debug("site unreachable")
		return nil
	}
	content, err := httpclient.ReadBody(resp)
	if err != nil {
		log.WithError(err).WithField("url", siteURL).Debug("site body unreadable")
		return nil
	}

	found := extractPlaylistLinks(content, siteURL)
	out := make([]catalog.Candidate, 0, len(found))
	for _, u := range found {
		meta := catalog.StreamMetadata{Name: channelName}
		out = append(out, catalog.Candidate{
			Channel:        channelName,
			URL:            u,
			Source:         catalog.SourceSite,
			Meta:           meta,
			StabilityScore: score.Stability(meta, u),
		})
	}
	return out
}

// extractPlaylistLinks finds .m3u/.m3u8 URLs in a page: raw-body regex for
// absolute links and a goquery pass over href attributes for relative ones.
// Deduplicated, capped per extension class.
func extractPlaylistLinks(content, pageURL string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if len(out) >= 2*perSiteCap {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for i, u := range m3u8URLRe.FindAllString(content, -1) {
		if i >= perSiteCap {
			break
		}
		add(u)
	}
	for i, u := range m3uURLRe.FindAllString(content, -1) {
		if i >= perSiteCap {
			break
		}
		add(u)
	}

	base, baseErr := url.Parse(pageURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return out
	}
	count := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".m3u") && !strings.HasSuffix(lower, ".m3u8") {
			return true
		}
		switch {
		case strings.HasPrefix(lower, "http"):
			add(href)
		case baseErr == nil:
			if rel, err := url.Parse(href); err == nil {
				add(base.ResolveReference(rel).String())
			}
		}
		count++
		return count < perSiteCap
	})
	return out
}
