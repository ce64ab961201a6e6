package collector

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
	"github.com/streamscan/stream-scan/internal/score"
)

const (
	searchResultCap = 3
	videoResultCap  = 5
)

var (
	searchStreamRe = regexp.MustCompile(`https?://[^\s"<>]+\.m3u8?`)
	youtubeIDRe    = regexp.MustCompile(`"videoId":"([a-zA-Z0-9_-]{11})"`)
	rutubeHrefRe   = regexp.MustCompile(`/video/([a-f0-9]{32})`)
)

// collectFromEngine dispatches a search-engine host to its extractor. Every
// engine query waits on the shared limiter so bursts of channels do not
// hammer the engines.
func (c *Collector) collectFromEngine(ctx context.Context, engineURL, channelName string, stats *httpclient.Stats) []catalog.Candidate {
	if err := c.limiter().Wait(ctx); err != nil {
		return nil
	}
	host := hostOf(engineURL)
	switch {
	case strings.Contains(host, "youtube.com"):
		return c.searchYouTube(ctx, channelName, stats)
	case strings.Contains(host, "rutube.ru"):
		return c.searchRuTube(ctx, channelName, stats)
	default:
		return c.searchWeb(ctx, engineURL, channelName, stats)
	}
}

// searchWeb runs a text query against Yandex or Google and harvests any
// stream URLs appearing in the results page.
func (c *Collector) searchWeb(ctx context.Context, engineURL, channelName string, stats *httpclient.Stats) []catalog.Candidate {
	query := url.QueryEscape(channelName + " m3u8 live stream")
	var searchURL string
	if strings.Contains(hostOf(engineURL), "google") {
		searchURL = "https://www.google.com/search?q=" + query
	} else {
		searchURL = "https://yandex.ru/search/?text=" + query
	}

	content, ok := c.fetchPage(ctx, searchURL, stats)
	if !ok {
		return nil
	}

	var out []catalog.Candidate
	seen := make(map[string]struct{})
	for _, u := range searchStreamRe.FindAllString(content, -1) {
		if len(out) >= searchResultCap {
			break
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		meta := catalog.StreamMetadata{Name: channelName}
		out = append(out, catalog.Candidate{
			Channel:        channelName,
			URL:            u,
			Source:         catalog.SourceSearch,
			Meta:           meta,
			StabilityScore: score.Stability(meta, u),
		})
	}
	return out
}

// searchYouTube queries the results page and pulls video IDs out of the
// embedded JSON. Live player URLs are resolved later during verification.
func (c *Collector) searchYouTube(ctx context.Context, channelName string, stats *httpclient.Stats) []catalog.Candidate {
	query := url.QueryEscape(channelName + " прямой эфир live")
	searchURL := "https://www.youtube.com/results?search_query=" + query

	content, ok := c.fetchPage(ctx, searchURL, stats)
	if !ok {
		return nil
	}

	var out []catalog.Candidate
	seen := make(map[string]struct{})
	for _, m := range youtubeIDRe.FindAllStringSubmatch(content, -1) {
		if len(out) >= videoResultCap {
			break
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		u := "https://www.youtube.com/watch?v=" + id
		meta := catalog.StreamMetadata{Name: channelName}
		out = append(out, catalog.Candidate{
			Channel:        channelName,
			URL:            u,
			Source:         catalog.SourceVideo,
			Meta:           meta,
			StabilityScore: score.Stability(meta, u),
		})
	}
	return out
}

// searchRuTube tries the JSON search API first and falls back to scraping
// video hrefs from the HTML results page.
func (c *Collector) searchRuTube(ctx context.Context, channelName string, stats *httpclient.Stats) []catalog.Candidate {
	apiURL := "https://rutube.ru/api/search/video/?query=" + url.QueryEscape(channelName+" прямой эфир")

	ids := make([]string, 0, videoResultCap)
	if content, ok := c.fetchPage(ctx, apiURL, stats); ok {
		for _, m := range rutubeAPIIDRe.FindAllStringSubmatch(content, -1) {
			if len(ids) >= videoResultCap {
				break
			}
			ids = append(ids, m[1])
		}
	}
	if len(ids) == 0 {
		pageURL := "https://rutube.ru/search/?query=" + url.QueryEscape(channelName)
		if content, ok := c.fetchPage(ctx, pageURL, stats); ok {
			seen := make(map[string]struct{})
			for _, m := range rutubeHrefRe.FindAllStringSubmatch(content, -1) {
				if len(ids) >= videoResultCap {
					break
				}
				if _, dup := seen[m[1]]; dup {
					continue
				}
				seen[m[1]] = struct{}{}
				ids = append(ids, m[1])
			}
		}
	}

	out := make([]catalog.Candidate, 0, len(ids))
	for _, id := range ids {
		u := fmt.Sprintf("https://rutube.ru/video/%s/", id)
		meta := catalog.StreamMetadata{Name: channelName}
		out = append(out, catalog.Candidate{
			Channel:        channelName,
			URL:            u,
			Source:         catalog.SourceVideo,
			Meta:           meta,
			StabilityScore: score.Stability(meta, u),
		})
	}
	return out
}

var rutubeAPIIDRe = regexp.MustCompile(`"id":\s*"([a-f0-9]{32})"`)

func (c *Collector) fetchPage(ctx context.Context, pageURL string, stats *httpclient.Stats) (string, bool) {
	resp, err := httpclient.Get(ctx, c.Client, pageURL, c.Policy, stats)
	if err != nil {
		log.WithError(err).WithField("url", pageURL).Debug("search fetch failed")
		return "", false
	}
	content, err := httpclient.ReadBody(resp)
	if err != nil {
		log.WithError(err).WithField("url", pageURL).Debug("search body unreadable")
		return "", false
	}
	return content, true
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
