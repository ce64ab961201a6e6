// Package collector discovers candidate stream URLs for a channel across
// three independent source classes: aggregator playlists, configured site
// pages and search engines / video platforms. Every source is best-effort:
// one failing source never aborts the others, and the whole fan-out runs on
// a small bounded worker pool.
package collector

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
	"github.com/streamscan/stream-scan/internal/pattern"
)

// DefaultAggregators is the fixed set of aggregator playlists always
// queried, independent of the configured site list.
var DefaultAggregators = []string{
	"https://raw.githubusercontent.com/iptv-org/iptv/master/streams/ru.m3u",
	"https://iptv-org.github.io/iptv/categories/news.m3u",
	"https://iptv-org.github.io/iptv/categories/entertainment.m3u",
}

const (
	defaultMaxSites      = 20
	defaultMaxCandidates = 30
	perPlaylistCap       = 10
)

// Collector fans discovery out across the configured sources.
type Collector struct {
	Client        *http.Client
	Sites         []string // user-configured site/search URLs, in order
	Aggregators   []string // aggregator playlist URLs; DefaultAggregators when nil
	Policy        httpclient.RetryPolicy
	Workers       int // pool size, clamped to 2..5
	MaxSites      int
	MaxCandidates int

	// searchLimiter spaces search-engine queries; engines are the quickest
	// to serve a captcha wall when hammered.
	searchLimiter *rate.Limiter
	limiterOnce   sync.Once
}

// New returns a Collector with defaults filled in.
func New(sites []string) *Collector {
	return &Collector{
		Sites:         sites,
		Policy:        httpclient.DefaultRetryPolicy,
		Workers:       3,
		MaxSites:      defaultMaxSites,
		MaxCandidates: defaultMaxCandidates,
	}
}

func (c *Collector) limiter() *rate.Limiter {
	c.limiterOnce.Do(func() {
		if c.searchLimiter == nil {
			c.searchLimiter = rate.NewLimiter(rate.Limit(1), 2) // 1 query/s, burst 2
		}
	})
	return c.searchLimiter
}

func (c *Collector) workers() int {
	w := c.Workers
	if w < 2 {
		return 2
	}
	if w > 5 {
		return 5
	}
	return w
}

// sourceTask is one independent unit of the fan-out.
type sourceTask func(ctx context.Context, stats *httpclient.Stats) []catalog.Candidate

// Collect queries all sources for channelName and returns the deduplicated,
// scored, capped candidate set plus the merged request statistics. Individual
// source failures are logged and contribute nothing.
func (c *Collector) Collect(ctx context.Context, channelName string) ([]catalog.Candidate, httpclient.Stats) {
	patterns := pattern.Generate(channelName)
	if len(patterns) == 0 {
		return nil, httpclient.Stats{}
	}

	aggregators, scrapeSites, engines := c.classifySources()
	var tasks []sourceTask
	for _, u := range aggregators {
		u := u
		tasks = append(tasks, func(ctx context.Context, stats *httpclient.Stats) []catalog.Candidate {
			return c.collectFromPlaylist(ctx, u, channelName, patterns, stats)
		})
	}
	for _, u := range scrapeSites {
		u := u
		tasks = append(tasks, func(ctx context.Context, stats *httpclient.Stats) []catalog.Candidate {
			return c.collectFromSite(ctx, u, channelName, stats)
		})
	}
	for _, u := range engines {
		u := u
		tasks = append(tasks, func(ctx context.Context, stats *httpclient.Stats) []catalog.Candidate {
			return c.collectFromEngine(ctx, u, channelName, stats)
		})
	}

	type result struct {
		candidates []catalog.Candidate
		stats      httpclient.Stats
	}

	sem := make(chan struct{}, c.workers())
	results := make(chan result, len(tasks))
	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			// Each task owns its Stats; the reduction happens after join.
			var stats httpclient.Stats
			candidates := task(ctx, &stats)
			results <- result{candidates: candidates, stats: stats}
		}()
	}
	wg.Wait()
	close(results)

	var total httpclient.Stats
	var all []catalog.Candidate
	for r := range results {
		total.Merge(r.stats)
		all = append(all, r.candidates...)
	}

	all = dedupeByURL(all)
	sortCandidates(all)
	limit := c.MaxCandidates
	if limit <= 0 {
		limit = defaultMaxCandidates
	}
	if len(all) > limit {
		all = all[:limit]
	}
	log.WithField("channel", channelName).WithField("candidates", len(all)).
		WithField("requests", total.Requests).Debug("collection finished")
	return all, total
}

// classifySources splits the configured sites plus the fixed aggregators
// into the three source classes.
func (c *Collector) classifySources() (aggregators, scrapeSites, engines []string) {
	aggregators = c.Aggregators
	if aggregators == nil {
		aggregators = DefaultAggregators
	}

	maxSites := c.MaxSites
	if maxSites <= 0 {
		maxSites = defaultMaxSites
	}
	sites := c.Sites
	if len(sites) > maxSites {
		sites = sites[:maxSites]
	}
	for _, site := range sites {
		lower := strings.ToLower(site)
		switch {
		case isSearchEngine(lower):
			engines = append(engines, site)
		case isPlaylistSource(lower):
			for _, u := range canonicalPlaylistURLs(site) {
				aggregators = append(aggregators, u)
			}
		default:
			scrapeSites = append(scrapeSites, site)
		}
	}
	return aggregators, scrapeSites, engines
}

func isSearchEngine(lowerURL string) bool {
	for _, engine := range []string{"yandex.ru", "google.com", "bing.com", "duckduckgo.com", "youtube.com", "rutube.ru"} {
		if strings.Contains(lowerURL, engine) {
			return true
		}
	}
	return false
}

func isPlaylistSource(lowerURL string) bool {
	for _, kw := range []string{".m3u", "iptv", "github.com/iptv", "raw.githubusercontent.com", "iptv-org"} {
		if strings.Contains(lowerURL, kw) {
			return true
		}
	}
	return false
}

func dedupeByURL(candidates []catalog.Candidate) []catalog.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, cand := range candidates {
		if _, dup := seen[cand.URL]; dup {
			continue
		}
		seen[cand.URL] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// sortCandidates orders by stability then quality, descending, so the cap
// keeps the most promising candidates.
func sortCandidates(candidates []catalog.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].StabilityScore != candidates[j].StabilityScore {
			return candidates[i].StabilityScore > candidates[j].StabilityScore
		}
		return candidates[i].QualityScore > candidates[j].QualityScore
	})
}
