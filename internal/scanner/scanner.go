// Package scanner orchestrates one discovery run: collect candidates, verify
// them, merge with persisted state and save. Source and verification
// failures stay inside the run; only persistence failures surface as errors.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/collector"
	"github.com/streamscan/stream-scan/internal/config"
	"github.com/streamscan/stream-scan/internal/httpclient"
	"github.com/streamscan/stream-scan/internal/iptvorg"
	"github.com/streamscan/stream-scan/internal/merge"
	"github.com/streamscan/stream-scan/internal/metrics"
	"github.com/streamscan/stream-scan/internal/playlist"
	"github.com/streamscan/stream-scan/internal/verify"
)

// ErrNoStreams is returned when discovery finds nothing for a channel that
// has no prior streams either.
var ErrNoStreams = errors.New("no working streams found")

// Scanner ties the pipeline stages together around one playlist store.
type Scanner struct {
	Store      *playlist.Store
	Collector  *collector.Collector
	Verifier   *verify.Verifier
	Categories catalog.Categories
	ChannelDB  *iptvorg.DB // optional tvg-id/logo enrichment; nil disables
	MergeCap   int

	cachePath string
}

// RunResult summarizes one channel's discovery run.
type RunResult struct {
	Channel    string
	Candidates int
	Working    int
	Kept       int
	Preserved  bool // prior streams kept because discovery found nothing new
	Stats      httpclient.Stats
}

// New wires a Scanner from configuration: site list, category table, probe
// cache and the playlist store.
func New(cfg *config.Config) (*Scanner, error) {
	sites, err := cfg.LoadSites()
	if err != nil {
		return nil, fmt.Errorf("scanner: load sites: %w", err)
	}
	categories, err := cfg.LoadCategories()
	if err != nil {
		return nil, fmt.Errorf("scanner: load categories: %w", err)
	}

	col := collector.New(sites)
	col.Client = httpclient.WithTimeout(cfg.RequestTimeout)
	col.Workers = cfg.Workers
	col.MaxSites = cfg.MaxSites
	col.MaxCandidates = cfg.MaxCandidates
	col.Policy.MaxAttempts = cfg.MaxRetries

	ver := verify.New()
	ver.Client = col.Client
	ver.Workers = cfg.Workers
	ver.DeepProbe = cfg.DeepProbe
	ver.DeepProbeTimeout = cfg.DeepProbeTimeout
	ver.Cache = verify.LoadCache(cfg.ProbeCacheFile)
	ver.CacheTTL = cfg.ProbeCacheTTL

	db, err := iptvorg.Load(cfg.IPTVOrgDBFile)
	if err != nil {
		log.WithError(err).WithField("path", cfg.IPTVOrgDBFile).Warn("channel db unreadable, enrichment disabled")
		db = nil
	}

	return &Scanner{
		Store:      playlist.NewStore(cfg.PlaylistPath),
		Collector:  col,
		Verifier:   ver,
		Categories: categories,
		ChannelDB:  db,
		MergeCap:   cfg.MergeCap,
		cachePath:  cfg.ProbeCacheFile,
	}, nil
}

// DiscoverAndUpdate runs the full pipeline for one channel and persists the
// merged result. A run that finds nothing while prior streams exist succeeds
// with the old state preserved; finding nothing for an unknown channel is
// ErrNoStreams.
func (s *Scanner) DiscoverAndUpdate(ctx context.Context, name string) (*RunResult, error) {
	channels, err := s.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("scanner: load playlist: %w", err)
	}
	resolved := resolveChannelName(name, channels)

	res, err := s.runChannel(ctx, resolved, channels[resolved])
	if err != nil {
		metrics.DiscoveryRuns.WithLabelValues("failed").Inc()
		return nil, err
	}
	if res.Preserved {
		metrics.DiscoveryRuns.WithLabelValues("preserved").Inc()
		return &res.RunResult, nil
	}

	channels[resolved] = res.streams
	if err := s.Store.Save(channels); err != nil {
		metrics.DiscoveryRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("scanner: save playlist: %w", err)
	}
	s.saveCache()
	s.updateStoreGauges(channels)
	metrics.DiscoveryRuns.WithLabelValues("ok").Inc()
	return &res.RunResult, nil
}

// RefreshAll re-runs discovery for every persisted channel. Channels whose
// refresh finds nothing keep their old streams; removal happens only through
// RemoveChannel.
func (s *Scanner) RefreshAll(ctx context.Context) ([]RunResult, error) {
	channels, err := s.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("scanner: load playlist: %w", err)
	}

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]RunResult, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res, err := s.runChannel(ctx, name, channels[name])
		if err != nil {
			// Refresh never drops a channel on a barren run.
			log.WithError(err).WithField("channel", name).Warn("refresh found nothing, keeping old streams")
			results = append(results, RunResult{Channel: name, Kept: len(channels[name]), Preserved: true})
			continue
		}
		if !res.Preserved {
			channels[name] = res.streams
		}
		results = append(results, res.RunResult)
	}

	if err := s.Store.Save(channels); err != nil {
		return results, fmt.Errorf("scanner: save playlist: %w", err)
	}
	s.saveCache()
	s.updateStoreGauges(channels)
	return results, nil
}

// RemoveChannel deletes a channel and all its streams. This is the only
// deletion path; discovery runs never remove state.
func (s *Scanner) RemoveChannel(name string) error {
	channels, err := s.Store.Load()
	if err != nil {
		return fmt.Errorf("scanner: load playlist: %w", err)
	}
	resolved := resolveChannelName(name, channels)
	if _, ok := channels[resolved]; !ok {
		return fmt.Errorf("scanner: channel %q not found", name)
	}
	delete(channels, resolved)
	if err := s.Store.Save(channels); err != nil {
		return fmt.Errorf("scanner: save playlist: %w", err)
	}
	s.updateStoreGauges(channels)
	return nil
}

// Totals summarizes the persisted playlist.
type Totals struct {
	Channels int
	Streams  int
	Stable   int
	Groups   map[string]int
}

// Stats reports totals over the persisted state.
func (s *Scanner) Stats() (*Totals, error) {
	channels, err := s.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("scanner: load playlist: %w", err)
	}
	t := &Totals{Channels: len(channels), Groups: make(map[string]int)}
	for _, streams := range channels {
		t.Streams += len(streams)
		for _, st := range streams {
			if st.Stable {
				t.Stable++
			}
			group := st.Meta.Group
			if group == "" {
				group = catalog.DefaultGroup
			}
			t.Groups[group]++
		}
	}
	return t, nil
}

// runResult carries the merged streams alongside the public summary.
type runResult struct {
	RunResult
	streams []catalog.VerifiedStream
}

func (s *Scanner) runChannel(ctx context.Context, name string, old []catalog.VerifiedStream) (*runResult, error) {
	candidates, stats := s.Collector.Collect(ctx, name)
	for _, cand := range candidates {
		metrics.CandidatesFound.WithLabelValues(string(cand.Source)).Inc()
	}

	verified, vstats := s.Verifier.VerifyAll(ctx, candidates)
	stats.Merge(vstats)
	recordHTTPStats(stats)

	var working []catalog.VerifiedStream
	for _, st := range verified {
		if st.Working {
			metrics.VerificationResults.WithLabelValues("working").Inc()
			working = append(working, st)
		} else {
			metrics.VerificationResults.WithLabelValues("dead").Inc()
		}
	}

	res := &runResult{RunResult: RunResult{
		Channel:    name,
		Candidates: len(candidates),
		Working:    len(working),
		Stats:      stats,
	}}

	if len(working) == 0 {
		if len(old) > 0 {
			res.Kept = len(old)
			res.Preserved = true
			res.streams = old
			return res, nil
		}
		return nil, fmt.Errorf("scanner: channel %q: %w", name, ErrNoStreams)
	}

	merged := merge.Streams(old, working, s.MergeCap)
	s.applyIdentity(name, old, merged)
	res.Kept = len(merged)
	res.streams = merged
	return res, nil
}

// applyIdentity stamps the channel name and sticky group/tvg fields onto
// freshly discovered streams so a refresh never renames or regroups a
// channel that already has an identity.
func (s *Scanner) applyIdentity(name string, old, merged []catalog.VerifiedStream) {
	var group, tvgID, logo string
	if len(old) > 0 {
		group = old[0].Meta.Group
		tvgID = old[0].Meta.TVGID
		logo = old[0].Meta.Logo
	}
	if group == "" && s.Categories != nil {
		group = s.Categories.Resolve(name)
	}
	if (tvgID == "" || logo == "") && s.ChannelDB != nil {
		if ch := s.ChannelDB.Enrich(name); ch != nil {
			if tvgID == "" {
				tvgID = ch.ID
			}
			if logo == "" {
				logo = ch.Logo
			}
		}
	}
	for i := range merged {
		merged[i].Channel = name
		// The persisted display name is the canonical channel name, not the
		// source playlist's title; reload keys the channel map by it.
		merged[i].Meta.Name = name
		if merged[i].Meta.Group == "" {
			merged[i].Meta.Group = group
		}
		if merged[i].Meta.TVGID == "" {
			merged[i].Meta.TVGID = tvgID
		}
		if merged[i].Meta.Logo == "" {
			merged[i].Meta.Logo = logo
		}
	}
}

func (s *Scanner) saveCache() {
	if err := s.Verifier.Cache.Save(s.cachePath); err != nil {
		log.WithError(err).Warn("probe cache not saved")
	}
}

func (s *Scanner) updateStoreGauges(channels map[string][]catalog.VerifiedStream) {
	streams := 0
	for _, list := range channels {
		streams += len(list)
	}
	metrics.StoredChannels.Set(float64(len(channels)))
	metrics.StoredStreams.Set(float64(streams))
}

func recordHTTPStats(stats httpclient.Stats) {
	metrics.HTTPRequests.WithLabelValues("ok").Add(float64(stats.Successes))
	metrics.HTTPRequests.WithLabelValues("failed").Add(float64(stats.Failures))
}

// resolveChannelName maps a query to an existing channel key, matching
// case-insensitively, or returns the query unchanged for a new channel.
func resolveChannelName(name string, channels map[string][]catalog.VerifiedStream) string {
	if _, ok := channels[name]; ok {
		return name
	}
	for existing := range channels {
		if strings.EqualFold(existing, name) {
			return existing
		}
	}
	return name
}
