// Package verify runs liveness checks on discovered candidates. Verdicts are
// per-candidate and never abort the batch: a dead stream is a "not working"
// result, not an error. Probes for independent candidates run concurrently on
// a bounded pool.
package verify

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
)

const (
	defaultWorkers     = 3
	minContentLength   = 1 << 20 // generic URLs need at least this many bytes
	stableScoreFloor   = 7
	defaultProbeWindow = 8 * time.Second
)

// Verifier probes candidates and produces verified streams.
type Verifier struct {
	Client  *http.Client
	Policy  httpclient.RetryPolicy
	Workers int // pool size, clamped to 2..5

	// DeepProbe enables the external media probe for manifest URLs when the
	// tool is installed. A probe failure falls back to the HTTP verdict.
	DeepProbe        bool
	DeepProbeTimeout time.Duration

	Cache    Cache
	CacheTTL time.Duration
}

// New returns a Verifier with defaults filled in. The cache starts empty;
// assign one loaded from disk to carry results across runs.
func New() *Verifier {
	return &Verifier{
		Client:           httpclient.Default(),
		Policy:           httpclient.QuickRetryPolicy,
		Workers:          defaultWorkers,
		DeepProbe:        true,
		DeepProbeTimeout: defaultProbeWindow,
		Cache:            make(Cache),
		CacheTTL:         4 * time.Hour,
	}
}

func (v *Verifier) workers() int {
	w := v.Workers
	if w < 2 {
		return 2
	}
	if w > 5 {
		return 5
	}
	return w
}

// VerifyAll probes every candidate and returns the verdicts plus merged
// request statistics. Fresh cache hits skip the network probe entirely; all
// new verdicts are recorded into the cache after the pool drains.
func (v *Verifier) VerifyAll(ctx context.Context, candidates []catalog.Candidate) ([]catalog.VerifiedStream, httpclient.Stats) {
	if len(candidates) == 0 {
		return nil, httpclient.Stats{}
	}

	results := make([]catalog.VerifiedStream, len(candidates))
	var toProbe []int
	for i, cand := range candidates {
		if verdict, fresh := v.Cache.Fresh(cand.URL, v.CacheTTL); fresh {
			results[i] = verdict.apply(cand)
			continue
		}
		toProbe = append(toProbe, i)
	}

	type probed struct {
		idx    int
		stream catalog.VerifiedStream
		stats  httpclient.Stats
	}

	sem := make(chan struct{}, v.workers())
	out := make(chan probed, len(toProbe))
	var wg sync.WaitGroup
	for _, idx := range toProbe {
		idx := idx
		cand := candidates[idx]
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out <- probed{idx: idx, stream: notWorking(cand, "cancelled")}
				return
			}
			defer func() { <-sem }()
			var stats httpclient.Stats
			out <- probed{idx: idx, stream: v.verifyOne(ctx, cand, &stats), stats: stats}
		}()
	}
	wg.Wait()
	close(out)

	var total httpclient.Stats
	for p := range out {
		results[p.idx] = p.stream
		total.Merge(p.stats)
		// A cancelled probe is not a verdict; caching it would suppress the
		// real probe for a whole TTL.
		if p.stream.Status != "cancelled" {
			v.Cache.Record(p.stream)
		}
	}
	return results, total
}

// verifyOne dispatches a single candidate by URL shape.
func (v *Verifier) verifyOne(ctx context.Context, cand catalog.Candidate, stats *httpclient.Stats) catalog.VerifiedStream {
	if isVideoPlatformURL(cand.URL) {
		return catalog.VerifiedStream{
			Candidate: cand,
			Working:   true,
			Status:    "video platform",
			Quality:   catalog.QualityHigh,
			Stable:    true,
		}
	}

	path := strings.ToLower(urlPath(cand.URL))
	var verdict catalog.VerifiedStream
	switch {
	case strings.HasSuffix(path, ".m3u8"):
		verdict = v.verifyManifest(ctx, cand, stats)
	case strings.HasSuffix(path, ".m3u"):
		verdict = v.verifyPlaylistFile(ctx, cand, stats)
	default:
		verdict = v.verifyGeneric(ctx, cand, stats)
	}

	if verdict.Working && v.DeepProbe && strings.HasSuffix(path, ".m3u8") {
		if info, err := runFFprobe(ctx, cand.URL, v.DeepProbeTimeout); err == nil {
			verdict.Probe = info
			verdict.Status = "deeply verified"
			if info.Height >= 1080 {
				verdict.Quality = catalog.QualityHigh
			}
		} else {
			log.WithError(err).WithField("url", cand.URL).Debug("deep probe failed, keeping http verdict")
		}
	}
	return verdict
}

// verifyManifest fetches an HLS manifest and requires #EXTM3U content. Master
// playlists get their first variant resolved and HEAD-checked too.
func (v *Verifier) verifyManifest(ctx context.Context, cand catalog.Candidate, stats *httpclient.Stats) catalog.VerifiedStream {
	resp, err := httpclient.Get(ctx, v.Client, cand.URL, v.Policy, stats)
	if err != nil {
		return notWorking(cand, "unreachable")
	}
	content, err := httpclient.ReadBody(resp)
	if err != nil {
		return notWorking(cand, "body unreadable")
	}
	if !strings.Contains(content, "#EXTM3U") {
		return notWorking(cand, "not an hls manifest")
	}

	if variant := firstVariantURI(content, cand.URL); variant != "" {
		vr, err := httpclient.Head(ctx, v.Client, variant, v.Policy, stats)
		if err != nil {
			return notWorking(cand, "variant unreachable")
		}
		vr.Body.Close()
	}

	quality := catalog.QualityMedium
	if cand.QualityScore >= 15 {
		quality = catalog.QualityHigh
	}
	return catalog.VerifiedStream{
		Candidate: cand,
		Working:   true,
		Status:    "hls reachable",
		Quality:   quality,
		Stable:    cand.StabilityScore >= stableScoreFloor,
	}
}

// verifyPlaylistFile fetches a plain .m3u and requires the playlist header.
func (v *Verifier) verifyPlaylistFile(ctx context.Context, cand catalog.Candidate, stats *httpclient.Stats) catalog.VerifiedStream {
	resp, err := httpclient.Get(ctx, v.Client, cand.URL, v.Policy, stats)
	if err != nil {
		return notWorking(cand, "unreachable")
	}
	content, err := httpclient.ReadBody(resp)
	if err != nil {
		return notWorking(cand, "body unreadable")
	}
	if !strings.HasPrefix(strings.TrimSpace(content), "#EXTM3U") {
		return notWorking(cand, "not a playlist")
	}
	return catalog.VerifiedStream{
		Candidate: cand,
		Working:   true,
		Status:    "playlist reachable",
		Quality:   catalog.QualityMedium,
		Stable:    cand.StabilityScore >= stableScoreFloor,
	}
}

// verifyGeneric HEAD-checks an arbitrary URL: accepted only on a media-ish
// content type or a body large enough to plausibly be a stream.
func (v *Verifier) verifyGeneric(ctx context.Context, cand catalog.Candidate, stats *httpclient.Stats) catalog.VerifiedStream {
	resp, err := httpclient.Head(ctx, v.Client, cand.URL, v.Policy, stats)
	if err != nil {
		return notWorking(cand, "unreachable")
	}
	resp.Body.Close()

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	length, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	mediaType := strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") ||
		strings.Contains(ct, "mpegurl") || strings.Contains(ct, "octet-stream")
	if !mediaType && length < minContentLength {
		return notWorking(cand, "not a media payload")
	}
	return catalog.VerifiedStream{
		Candidate: cand,
		Working:   true,
		Status:    "media reachable",
		Quality:   catalog.QualityLow,
		Stable:    cand.StabilityScore >= stableScoreFloor,
	}
}

func notWorking(cand catalog.Candidate, status string) catalog.VerifiedStream {
	return catalog.VerifiedStream{Candidate: cand, Working: false, Status: status, Quality: catalog.QualityNone}
}

// firstVariantURI returns the first sub-playlist URI of a master manifest,
// resolved against the manifest URL, or "" for media playlists.
func firstVariantURI(content, manifestURL string) string {
	if !strings.Contains(content, "#EXT-X-STREAM-INF") {
		return ""
	}
	base, baseErr := url.Parse(manifestURL)
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(nil, 64*1024)
	expectURI := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF"):
			expectURI = true
		case expectURI && line != "" && !strings.HasPrefix(line, "#"):
			if strings.HasPrefix(line, "http") {
				return line
			}
			if baseErr != nil {
				return ""
			}
			rel, err := url.Parse(line)
			if err != nil {
				return ""
			}
			return base.ResolveReference(rel).String()
		}
	}
	return ""
}

func isVideoPlatformURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "youtube.com/watch") ||
		strings.Contains(lower, "youtu.be/") ||
		strings.Contains(lower, "rutube.ru/video")
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
