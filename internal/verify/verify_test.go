package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamscan/stream-scan/internal/catalog"
	"github.com/streamscan/stream-scan/internal/httpclient"
)

func quickVerifier() *Verifier {
	v := New()
	v.Client = httpclient.WithTimeout(5 * time.Second)
	v.Policy = httpclient.RetryPolicy{
		MaxAttempts: 1,
		BaseTimeout: 5 * time.Second,
		MaxTimeout:  5 * time.Second,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	}
	v.DeepProbe = false
	return v
}

func candidateFor(url string) catalog.Candidate {
	return catalog.Candidate{Channel: "НТВ", URL: url, StabilityScore: 5}
}

func TestVerifyManifestMediaPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\n#EXTINF:10,\nseg0.ts\n"))
	}))
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/live.m3u8"), &stats)
	if !got.Working {
		t.Fatalf("Working = false, status %q", got.Status)
	}
	if got.Quality != catalog.QualityMedium {
		t.Errorf("Quality = %v, want medium", got.Quality)
	}
}

func TestVerifyManifestMasterResolvesVariant(t *testing.T) {
	var variantHit bool
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=2000000\nhigh/index.m3u8\n"))
	})
	mux.HandleFunc("/high/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		variantHit = true
		w.Write([]byte("#EXTM3U\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/master.m3u8"), &stats)
	if !got.Working {
		t.Fatalf("Working = false, status %q", got.Status)
	}
	if !variantHit {
		t.Error("variant sub-playlist never checked")
	}
}

func TestVerifyManifestRejectsNonHLS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>404 page pretending to be 200</html>"))
	}))
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/live.m3u8"), &stats)
	if got.Working {
		t.Fatal("accepted a non-manifest body")
	}
	if got.Quality != catalog.QualityNone {
		t.Errorf("Quality = %v, want none", got.Quality)
	}
}

func TestVerifyPlaylistFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXTINF:-1,НТВ\nhttp://x/ntv.m3u8\n"))
	}))
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/list.m3u"), &stats)
	if !got.Working || got.Status != "playlist reachable" {
		t.Fatalf("verdict = %+v", got)
	}
}

func TestVerifyGenericByContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp2t")
	}))
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/stream"), &stats)
	if !got.Working {
		t.Fatalf("media content-type rejected: %+v", got)
	}
}

func TestVerifyGenericRejectsSmallHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", "512")
	}))
	defer srv.Close()

	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor(srv.URL+"/page"), &stats)
	if got.Working {
		t.Fatal("accepted a small html page")
	}
}

func TestVerifyVideoPlatformSkipsProbe(t *testing.T) {
	v := quickVerifier()
	var stats httpclient.Stats
	got := v.verifyOne(context.Background(), candidateFor("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), &stats)
	if !got.Working || got.Quality != catalog.QualityHigh || !got.Stable {
		t.Fatalf("verdict = %+v", got)
	}
	if stats.Requests != 0 {
		t.Errorf("Requests = %d, want 0", stats.Requests)
	}
}

func TestVerifyAllBadCandidateDoesNotAbortBatch(t *testing.T) {
	srvGood := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXTINF:10,\nseg0.ts\n"))
	}))
	defer srvGood.Close()
	srvBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srvBad.Close()

	v := quickVerifier()
	got, _ := v.VerifyAll(context.Background(), []catalog.Candidate{
		candidateFor(srvBad.URL + "/dead.m3u8"),
		candidateFor(srvGood.URL + "/live.m3u8"),
	})
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got[0].Working {
		t.Error("dead stream marked working")
	}
	if !got[1].Working {
		t.Errorf("live stream marked dead: %q", got[1].Status)
	}
}

func TestVerifyAllUsesFreshCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("#EXTM3U\n#EXTINF:10,\nseg0.ts\n"))
	}))
	defer srv.Close()

	v := quickVerifier()
	cand := candidateFor(srv.URL + "/live.m3u8")
	first, _ := v.VerifyAll(context.Background(), []catalog.Candidate{cand})
	second, _ := v.VerifyAll(context.Background(), []catalog.Candidate{cand})
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1 (second run should hit the cache)", hits)
	}
	if first[0].Working != second[0].Working || first[0].Quality != second[0].Quality {
		t.Errorf("cached verdict diverged: %+v vs %+v", first[0], second[0])
	}
}

func TestFirstVariantURI(t *testing.T) {
	master := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\nlow.m3u8\n#EXT-X-STREAM-INF:BANDWIDTH=2000000\nhttp://cdn/high.m3u8\n"
	if got := firstVariantURI(master, "http://host/live/master.m3u8"); got != "http://host/live/low.m3u8" {
		t.Errorf("variant = %q", got)
	}
	media := "#EXTM3U\n#EXTINF:10,\nseg0.ts\n"
	if got := firstVariantURI(media, "http://host/live/index.m3u8"); got != "" {
		t.Errorf("media playlist produced variant %q", got)
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"0/0", 0},
		{"24", 24},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
