package merge

import (
	"reflect"
	"testing"

	"github.com/streamscan/stream-scan/internal/catalog"
)

func vs(url string, working, stable bool, stability, quality int) catalog.VerifiedStream {
	return catalog.VerifiedStream{
		Candidate: catalog.Candidate{
			URL:            url,
			StabilityScore: stability,
			QualityScore:   quality,
		},
		Working: working,
		Stable:  stable,
	}
}

func urls(streams []catalog.VerifiedStream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.URL
	}
	return out
}

func TestStreams_newFirstThenOldStable(t *testing.T) {
	old := []catalog.VerifiedStream{
		vs("http://old/stable", true, true, 8, 10),
		vs("http://old/unstable", true, false, 5, 10),
	}
	new := []catalog.VerifiedStream{
		vs("http://new/1", true, false, 6, 15),
	}
	got := Streams(old, new, 0)
	want := []string{"http://new/1", "http://old/stable"}
	if !reflect.DeepEqual(urls(got), want) {
		t.Errorf("merged = %v, want %v", urls(got), want)
	}
}

func TestStreams_dedupByURL(t *testing.T) {
	old := []catalog.VerifiedStream{vs("http://x/1", true, true, 8, 10)}
	new := []catalog.VerifiedStream{
		vs("http://x/1", true, true, 8, 10),
		vs("http://x/1", true, false, 5, 5), // same URL from another source
	}
	got := Streams(old, new, 0)
	if len(got) != 1 {
		t.Errorf("merged = %v, want exactly one entry for the shared URL", urls(got))
	}
}

func TestStreams_idempotent(t *testing.T) {
	a := []catalog.VerifiedStream{
		vs("http://a/1", true, true, 9, 10),
		vs("http://a/2", true, false, 4, 20),
	}
	b := []catalog.VerifiedStream{
		vs("http://b/1", true, true, 7, 15),
		vs("http://a/1", true, true, 9, 10),
	}
	once := Streams(a, b, 0)
	twice := Streams(once, b, 0)
	if !reflect.DeepEqual(urls(once), urls(twice)) {
		t.Errorf("merge not idempotent: %v vs %v", urls(once), urls(twice))
	}
}

func TestStreams_emptyNewPreservesOld(t *testing.T) {
	old := []catalog.VerifiedStream{
		vs("http://old/1", true, false, 5, 0), // even non-stable old survives an empty run
		vs("http://old/2", true, true, 8, 0),
	}
	got := Streams(old, nil, 0)
	if !reflect.DeepEqual(got, old) {
		t.Errorf("empty discovery must preserve old unchanged; got %v", urls(got))
	}
}

func TestStreams_nonWorkingNeverKept(t *testing.T) {
	new := []catalog.VerifiedStream{
		vs("http://new/dead", false, false, 5, 0),
		vs("http://new/alive", true, false, 5, 0),
	}
	got := Streams(nil, new, 0)
	if len(got) != 1 || got[0].URL != "http://new/alive" {
		t.Errorf("merged = %v", urls(got))
	}
}

func TestStreams_capFavoursStable(t *testing.T) {
	var new []catalog.VerifiedStream
	new = append(new,
		vs("http://n/1", true, false, 5, 1),
		vs("http://n/2", true, false, 5, 2),
		vs("http://n/3", true, true, 9, 3),
	)
	got := Streams(nil, new, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	found := false
	for _, s := range got {
		if s.URL == "http://n/3" {
			found = true
		}
	}
	if !found {
		t.Errorf("stable stream trimmed before unstable ones: %v", urls(got))
	}
}

func TestSortByScore(t *testing.T) {
	streams := []catalog.VerifiedStream{
		vs("http://c", true, false, 5, 30),
		vs("http://a", true, false, 9, 10),
		vs("http://b", true, false, 9, 20),
	}
	SortByScore(streams)
	want := []string{"http://b", "http://a", "http://c"}
	if !reflect.DeepEqual(urls(streams), want) {
		t.Errorf("sorted = %v, want %v", urls(streams), want)
	}
}
