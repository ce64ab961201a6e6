package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/streamscan/stream-scan/internal/catalog"
)

func stream(channel, url, group, tvgID, logo string, quality catalog.Quality, stable bool) catalog.VerifiedStream {
	return catalog.VerifiedStream{
		Candidate: catalog.Candidate{
			Channel: channel,
			URL:     url,
			Source:  catalog.SourcePlaylist,
			Meta:    catalog.StreamMetadata{Name: channel, Group: group, TVGID: tvgID, Logo: logo},
		},
		Working: true,
		Quality: quality,
		Stable:  stable,
	}
}

func TestStore_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	st := NewStore(path)

	in := map[string][]catalog.VerifiedStream{
		"Канал А": {
			stream("Канал А", "http://x/1.m3u8", "Новости", "kanala.ru", "http://x/logo.png", catalog.QualityHigh, true),
			stream("Канал А", "http://x/2.m3u8", "Новости", "kanala.ru", "http://x/logo.png", catalog.QualityMedium, false),
		},
	}
	if err := st.Save(in); err != nil {
		t.Fatal(err)
	}

	out, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	got := out["Канал А"]
	if len(got) != 2 {
		t.Fatalf("loaded %d streams, want 2: %+v", len(got), out)
	}
	for i, want := range in["Канал А"] {
		if got[i].URL != want.URL {
			t.Errorf("stream %d URL = %q, want %q", i, got[i].URL, want.URL)
		}
		if got[i].Meta.Group != want.Meta.Group {
			t.Errorf("stream %d group = %q, want %q", i, got[i].Meta.Group, want.Meta.Group)
		}
		if got[i].Meta.TVGID != want.Meta.TVGID {
			t.Errorf("stream %d tvg-id = %q, want %q", i, got[i].Meta.TVGID, want.Meta.TVGID)
		}
		if got[i].Meta.Logo != want.Meta.Logo {
			t.Errorf("stream %d logo = %q, want %q", i, got[i].Meta.Logo, want.Meta.Logo)
		}
		if got[i].Quality != want.Quality {
			t.Errorf("stream %d quality = %q, want %q", i, got[i].Quality, want.Quality)
		}
		if got[i].Stable != want.Stable {
			t.Errorf("stream %d stable = %v, want %v", i, got[i].Stable, want.Stable)
		}
		if !got[i].Working {
			t.Errorf("stream %d must load as working", i)
		}
	}
}

func TestStore_preamblePreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	custom := Header + "\n# my precious custom header\n" + Delimiter + "\n" +
		"#EXTINF:-1 group-title=\"Info\", Static entry\nhttp://static/entry\n" +
		Delimiter + "\n\n"
	if err := os.WriteFile(path, []byte(custom+"#EXTINF:-1, Old\nhttp://old/1.m3u8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := NewStore(path)
	if err := st.Save(map[string][]catalog.VerifiedStream{
		"НТВ": {stream("НТВ", "http://new/1.m3u8", "", "", "", catalog.QualityMedium, true)},
	}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "# my precious custom header") {
		t.Error("custom preamble lost on save")
	}
	if !strings.Contains(text, "http://static/entry") {
		t.Error("protected static record lost on save")
	}
	if strings.Contains(text, "http://old/1.m3u8") {
		t.Error("dynamic section was not rewritten")
	}
	if !strings.Contains(text, "http://new/1.m3u8") {
		t.Error("new stream missing")
	}
}

func TestStore_loadMissingAndMalformed(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "missing.m3u"))
	got, err := st.Load()
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("missing file: got %v", got)
	}

	path := filepath.Join(t.TempDir(), "garbage.m3u")
	os.WriteFile(path, []byte("complete garbage\nno delimiters here\n"), 0o644)
	got, err = NewStore(path).Load()
	if err != nil {
		t.Fatalf("malformed file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("malformed file: got %v", got)
	}
}

func TestStore_userAgentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	st := NewStore(path)
	s := stream("НТВ", "http://x/1.m3u8", "", "", "", catalog.QualityMedium, true)
	s.UserAgent = "CustomAgent/1.0"
	if err := st.Save(map[string][]catalog.VerifiedStream{"НТВ": {s}}); err != nil {
		t.Fatal(err)
	}
	out, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out["НТВ"]) != 1 || out["НТВ"][0].UserAgent != "CustomAgent/1.0" {
		t.Errorf("user-agent lost: %+v", out["НТВ"])
	}
}

func TestStore_nonWorkingNeverPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	st := NewStore(path)
	dead := stream("НТВ", "http://x/dead.m3u8", "", "", "", catalog.QualityNone, false)
	dead.Working = false
	if err := st.Save(map[string][]catalog.VerifiedStream{"НТВ": {dead}}); err != nil {
		t.Fatal(err)
	}
	out, _ := st.Load()
	if len(out["НТВ"]) != 0 {
		t.Errorf("non-working stream persisted: %+v", out["НТВ"])
	}
}

func TestParseEXTINF(t *testing.T) {
	rec := ParseEXTINF(`#EXTINF:-1 tvg-id="ntv.ru" tvg-logo="http://x/l.png" group-title="Новости" quality="high" stable="true", НТВ HD`)
	if rec.Meta.TVGID != "ntv.ru" || rec.Meta.Logo != "http://x/l.png" || rec.Meta.Group != "Новости" {
		t.Errorf("attrs = %+v", rec.Meta)
	}
	if rec.Meta.Name != "НТВ HD" {
		t.Errorf("name = %q", rec.Meta.Name)
	}
	if rec.Quality != catalog.QualityHigh || !rec.Stable {
		t.Errorf("extensions = %q / %v", rec.Quality, rec.Stable)
	}
}

func TestParseEXTINF_bare(t *testing.T) {
	rec := ParseEXTINF("#EXTINF:-1, НТВ")
	if rec.Meta.Name != "НТВ" {
		t.Errorf("name = %q", rec.Meta.Name)
	}
	if rec.Meta.TVGID != "" || rec.Stable {
		t.Errorf("unexpected attrs: %+v", rec)
	}
}
