package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	os.Clearenv()
	c := Load()
	if c.PlaylistPath != "playlist/playlist.m3u" {
		t.Errorf("PlaylistPath = %q", c.PlaylistPath)
	}
	if c.Workers != 3 {
		t.Errorf("Workers = %d, want 3", c.Workers)
	}
	if c.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v", c.RequestTimeout)
	}
	if !c.DeepProbe {
		t.Error("DeepProbe should default to true")
	}
}

func TestLoad_workerClamp(t *testing.T) {
	os.Clearenv()
	os.Setenv("STREAM_SCAN_WORKERS", "50")
	if c := Load(); c.Workers != 5 {
		t.Errorf("Workers = %d, want clamped 5", c.Workers)
	}
	os.Setenv("STREAM_SCAN_WORKERS", "0")
	if c := Load(); c.Workers != 2 {
		t.Errorf("Workers = %d, want clamped 2", c.Workers)
	}
}

func TestLoad_overrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("STREAM_SCAN_PLAYLIST", "/tmp/x.m3u")
	os.Setenv("STREAM_SCAN_MERGE_CAP", "3")
	os.Setenv("STREAM_SCAN_DEEP_PROBE", "false")
	os.Setenv("STREAM_SCAN_PROBE_CACHE_TTL", "1h")
	c := Load()
	if c.PlaylistPath != "/tmp/x.m3u" || c.MergeCap != 3 || c.DeepProbe || c.ProbeCacheTTL != time.Hour {
		t.Errorf("overrides not applied: %+v", c)
	}
}

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cartolog.txt")
	content := "# категории\nНТВ: Новости\nМатч ТВ: Спортивные\nПервый\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Clearenv()
	os.Setenv("STREAM_SCAN_CATEGORY_FILE", path)
	table, err := Load().LoadCategories()
	if err != nil {
		t.Fatal(err)
	}
	if table["НТВ"] != "Новости" || table["Матч ТВ"] != "Спортивные" {
		t.Errorf("table = %v", table)
	}
	if table["Первый"] != "Первый" {
		t.Errorf("bare name should map to itself; table = %v", table)
	}
}

func TestLoadSites_missingFile(t *testing.T) {
	os.Clearenv()
	os.Setenv("STREAM_SCAN_SITES_FILE", filepath.Join(t.TempDir(), "nope.txt"))
	sites, err := Load().LoadSites()
	if err != nil {
		t.Fatal(err)
	}
	if sites != nil {
		t.Errorf("missing file should give nil; got %v", sites)
	}
}

func TestLoadChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Channels.txt")
	os.WriteFile(path, []byte("НТВ\n# comment\n\nПервый HD\n"), 0o644)
	os.Clearenv()
	os.Setenv("STREAM_SCAN_CHANNELS_FILE", path)
	channels, err := Load().LoadChannels()
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 2 || channels[0] != "НТВ" || channels[1] != "Первый HD" {
		t.Errorf("channels = %v", channels)
	}
}
