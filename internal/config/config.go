// Package config holds the scanner settings (env-driven, with an optional
// .env file) and loads the collaborator-supplied input files: the site/search
// list, the channel-name → category table and the batch channel list.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds pipeline + verification settings.
type Config struct {
	// Paths
	PlaylistPath   string // durable playlist document
	SitesFile      string // ordered list of site/search-engine URLs
	CategoryFile   string // channel-name → category table ("name: category" lines)
	ChannelsFile   string // channel names for batch discovery
	ProbeCacheFile string // JSON probe-result cache; "" = disabled
	IPTVOrgDBFile  string // harvested iptv-org channel DB for tvg enrichment

	// Discovery
	Workers        int           // worker pool size for fan-out (clamped 2..5)
	MaxSites       int           // cap on sites queried per discovery run
	MaxCandidates  int           // cap on candidates handed to verification
	MergeCap       int           // max streams kept per channel after merge
	RequestTimeout time.Duration // base per-attempt timeout
	MaxRetries     int           // attempts per request

	// Verification
	DeepProbe        bool          // invoke ffprobe when available
	DeepProbeTimeout time.Duration // hard cap per deep probe
	ProbeCacheTTL    time.Duration // how long a probe verdict stays fresh

	// Ambient
	LogLevel string // logrus level name
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load()
// to use a .env file.
func Load() *Config {
	c := &Config{
		PlaylistPath:     getEnv("STREAM_SCAN_PLAYLIST", "playlist/playlist.m3u"),
		SitesFile:        getEnv("STREAM_SCAN_SITES_FILE", "files/site.txt"),
		CategoryFile:     getEnv("STREAM_SCAN_CATEGORY_FILE", "files/cartolog.txt"),
		ChannelsFile:     getEnv("STREAM_SCAN_CHANNELS_FILE", "files/Channels.txt"),
		ProbeCacheFile:   os.Getenv("STREAM_SCAN_PROBE_CACHE_FILE"),
		IPTVOrgDBFile:    getEnv("STREAM_SCAN_IPTVORG_DB", "files/iptvorg.json"),
		Workers:          getEnvInt("STREAM_SCAN_WORKERS", 3),
		MaxSites:         getEnvInt("STREAM_SCAN_MAX_SITES", 20),
		MaxCandidates:    getEnvInt("STREAM_SCAN_MAX_CANDIDATES", 30),
		MergeCap:         getEnvInt("STREAM_SCAN_MERGE_CAP", 5),
		RequestTimeout:   getEnvDuration("STREAM_SCAN_REQUEST_TIMEOUT", 15*time.Second),
		MaxRetries:       getEnvInt("STREAM_SCAN_MAX_RETRIES", 3),
		DeepProbe:        getEnvBool("STREAM_SCAN_DEEP_PROBE", true),
		DeepProbeTimeout: getEnvDuration("STREAM_SCAN_DEEP_PROBE_TIMEOUT", 8*time.Second),
		ProbeCacheTTL:    getEnvDuration("STREAM_SCAN_PROBE_CACHE_TTL", 4*time.Hour),
		LogLevel:         getEnv("STREAM_SCAN_LOG_LEVEL", "info"),
	}
	if c.Workers < 2 {
		c.Workers = 2
	}
	if c.Workers > 5 {
		c.Workers = 5
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.MergeCap < 1 {
		c.MergeCap = 5
	}
	if c.DeepProbeTimeout <= 0 {
		c.DeepProbeTimeout = 8 * time.Second
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
