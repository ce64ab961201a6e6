package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/streamscan/stream-scan/internal/catalog"
)

type cacheEntry struct {
	Working bool            `json:"working"`
	Status  string          `json:"status"`
	Quality catalog.Quality `json:"quality"`
	Stable  bool            `json:"stable"`
	At      time.Time       `json:"at"`
}

func (e cacheEntry) apply(cand catalog.Candidate) catalog.VerifiedStream {
	return catalog.VerifiedStream{
		Candidate: cand,
		Working:   e.Working,
		Status:    e.Status,
		Quality:   e.Quality,
		Stable:    e.Stable,
	}
}

// Cache maps stream URL → last probe verdict, used to skip re-probing URLs
// seen recently. Not safe for concurrent mutation; the pool records results
// only after it drains.
type Cache map[string]cacheEntry

// LoadCache loads a cache from path. Returns an empty (non-nil) cache if
// path is "" or the file is absent or invalid.
func LoadCache(path string) Cache {
	c := make(Cache)
	if path == "" {
		return c
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	_ = json.Unmarshal(data, &c)
	return c
}

// Fresh reports whether url has a verdict still within ttl.
func (c Cache) Fresh(url string, ttl time.Duration) (cacheEntry, bool) {
	e, ok := c[url]
	if !ok {
		return cacheEntry{}, false
	}
	if ttl <= 0 || time.Since(e.At) > ttl {
		return cacheEntry{}, false
	}
	return e, true
}

// Record stores a verdict under its URL.
func (c Cache) Record(stream catalog.VerifiedStream) {
	c[stream.URL] = cacheEntry{
		Working: stream.Working,
		Status:  stream.Status,
		Quality: stream.Quality,
		Stable:  stream.Stable,
		At:      time.Now(),
	}
}

// Save writes the cache to path atomically (temp file + rename).
// Returns nil if path is "".
func (c Cache) Save(path string) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("probe cache: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".probes-*.json.tmp")
	if err != nil {
		return fmt.Errorf("probe cache: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("probe cache: write: %w", writeErr)
		}
		return fmt.Errorf("probe cache: close: %w", closeErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("probe cache: rename: %w", err)
	}
	return nil
}
