// Package catalog defines the data model shared by the discovery pipeline:
// channels, candidates extracted from sources, and verified streams ready to
// be persisted into the playlist document.
package catalog

// SourceKind identifies the class of source a candidate was discovered from.
type SourceKind string

const (
	SourcePlaylist SourceKind = "playlist" // aggregator M3U playlist entry
	SourceSite     SourceKind = "site"     // scraped from a configured page
	SourceSearch   SourceKind = "search"   // extracted from a search-engine result body
	SourceVideo    SourceKind = "video"    // video-platform watch page
)

// Quality is the coarse tier assigned after verification.
type Quality string

const (
	QualityNone   Quality = "none"
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// StreamMetadata carries the attributes extracted from one EXTINF line.
// Named fields instead of an open string-keyed map so callers can't typo a key.
type StreamMetadata struct {
	Name  string // display title after the comma
	Group string // group-title
	TVGID string // tvg-id
	Logo  string // tvg-logo
}

// Candidate is an unverified (channel, URL) pair discovered from one source.
// Candidates are ephemeral: they exist only within a single discovery run.
type Candidate struct {
	Channel        string // channel name being searched for
	URL            string
	Source         SourceKind
	Meta           StreamMetadata
	QualityScore   int
	StabilityScore int // 1..10
}

// ProbeInfo is the result of a deep media probe (ffprobe), when the tool is
// installed and the probe succeeded. All fields best-effort.
type ProbeInfo struct {
	Width      int
	Height     int
	BitRate    int
	FPS        float64
	VideoCodec string
}

// VerifiedStream is a candidate that went through liveness verification.
// Only streams with Working == true may be persisted.
type VerifiedStream struct {
	Candidate
	Working   bool
	Status    string // human-readable verdict, e.g. "hls reachable"
	Quality   Quality
	Stable    bool
	UserAgent string     // optional per-stream user-agent override
	Probe     *ProbeInfo // non-nil only after a successful deep probe
}

// Channel is the user-facing identity a set of streams belongs to.
// Created implicitly on first successful discovery; Group is resolved once
// from the category table and treated as sticky afterwards.
type Channel struct {
	Name  string
	Group string
	TVGID string
	Logo  string
}
