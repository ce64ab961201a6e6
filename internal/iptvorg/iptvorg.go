// Package iptvorg provides a local channel database derived from the iptv-org
// community channel list (https://iptv-org.github.io/api/channels.json).
//
// The database maps channel display names, including Cyrillic ones and their
// alt_names, to canonical iptv-org channel IDs and logos. Discovery uses it
// to fill in tvg-id and tvg-logo for streams whose source playlist carried
// neither.
//
// Typical workflow:
//
//  1. Run `stream-scan harvest` (or a periodic job) to build and persist the
//     local DB under the configured path.
//  2. Discovery enriches channels whose tvg-id is empty; absence of the DB
//     file disables enrichment gracefully.
package iptvorg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/httpclient"
)

const defaultChannelsURL = "https://iptv-org.github.io/api/channels.json"

// Channel is one record from the iptv-org channels.json API.
type Channel struct {
	ID       string   `json:"id"`        // e.g. "ntv.ru"
	Name     string   `json:"name"`      // e.g. "NTV"
	AltNames []string `json:"alt_names"` // alternative display names, often native-script
	Country  string   `json:"country"`   // ISO 3166-1 alpha-2 upper-case
	Website  string   `json:"website"`
	Logo     string   `json:"logo"`
	IsNSFW   bool     `json:"is_nsfw"`
}

// DB is the in-memory iptv-org channel database with lookup indices.
type DB struct {
	Channels []Channel `json:"channels"`

	// indices rebuilt after load/fetch
	byNormName  map[string][]int // normalised name → channel indices
	byShortCode map[string][]int // last id segment → channel indices
}

// Len returns the number of channels in the DB.
func (db *DB) Len() int { return len(db.Channels) }

// Load reads the DB from a JSON file. Returns an empty DB if the file does
// not exist, so enrichment is silently disabled until a harvest runs.
func Load(path string) (*DB, error) {
	db := &DB{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			db.buildIndices()
			return db, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, db); err != nil {
		return nil, err
	}
	db.buildIndices()
	return db, nil
}

// Save persists the DB to a JSON file.
func (db *DB) Save(path string) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Fetch downloads channels.json (the default URL when channelsURL is empty),
// replaces the DB contents and rebuilds the indices.
func (db *DB) Fetch(ctx context.Context, client *http.Client, channelsURL string) (int, error) {
	if channelsURL == "" {
		channelsURL = defaultChannelsURL
	}
	if client == nil {
		client = httpclient.Default()
	}
	resp, err := httpclient.Get(ctx, client, channelsURL, httpclient.DefaultRetryPolicy, nil)
	if err != nil {
		return 0, fmt.Errorf("iptv-org channels.json: %w", err)
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return 0, fmt.Errorf("iptv-org channels.json: %w", err)
	}
	var channels []Channel
	if err := json.Unmarshal([]byte(body), &channels); err != nil {
		return 0, fmt.Errorf("iptv-org channels.json parse: %w", err)
	}
	db.Channels = channels
	db.buildIndices()
	log.WithField("channels", len(channels)).Debug("iptv-org database refreshed")
	return len(channels), nil
}

// Enrich finds the iptv-org channel for a display name, trying the exact
// normalised name first and the quality/prefix-stripped form second. A result
// is returned only when the match is unambiguous.
func (db *DB) Enrich(displayName string) *Channel {
	if displayName == "" {
		return nil
	}
	if idx := db.singleMatch(db.byNormName[normName(displayName)]); idx >= 0 {
		return &db.Channels[idx]
	}
	stripped := stripForMatch(displayName)
	if stripped != "" && stripped != normName(displayName) {
		if idx := db.singleMatch(db.byNormName[stripped]); idx >= 0 {
			return &db.Channels[idx]
		}
	}
	return nil
}

// LookupTVGID resolves an existing tvg-id's short code, e.g. "ntv" out of a
// provider-specific "NTV.something", to an iptv-org channel.
func (db *DB) LookupTVGID(tvgID string) *Channel {
	sc := shortCode(tvgID)
	if sc == "" {
		return nil
	}
	if idx := db.singleMatch(db.byShortCode[sc]); idx >= 0 {
		return &db.Channels[idx]
	}
	return nil
}

func (db *DB) singleMatch(indices []int) int {
	if len(indices) != 1 {
		return -1
	}
	return indices[0]
}

func (db *DB) buildIndices() {
	db.byNormName = make(map[string][]int, len(db.Channels)*2)
	db.byShortCode = make(map[string][]int, len(db.Channels))

	for i, ch := range db.Channels {
		names := append([]string{ch.Name}, ch.AltNames...)
		for _, n := range names {
			k := normName(n)
			if k != "" {
				db.byNormName[k] = appendUniq(db.byNormName[k], i)
			}
			ks := stripForMatch(n)
			if ks != "" && ks != k {
				db.byNormName[ks] = appendUniq(db.byNormName[ks], i)
			}
		}
		if sc := shortCode(ch.ID); sc != "" {
			db.byShortCode[sc] = appendUniq(db.byShortCode[sc], i)
		}
	}
}

func appendUniq(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// qualityMarkerRe strips quality suffixes common in IPTV feed names.
var qualityMarkerRe = regexp.MustCompile(`(?i)\s*(hd2?|uhd|4k|8k|sd|raw|fhd|720p|1080p)\s*$`)

// countryPrefixRe strips "US: ", "RU: " etc from the start of names.
var countryPrefixRe = regexp.MustCompile(`(?i)^[A-ZА-Я]{1,5}:\s*`)

// nonWordRe keeps letters and digits of any script; iptv-org alt_names carry
// native-script titles.
var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N} ]`)

func normName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordRe.ReplaceAllString(s, " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

func stripForMatch(s string) string {
	s = strings.TrimSpace(s)
	s = countryPrefixRe.ReplaceAllString(s, "")
	s = qualityMarkerRe.ReplaceAllString(s, "")
	return normName(s)
}

func shortCode(id string) string {
	// "ntv.ru" → "ntv"
	id = strings.ToLower(strings.TrimSpace(id))
	if dot := strings.LastIndexByte(id, '.'); dot >= 0 {
		id = id[:dot]
	}
	if slash := strings.LastIndexByte(id, '/'); slash >= 0 {
		id = id[slash+1:]
	}
	id = strings.TrimSpace(id)
	if len(id) < 2 || len(id) > 20 {
		return ""
	}
	return id
}
