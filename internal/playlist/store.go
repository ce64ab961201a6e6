package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/streamscan/stream-scan/internal/catalog"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// Store is the durable playlist document. The preamble (everything up to and
// including the second Delimiter line) is never rewritten by discovery; only
// the dynamic section after it is.
type Store struct {
	Path string
}

// NewStore returns a Store backed by path. The file need not exist yet.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load parses the dynamic section into a channel-name → streams map.
// A missing or malformed file yields an empty map: discovery can always
// proceed from nothing. Loaded streams are working by definition; only
// working streams are ever persisted.
func (s *Store) Load() (map[string][]catalog.VerifiedStream, error) {
	channels := make(map[string][]catalog.VerifiedStream)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return channels, nil
		}
		return nil, fmt.Errorf("playlist load: %w", err)
	}

	_, dynamic := splitDocument(string(data))
	sc := bufio.NewScanner(strings.NewReader(dynamic))
	sc.Buffer(nil, maxLineSize)

	var rec *Record
	var userAgent string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, extinfPrefix):
			r := ParseEXTINF(line)
			rec = &r
			userAgent = ""
		case strings.HasPrefix(line, vlcOptUAMark):
			userAgent = strings.TrimPrefix(line, vlcOptUAMark)
		case strings.HasPrefix(line, commentPrefix):
			continue
		case rec != nil && strings.HasPrefix(line, "http"):
			stream := streamFromRecord(*rec, line, userAgent)
			channels[stream.Channel] = append(channels[stream.Channel], stream)
			rec = nil
		default:
			rec = nil
		}
	}
	return channels, nil
}

func streamFromRecord(rec Record, url, userAgent string) catalog.VerifiedStream {
	name := rec.Meta.Name
	if name == "" {
		name = "Unknown"
	}
	quality := rec.Quality
	if quality == "" {
		quality = catalog.QualityMedium
	}
	return catalog.VerifiedStream{
		Candidate: catalog.Candidate{
			Channel: name,
			URL:     url,
			Source:  catalog.SourcePlaylist,
			Meta:    rec.Meta,
		},
		Working:   true,
		Status:    "persisted",
		Quality:   quality,
		Stable:    rec.Stable,
		UserAgent: userAgent,
	}
}

// Save rewrites the document: preamble preserved verbatim (re-derived from
// the existing file, or a default when none exists), then one record pair
// per stream in channel order. The write is atomic (temp file + rename) so
// a crash never leaves a half-written catalog.
func (s *Store) Save(channels map[string][]catalog.VerifiedStream) error {
	preamble := s.currentPreamble()

	var b strings.Builder
	b.WriteString(preamble)

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)
	total := 0
	for _, name := range names {
		for _, stream := range channels[name] {
			if !stream.Working {
				continue
			}
			b.WriteString(FormatEXTINF(stream))
			b.WriteByte('\n')
			if stream.UserAgent != "" {
				b.WriteString(vlcOptUAMark + stream.UserAgent + "\n")
			}
			b.WriteString(stream.URL)
			b.WriteByte('\n')
			total++
		}
	}

	if err := writeAtomic(s.Path, []byte(b.String())); err != nil {
		return fmt.Errorf("playlist save: %w", err)
	}
	log.WithField("channels", len(channels)).WithField("streams", total).Debug("playlist saved")
	return nil
}

// currentPreamble returns the existing file's preamble (through the second
// delimiter) or a freshly synthesized default.
func (s *Store) currentPreamble() string {
	data, err := os.ReadFile(s.Path)
	if err == nil {
		if preamble, _ := splitDocument(string(data)); preamble != "" {
			return preamble
		}
	}
	return defaultPreamble()
}

// splitDocument splits the raw document into (preamble including both
// delimiters, dynamic section). Returns ("", whole) when the document has
// fewer than two delimiter lines: such a file has no protected section.
func splitDocument(raw string) (preamble, dynamic string) {
	parts := strings.SplitN(raw, Delimiter, 3)
	if len(parts) < 3 {
		return "", raw
	}
	return parts[0] + Delimiter + parts[1] + Delimiter + "\n\n", parts[2]
}

func defaultPreamble() string {
	return Header + "\n" +
		"# Обновлен: " + time.Now().Format("2006-01-02 15:04:05") + "\n" +
		"# Статическая часть - НЕ ИЗМЕНЯТЬ!\n" +
		"# Динамическая часть ниже\n\n" +
		Delimiter + "\n" +
		Delimiter + "\n\n"
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(filepath.Clean(path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".playlist-*.m3u.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("write: %w", writeErr)
		}
		return fmt.Errorf("close: %w", closeErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
