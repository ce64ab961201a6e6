// Package playlist reads and writes the durable playlist document: an
// EXTINF-grammar codec plus the Store that splits the file into a protected
// preamble and the per-channel dynamic section.
package playlist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/streamscan/stream-scan/internal/catalog"
)

const (
	// Header is the fixed first line of any playlist document.
	Header = "#EXTM3U"
	// Delimiter bounds the protected preamble. Everything after the second
	// delimiter line is the dynamic section this pipeline rewrites.
	Delimiter = "#############################"

	extinfPrefix  = "#EXTINF:"
	vlcOptUAMark  = "#EXTVLCOPT:http-user-agent="
	commentPrefix = "#"
)

var attrRe = regexp.MustCompile(`([\w-]+)=["']([^"']*)["']`)

// Record is one parsed EXTINF line: the named metadata attributes, the
// pipeline extension attributes and the display name after the comma.
type Record struct {
	Meta    catalog.StreamMetadata
	Quality catalog.Quality // quality= extension attribute, "" when absent
	Stable  bool            // stable= extension attribute
}

// ParseEXTINF parses one "#EXTINF:" line into a Record. Unknown attributes
// are ignored; a missing display name yields an empty Meta.Name.
func ParseEXTINF(line string) Record {
	var rec Record
	for _, m := range attrRe.FindAllStringSubmatch(line, -1) {
		key, value := m[1], m[2]
		switch key {
		case "tvg-id":
			rec.Meta.TVGID = value
		case "tvg-logo":
			rec.Meta.Logo = value
		case "group-title":
			rec.Meta.Group = value
		case "quality":
			rec.Quality = catalog.Quality(value)
		case "stable":
			rec.Stable = value == "true"
		}
	}
	if i := strings.LastIndex(line, ","); i >= 0 {
		name := strings.TrimSpace(line[i+1:])
		rec.Meta.Name = strings.NewReplacer(`"`, "", "'", "", "<", "", ">", "").Replace(name)
	}
	return rec
}

// FormatEXTINF renders the EXTINF line for a verified stream, including the
// pipeline extension attributes so a reload recovers quality and stability.
func FormatEXTINF(s catalog.VerifiedStream) string {
	parts := []string{"#EXTINF:-1"}
	if s.Meta.TVGID != "" {
		parts = append(parts, fmt.Sprintf("tvg-id=%q", s.Meta.TVGID))
	}
	if s.Meta.Logo != "" {
		parts = append(parts, fmt.Sprintf("tvg-logo=%q", s.Meta.Logo))
	}
	group := s.Meta.Group
	if group == "" {
		group = catalog.DefaultGroup
	}
	parts = append(parts, fmt.Sprintf("group-title=%q", group))
	if s.Quality != "" && s.Quality != catalog.QualityNone {
		parts = append(parts, fmt.Sprintf("quality=%q", string(s.Quality)))
	}
	if s.Stable {
		parts = append(parts, `stable="true"`)
	}
	name := s.Meta.Name
	if name == "" {
		name = s.Channel
	}
	return strings.Join(parts, " ") + ", " + name
}
