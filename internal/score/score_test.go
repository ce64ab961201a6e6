package score

import (
	"testing"

	"github.com/streamscan/stream-scan/internal/catalog"
)

func TestQuality(t *testing.T) {
	tests := []struct {
		name string
		meta catalog.StreamMetadata
		want int
	}{
		{"plain", catalog.StreamMetadata{Name: "НТВ"}, 0},
		{"hd", catalog.StreamMetadata{Name: "НТВ HD"}, 10},
		{"4k", catalog.StreamMetadata{Name: "Кино 4K"}, 20},
		{"1080p and hd stack", catalog.StreamMetadata{Name: "Канал 1080p HD"}, 25},
		{"logo bonus", catalog.StreamMetadata{Name: "НТВ", Logo: "http://x/logo.png"}, 5},
		{"epg bonus", catalog.StreamMetadata{Name: "НТВ", TVGID: "ntv.ru"}, 3},
		{"everything", catalog.StreamMetadata{Name: "НТВ FHD", Logo: "l", TVGID: "id"}, 10 + 15 + 5 + 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quality(tt.meta); got != tt.want {
				t.Errorf("Quality(%+v) = %d, want %d", tt.meta, got, tt.want)
			}
		})
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name string
		meta catalog.StreamMetadata
		url  string
		want int
	}{
		{"baseline", catalog.StreamMetadata{Name: "НТВ"}, "http://example.com/1.m3u8", 5},
		{"github raw", catalog.StreamMetadata{Name: "НТВ"}, "https://raw.githubusercontent.com/iptv-org/iptv/master/ru.m3u", 8},
		{"youtube", catalog.StreamMetadata{Name: "НТВ"}, "https://youtube.com/watch?v=abc", 7},
		{"test penalty", catalog.StreamMetadata{Name: "НТВ test"}, "http://example.com/1.m3u8", 2},
		{"localhost floor", catalog.StreamMetadata{Name: "localhost тест"}, "http://example.com/x", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stability(tt.meta, tt.url)
			if got != tt.want {
				t.Errorf("Stability = %d, want %d", got, tt.want)
			}
			if got < 1 || got > 10 {
				t.Errorf("Stability out of range: %d", got)
			}
		})
	}
}

func TestIsHighQuality(t *testing.T) {
	good := []string{"НТВ HD", "Первый канал", "Матч ТВ FHD"}
	for _, name := range good {
		if !IsHighQuality(catalog.StreamMetadata{Name: name}) {
			t.Errorf("%q rejected", name)
		}
	}
	bad := []string{"НТВ test", "демо канал", "Sample Stream", "Канал (не работает)", "offline tv"}
	for _, name := range bad {
		if IsHighQuality(catalog.StreamMetadata{Name: name}) {
			t.Errorf("%q accepted", name)
		}
	}
}
