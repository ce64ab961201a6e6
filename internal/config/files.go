package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/streamscan/stream-scan/internal/catalog"
)

// readLines returns the non-empty, non-comment lines of path. A missing file
// yields nil; every input file is optional.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// LoadSites returns the ordered site/search-engine URL list.
func (c *Config) LoadSites() ([]string, error) {
	return readLines(c.SitesFile)
}

// LoadChannels returns the channel names for batch discovery.
func (c *Config) LoadChannels() ([]string, error) {
	return readLines(c.ChannelsFile)
}

// LoadCategories parses the category table. Each line is either
// "channel: category" or a bare name that maps to itself.
func (c *Config) LoadCategories() (catalog.Categories, error) {
	lines, err := readLines(c.CategoryFile)
	if err != nil {
		return nil, err
	}
	table := make(catalog.Categories, len(lines))
	for _, line := range lines {
		if i := strings.Index(line, ":"); i >= 0 {
			name := strings.TrimSpace(line[:i])
			cat := strings.TrimSpace(line[i+1:])
			if name != "" && cat != "" {
				table[name] = cat
			}
			continue
		}
		table[line] = line
	}
	return table, nil
}
