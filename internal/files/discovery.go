package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"ivtcli/internal/config"
	"ivtcli/pkg/contracts/domain"
)

// Discovery finds tagged source exports by file name
type Discovery struct {
	basePath string
	pattern  *regexp.Regexp
}

// NewDiscovery creates a new file discovery instance using the default
// "App <Status> <n>.<ext>" naming convention
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{
		basePath: basePath,
		pattern:  regexp.MustCompile(config.SourceFilePattern),
	}
}

// discovered is one name match before ordering
type discovered struct {
	source domain.Source
	index  int
	ext    string
}

// FindSources lists the files in dir whose names carry a status and app number.
// The tag is taken from the name: "App Invalid 2.csv" becomes {Invalid, "App Invalid 2"}.
// Results are ordered Valid before Invalid, then by number. When both a .csv and an
// .xlsx exist for the same app only the .csv is returned.
func (d *Discovery) FindSources(dir string) ([]domain.Source, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	byApp := make(map[string]discovered)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := d.pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		status := domain.Status(m[1])
		appID := fmt.Sprintf("App %s %s", status, m[2])

		candidate := discovered{
			source: domain.Source{
				File:      filepath.Join(fullPath, entry.Name()),
				SourceTag: domain.SourceTag{Status: status, AppID: appID},
			},
			index: n,
			ext:   m[3],
		}

		if existing, ok := byApp[appID]; ok && existing.ext == "csv" {
			continue
		}
		byApp[appID] = candidate
	}

	found := make([]discovered, 0, len(byApp))
	for _, c := range byApp {
		found = append(found, c)
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.source.Status != b.source.Status {
			return a.source.Status == domain.StatusValid
		}
		if a.index != b.index {
			return a.index < b.index
		}
		return a.source.AppID < b.source.AppID
	})

	sources := make([]domain.Source, len(found))
	for i, c := range found {
		sources[i] = c.source
	}
	return sources, nil
}

// resolve joins relative directories onto the base path
func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
