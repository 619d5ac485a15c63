package refdata

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var stationsYAML []byte

var (
	stationsOnce sync.Once
	stationsMap  map[string][]string
	stationsErr  error
)

func loadStations() (map[string][]string, error) {
	stationsOnce.Do(func() {
		var raw map[string][]string
		if err := yaml.Unmarshal(stationsYAML, &raw); err != nil {
			stationsErr = fmt.Errorf("failed to parse stations table: %w", err)
			return
		}
		stationsMap = make(map[string][]string, len(raw))
		for district, list := range raw {
			stationsMap[district] = normalizeStations(district, list)
		}
	})
	return stationsMap, stationsErr
}

// normalizeStations appends the district itself, trims, dedupes and sorts.
func normalizeStations(district string, list []string) []string {
	out := make([]string, 0, len(list)+1)
	for _, s := range append(list, district) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Stations returns the stations and district units for a district, or an
// empty list when the district is unknown.
func Stations(district string) []string {
	m, err := loadStations()
	if err != nil {
		return nil
	}
	return slices.Clone(m[strings.TrimSpace(district)])
}

// IsKnownStation reports whether station belongs to district.
func IsKnownStation(district, station string) bool {
	_, found := slices.BinarySearch(Stations(district), strings.TrimSpace(station))
	return found
}

// StationDistricts lists every district that has a station table.
func StationDistricts() ([]string, error) {
	m, err := loadStations()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
