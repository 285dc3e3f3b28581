package facts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ThermalZones globs {sysPath}/class/thermal/thermal_zone*/temp and converts
// each millidegree value to degrees Celsius. Unreadable zones are skipped.
func (h *HostSource) ThermalZones(ctx context.Context) ([]ThermalZone, error) {
	pattern := filepath.Join(h.sysPath, "class", "thermal", "thermal_zone*", "temp")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var zones []ThermalZone
	for _, path := range matches {
		id, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(filepath.Dir(path)), "thermal_zone"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		millideg, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}
		zones = append(zones, ThermalZone{ZoneID: id, Celsius: millideg / 1000.0})
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneID < zones[j].ZoneID })
	return zones, nil
}
