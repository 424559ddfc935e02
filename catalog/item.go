package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"
)

// SceneItem is one catalog search result: a single Sentinel-2 tile
// acquisition with per-band asset locations. The catalog owns this
// data; the pipeline only reads it.
type SceneItem struct {
	ID           string
	Datetime     time.Time
	Platform     string
	CloudCover   float64
	DataCoverage float64
	UTMZone      int
	LatitudeBand string
	GridSquare   string
	Geometry     *geojson.Geometry
	Assets       map[string]string
}

// TileID renders the military grid reference of the item, e.g. 32UQD.
func (s *SceneItem) TileID() string {
	return fmt.Sprintf("%d%s%s", s.UTMZone, s.LatitudeBand, s.GridSquare)
}

// EPSG returns the projected CRS code of the item's native UTM grid,
// or 0 when the zone is unknown. MGRS latitude bands C through M lie
// south of the equator.
func (s *SceneItem) EPSG() int {
	if s.UTMZone == 0 {
		return 0
	}
	if s.LatitudeBand != "" && s.LatitudeBand[0] >= 'C' && s.LatitudeBand[0] <= 'M' {
		return 32700 + s.UTMZone
	}
	return 32600 + s.UTMZone
}

// Sensor maps the platform property to the file name prefix, e.g.
// sentinel-2b -> S2B.
func (s *SceneItem) Sensor() string {
	switch s.Platform {
	case "sentinel-2a":
		return "S2A"
	case "sentinel-2b":
		return "S2B"
	}
	if s.Platform != "" {
		return s.Platform
	}
	return "S2"
}

// AssetHref returns the location of one band asset of the item.
func (s *SceneItem) AssetHref(name string) (string, error) {
	href, ok := s.Assets[name]
	if !ok || href == "" {
		return "", fmt.Errorf("item %s has no asset %q", s.ID, name)
	}
	return href, nil
}

// SceneGroup maps day-granularity dates (YYYYMMDD) to the items
// acquired on that day, preserving the catalog's order within a day.
type SceneGroup struct {
	Dates map[string][]*SceneItem
}

// GroupByDate builds a SceneGroup from a catalog result list. Items
// sharing a date are deliberately kept together as mosaic candidates;
// nothing is deduplicated.
func GroupByDate(items []*SceneItem) *SceneGroup {
	group := &SceneGroup{Dates: map[string][]*SceneItem{}}
	for _, item := range items {
		key := item.Datetime.UTC().Format("20060102")
		group.Dates[key] = append(group.Dates[key], item)
	}
	return group
}

// SortedDates returns the group's dates in ascending order.
func (g *SceneGroup) SortedDates() []string {
	dates := make([]string, 0, len(g.Dates))
	for d := range g.Dates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// MostRecentDate returns the newest date in the group, or "".
func (g *SceneGroup) MostRecentDate() string {
	dates := g.SortedDates()
	if len(dates) == 0 {
		return ""
	}
	return dates[len(dates)-1]
}
