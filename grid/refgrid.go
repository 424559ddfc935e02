package grid

import (
	"fmt"
	"io/ioutil"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// PointProjector converts geographic lon/lat coordinate slices into a
// projected CRS, in place. The godal-backed implementation lives in
// reproject.go; tests may substitute an approximation.
type PointProjector interface {
	Project(epsg int, xs, ys []float64) error
}

// ReferenceGrid holds the tiling footprints the zone resolver
// intersects a bounding box against, grouped by their UTM EPSG code.
type ReferenceGrid struct {
	footprints map[int][]orb.Polygon
}

// LoadReferenceGrid reads a GeoJSON FeatureCollection of tiling
// footprints. Each feature carries an "epsg" property with the UTM
// CRS code of the tile.
func LoadReferenceGrid(path string) (*ReferenceGrid, error) {
	rawData, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference grid %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(rawData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference grid %s: %w", path, err)
	}

	grid := &ReferenceGrid{footprints: map[int][]orb.Polygon{}}
	for i, feat := range fc.Features {
		epsg := int(feat.Properties.MustFloat64("epsg", 0))
		if epsg == 0 {
			return nil, fmt.Errorf("reference grid feature %d has no epsg property", i)
		}
		switch g := feat.Geometry.(type) {
		case orb.Polygon:
			grid.footprints[epsg] = append(grid.footprints[epsg], g)
		case orb.MultiPolygon:
			grid.footprints[epsg] = append(grid.footprints[epsg], g...)
		default:
			return nil, fmt.Errorf("reference grid feature %d has geometry type %T, want polygon", i, g)
		}
	}
	if len(grid.footprints) == 0 {
		return nil, fmt.Errorf("reference grid %s contains no footprints", path)
	}
	return grid, nil
}

// NewReferenceGrid builds a grid from footprints keyed by EPSG code.
func NewReferenceGrid(footprints map[int][]orb.Polygon) *ReferenceGrid {
	return &ReferenceGrid{footprints: footprints}
}

// intersecting returns the EPSG codes whose footprints intersect the bound.
func (g *ReferenceGrid) intersecting(bound orb.Bound) []int {
	var epsgs []int
	for epsg, polys := range g.footprints {
		for _, poly := range polys {
			if clipped := clip.Polygon(bound, poly.Clone()); len(clipped) > 0 {
				epsgs = append(epsgs, epsg)
				break
			}
		}
	}
	sort.Ints(epsgs)
	return epsgs
}

// covers reports whether the bound lies entirely within the union of
// one EPSG group's footprints. Tiling footprints overlap each other
// and are two orders of magnitude larger than a typical AOI, so a
// sample-point test over a 3x3 lattice of the bound is sufficient.
func (g *ReferenceGrid) covers(epsg int, bound orb.Bound) bool {
	polys := g.footprints[epsg]
	for i := 0; i <= 2; i++ {
		for j := 0; j <= 2; j++ {
			pt := orb.Point{
				bound.Min[0] + float64(i)*(bound.Max[0]-bound.Min[0])/2,
				bound.Min[1] + float64(j)*(bound.Max[1]-bound.Min[1])/2,
			}
			inside := false
			for _, poly := range polys {
				if planar.PolygonContains(poly, pt) {
					inside = true
					break
				}
			}
			if !inside {
				return false
			}
		}
	}
	return true
}

// overlapEdgeMeters measures the longest edge, in meters of the
// candidate projection, over the parts of the bound claimed by the
// given EPSG group.
func (g *ReferenceGrid) overlapEdgeMeters(epsg, candidateEPSG int, bound orb.Bound, proj PointProjector) (float64, error) {
	longest := 0.0
	for _, poly := range g.footprints[epsg] {
		clipped := clip.Polygon(bound, poly.Clone())
		for _, ring := range clipped {
			if len(ring) < 2 {
				continue
			}
			xs := make([]float64, len(ring))
			ys := make([]float64, len(ring))
			for i, pt := range ring {
				xs[i] = pt[0]
				ys[i] = pt[1]
			}
			if err := proj.Project(candidateEPSG, xs, ys); err != nil {
				return 0, fmt.Errorf("failed to project overlap ring to EPSG:%d: %w", candidateEPSG, err)
			}
			for i := 1; i < len(xs); i++ {
				d := math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
				if d > longest {
					longest = d
				}
			}
		}
	}
	return longest, nil
}

// ResolveZone determines the single UTM zone covering the bounding
// box, or fails when the box truly straddles zones.
//
// A box touching footprints of a single EPSG code takes that zone. A
// box fully contained in one group's footprints takes that group even
// when it brushes others. When exactly two numerically adjacent zones
// are touched and one of them is 32 or 33, the meridian-convergence
// special case applies: the box is still accepted as long as the
// longest edge of the overlapping region stays below maxOverlapMeters,
// and the lower-numbered zone wins the tie. Everything else is
// ambiguous.
func ResolveZone(bbox BBox, refGrid *ReferenceGrid, maxOverlapMeters float64, proj PointProjector) (Zone, error) {
	if err := bbox.Validate(); err != nil {
		return Zone{}, err
	}
	if maxOverlapMeters <= 0 || maxOverlapMeters >= 100000 {
		return Zone{}, fmt.Errorf("max UTM zone overlap distance must lie in (0, 100000), got %v", maxOverlapMeters)
	}

	bound := bbox.Bound()
	epsgs := refGrid.intersecting(bound)
	if len(epsgs) == 0 {
		return Zone{}, fmt.Errorf("bounding box %v does not intersect the reference tiling grid", bbox.Slice())
	}

	if len(epsgs) == 1 {
		return ZoneFromEPSG(epsgs[0])
	}

	// Touching several groups is fine as long as a single group
	// fully contains the box.
	for _, epsg := range epsgs {
		if refGrid.covers(epsg, bound) {
			return ZoneFromEPSG(epsg)
		}
	}

	zones := make([]int, len(epsgs))
	for i, epsg := range epsgs {
		z, err := ZoneFromEPSG(epsg)
		if err != nil {
			return Zone{}, err
		}
		zones[i] = z.Number
	}

	if len(epsgs) != 2 || zones[1]-zones[0] != 1 || (zones[0] != 32 && zones[1] != 32 && zones[0] != 33 && zones[1] != 33) {
		return Zone{}, &ZoneAmbiguousError{Zones: zones}
	}

	candidate, err := ZoneFromEPSG(epsgs[0])
	if err != nil {
		return Zone{}, err
	}
	overlap, err := refGrid.overlapEdgeMeters(epsgs[1], epsgs[0], bound, proj)
	if err != nil {
		return Zone{}, err
	}
	if overlap > maxOverlapMeters {
		return Zone{}, &ZoneOverlapTooLargeError{OverlapMeters: overlap, ThresholdMeters: maxOverlapMeters}
	}
	return candidate, nil
}
