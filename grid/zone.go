package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb/geo"
)

// Zone is a UTM zone number, 1 to 60.
type Zone struct {
	Number int
	South  bool
}

// EPSG returns the projected CRS code of the zone: 32600+N for the
// northern hemisphere, 32700+N for the southern.
func (z Zone) EPSG() int {
	if z.South {
		return 32700 + z.Number
	}
	return 32600 + z.Number
}

func (z Zone) String() string {
	hemi := "N"
	if z.South {
		hemi = "S"
	}
	return fmt.Sprintf("%d%s", z.Number, hemi)
}

// ZoneFromEPSG derives the zone from a UTM EPSG code.
func ZoneFromEPSG(epsg int) (Zone, error) {
	switch {
	case epsg > 32600 && epsg <= 32660:
		return Zone{Number: epsg - 32600}, nil
	case epsg > 32700 && epsg <= 32760:
		return Zone{Number: epsg - 32700, South: true}, nil
	}
	return Zone{}, fmt.Errorf("EPSG code %d is not a UTM zone", epsg)
}

// ZoneAmbiguousError is raised when a bounding box straddles UTM zones
// in a way the overlap heuristic cannot resolve.
type ZoneAmbiguousError struct {
	Zones []int
}

func (e *ZoneAmbiguousError) Error() string {
	zs := append([]int(nil), e.Zones...)
	sort.Ints(zs)
	return fmt.Sprintf("bounding box spans UTM zones %v and cannot be assigned a single projection", zs)
}

// ZoneOverlapTooLargeError is raised when a bounding box crosses the
// 32/33 zone boundary further than the configured threshold allows.
type ZoneOverlapTooLargeError struct {
	OverlapMeters   float64
	ThresholdMeters float64
}

func (e *ZoneOverlapTooLargeError) Error() string {
	return fmt.Sprintf("bounding box too large across zones: overlap edge of %.0f m exceeds the %.0f m threshold",
		e.OverlapMeters, e.ThresholdMeters)
}

// maxGeodesicExtent is the edge limit for the legacy single-bbox mode.
const maxGeodesicExtent = 50000.0

// ResolveZoneGeodesic is the legacy resolver: it rejects any bounding
// box whose east-west or north-south extent exceeds 50 km and
// otherwise picks the zone of the box centre. No reference grid is
// consulted.
func ResolveZoneGeodesic(bbox BBox) (Zone, error) {
	if err := bbox.Validate(); err != nil {
		return Zone{}, err
	}
	sw := bbox.Bound().Min
	se := sw
	se[0] = bbox.East
	nw := sw
	nw[1] = bbox.North

	ew := geo.Distance(sw, se)
	ns := geo.Distance(sw, nw)
	if ew > maxGeodesicExtent || ns > maxGeodesicExtent {
		return Zone{}, fmt.Errorf("bounding box extent (%.0f m x %.0f m) exceeds the %.0f m limit for single-tile requests",
			ew, ns, maxGeodesicExtent)
	}

	lon, lat := bbox.Center()
	number := int(math.Floor((lon+180)/6)) + 1
	if number < 1 {
		number = 1
	}
	if number > 60 {
		number = 60
	}
	return Zone{Number: number, South: lat < 0}, nil
}
