package grid

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// lonLatProj4 pins the source CRS to geographic lon/lat in that axis
// order. EPSG:4326 through GDAL 3 is authority-compliant (lat first),
// which is not what the bounding box math expects.
const lonLatProj4 = "+proj=longlat +datum=WGS84 +no_defs"

// GodalProjector projects geographic coordinates with GDAL.
type GodalProjector struct{}

func (GodalProjector) Project(epsg int, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("coordinate slices differ in length: %d vs %d", len(xs), len(ys))
	}
	src, err := godal.NewSpatialRefFromProj4(lonLatProj4)
	if err != nil {
		return fmt.Errorf("failed to create geographic CRS: %w", err)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return fmt.Errorf("failed to create CRS for EPSG:%d: %w", epsg, err)
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return fmt.Errorf("failed to create transform to EPSG:%d: %w", epsg, err)
	}
	defer trn.Close()

	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return fmt.Errorf("failed to transform %d points to EPSG:%d: %w", len(xs), epsg, err)
	}
	return nil
}

// ToProjectedBounds converts a geographic bounding box into projected
// coordinates by transforming its corners, matching the envelope
// semantics of the catalog tiles.
func ToProjectedBounds(bbox BBox, epsg int, proj PointProjector) (ProjectedBounds, error) {
	if err := bbox.Validate(); err != nil {
		return ProjectedBounds{}, err
	}

	xs := []float64{bbox.West, bbox.East, bbox.West, bbox.East}
	ys := []float64{bbox.South, bbox.South, bbox.North, bbox.North}
	if err := proj.Project(epsg, xs, ys); err != nil {
		return ProjectedBounds{}, fmt.Errorf("failed to reproject bounding box to EPSG:%d: %w", epsg, err)
	}

	out := ProjectedBounds{MinX: xs[0], MinY: ys[0], MaxX: xs[0], MaxY: ys[0]}
	for i := 1; i < len(xs); i++ {
		if xs[i] < out.MinX {
			out.MinX = xs[i]
		}
		if xs[i] > out.MaxX {
			out.MaxX = xs[i]
		}
		if ys[i] < out.MinY {
			out.MinY = ys[i]
		}
		if ys[i] > out.MaxY {
			out.MaxY = ys[i]
		}
	}
	if out.Width() <= 0 || out.Height() <= 0 {
		return ProjectedBounds{}, &InvalidGeometryError{Reason: "bounding box degenerates to a point or line after reprojection"}
	}
	return out, nil
}
