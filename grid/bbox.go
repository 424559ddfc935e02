package grid

import (
	"fmt"

	"github.com/paulmach/orb"
)

// InvalidGeometryError flags a degenerate or malformed bounding box.
// Config validation should have caught it already; the pipeline still
// refuses to run coordinate math on one.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid bounding box geometry: %s", e.Reason)
}

// BBox is a geographic (EPSG:4326) bounding box.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// NewBBox builds a BBox from the 4-float config form [west, south, east, north].
func NewBBox(coords []float64) (BBox, error) {
	if len(coords) != 4 {
		return BBox{}, &InvalidGeometryError{Reason: fmt.Sprintf("expected 4 coordinates, got %d", len(coords))}
	}
	bb := BBox{West: coords[0], South: coords[1], East: coords[2], North: coords[3]}
	if err := bb.Validate(); err != nil {
		return BBox{}, err
	}
	return bb, nil
}

func (b BBox) Validate() error {
	if b.West >= b.East {
		return &InvalidGeometryError{Reason: fmt.Sprintf("west (%v) must be less than east (%v)", b.West, b.East)}
	}
	if b.South >= b.North {
		return &InvalidGeometryError{Reason: fmt.Sprintf("south (%v) must be less than north (%v)", b.South, b.North)}
	}
	return nil
}

// Bound returns the box as an orb.Bound for geometry operations.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

func (b BBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

func (b BBox) Center() (float64, float64) {
	return (b.West + b.East) / 2, (b.South + b.North) / 2
}

// ProjectedBounds holds projected (UTM) bounds as minX, minY, maxX, maxY.
type ProjectedBounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (p ProjectedBounds) Width() float64  { return p.MaxX - p.MinX }
func (p ProjectedBounds) Height() float64 { return p.MaxY - p.MinY }
