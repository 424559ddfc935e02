package grid

import (
	"testing"
)

func TestToProjectedBounds(t *testing.T) {
	bbox := BBox{West: 13.4, South: 52.4, East: 13.5, North: 52.5}
	out, err := ToProjectedBounds(bbox, 32633, degProjector{})
	if err != nil {
		t.Fatal(err)
	}
	if out.MinX != 13.4*70000 || out.MaxX != 13.5*70000 {
		t.Errorf("got X %v to %v", out.MinX, out.MaxX)
	}
	if out.MinY != 52.4*70000 || out.MaxY != 52.5*70000 {
		t.Errorf("got Y %v to %v", out.MinY, out.MaxY)
	}
}

type collapseProjector struct{}

func (collapseProjector) Project(epsg int, xs, ys []float64) error {
	for i := range xs {
		xs[i] = 0
		ys[i] = 0
	}
	return nil
}

func TestToProjectedBoundsDegenerate(t *testing.T) {
	bbox := BBox{West: 13.4, South: 52.4, East: 13.5, North: 52.5}
	_, err := ToProjectedBounds(bbox, 32633, collapseProjector{})
	if err == nil {
		t.Fatal("expected error for collapsed bounds")
	}
	if _, ok := err.(*InvalidGeometryError); !ok {
		t.Errorf("got %T: %v", err, err)
	}
}
