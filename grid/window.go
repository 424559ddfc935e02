package grid

import (
	"fmt"
	"math"
)

// GeoTransform is the 6-parameter affine pixel to projected-coordinate
// mapping in GDAL order: origin X, pixel width, row rotation, origin Y,
// column rotation, pixel height (negative for north-up rasters). The
// rotation terms are always 0 for the rasters handled here.
type GeoTransform [6]float64

func (g GeoTransform) OriginX() float64 { return g[0] }
func (g GeoTransform) OriginY() float64 { return g[3] }
func (g GeoTransform) PixelWidth() float64 {
	return g[1]
}
func (g GeoTransform) PixelHeight() float64 {
	return g[5]
}

// Resolution returns the absolute pixel size along X.
func (g GeoTransform) Resolution() float64 {
	return math.Abs(g[1])
}

// Window is a rectangular pixel region relative to a source raster's
// own grid.
type Window struct {
	Col    int
	Row    int
	Width  int
	Height int
}

// WindowFromBounds computes the pixel window of a source raster that
// covers the given projected bounds. Offsets and lengths are rounded
// to the nearest integer; this single rounding rule is shared by the
// validity evaluator and the band materializer so co-registered reads
// always agree on shape.
func WindowFromBounds(bounds ProjectedBounds, gt GeoTransform) (Window, error) {
	if gt[1] == 0 || gt[5] == 0 {
		return Window{}, fmt.Errorf("degenerate geotransform: zero pixel size")
	}
	col := math.Round((bounds.MinX - gt[0]) / gt[1])
	row := math.Round((bounds.MaxY - gt[3]) / gt[5])
	width := math.Round((bounds.MaxX - bounds.MinX) / gt[1])
	height := math.Round((bounds.MinY - bounds.MaxY) / gt[5])
	if width <= 0 || height <= 0 {
		return Window{}, fmt.Errorf("bounds (%v) produce an empty window against transform %v", bounds, gt)
	}
	return Window{Col: int(col), Row: int(row), Width: int(width), Height: int(height)}, nil
}

// Clamp restricts the window to a raster of the given size, so reads
// near tile edges never run past the source grid.
func (w Window) Clamp(rasterWidth, rasterHeight int) Window {
	out := w
	if out.Col < 0 {
		out.Width += out.Col
		out.Col = 0
	}
	if out.Row < 0 {
		out.Height += out.Row
		out.Row = 0
	}
	if out.Col+out.Width > rasterWidth {
		out.Width = rasterWidth - out.Col
	}
	if out.Row+out.Height > rasterHeight {
		out.Height = rasterHeight - out.Row
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// TargetShape computes the output raster dimensions covering the
// projected bounds at the target resolution. It depends on the bounds
// alone, never on a source pixel grid, so every band of a date shares
// one shape no matter whether it was read from a 10m, 20m or 60m
// source.
func TargetShape(bounds ProjectedBounds, targetRes float64) (int, int, error) {
	if targetRes <= 0 {
		return 0, 0, fmt.Errorf("invalid target resolution %v", targetRes)
	}
	outW := int(math.Round(bounds.Width() / targetRes))
	outH := int(math.Round(bounds.Height() / targetRes))
	if outW <= 0 || outH <= 0 {
		return 0, 0, fmt.Errorf("bounds (%v) produce an empty %v m raster", bounds, targetRes)
	}
	return outW, outH, nil
}

// TargetTransform is the affine transform of the bounds-anchored
// output grid. Shared with TargetShape so co-registered bands agree on
// origin as well as shape.
func TargetTransform(bounds ProjectedBounds, targetRes float64) GeoTransform {
	return GeoTransform{bounds.MinX, targetRes, 0, bounds.MaxY, 0, -targetRes}
}
