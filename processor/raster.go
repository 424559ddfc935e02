package processor

import (
	"fmt"

	"s2downloader/grid"
)

// BandRaster is one AOI-aligned raster band held in memory between
// the read/mosaic step and the write step. Data is row-major with
// Width*Height samples, read through GDAL as float64 regardless of
// the source type; DType records the type the band is written back as.
type BandRaster struct {
	Band      string
	DType     string
	Data      []float64
	Width     int
	Height    int
	EPSG      int
	Transform grid.GeoTransform
}

func (r *BandRaster) checkShape() error {
	if len(r.Data) != r.Width*r.Height {
		return fmt.Errorf("band %s: data length %d does not match shape %dx%d",
			r.Band, len(r.Data), r.Width, r.Height)
	}
	return nil
}

// Evaluation holds the two quality percentages computed from a
// windowed classification band.
type Evaluation struct {
	NonzeroPct float64
	ValidPct   float64
}

// ShapeMismatchError reports two co-registered rasters that disagree
// on window shape. This is a correctness bug, never something to
// paper over by truncating.
type ShapeMismatchError struct {
	Band      string
	BandShape [2]int
	MaskShape [2]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("band %s shape (%d, %d) does not match classification shape (%d, %d)",
		e.Band, e.BandShape[0], e.BandShape[1], e.MaskShape[0], e.MaskShape[1])
}
