package processor

import (
	"s2downloader/utils"
)

// Evaluate computes the data-coverage and cloud-free percentages of
// an AOI-windowed classification raster. Both are fractions of the
// total windowed pixel count:
//
//	NonzeroPct: pixels with any data at all (value != 0)
//	ValidPct:   pixels not in the filter set, with 0 always filtered
//
// The configured filter set is never modified; the effective set with
// the implicit no-data value is derived locally.
func Evaluate(scl *BandRaster, filter utils.FilterSet) Evaluation {
	total := len(scl.Data)
	if total == 0 {
		return Evaluation{}
	}

	effective := filter.Effective()
	nonzero := 0
	valid := 0
	for _, v := range scl.Data {
		if v != 0 {
			nonzero++
		}
		if !effective.Contains(int(v)) {
			valid++
		}
	}

	return Evaluation{
		NonzeroPct: float64(nonzero) / float64(total) * 100,
		ValidPct:   float64(valid) / float64(total) * 100,
	}
}

// ApplyCloudMask zeroes every band pixel whose co-registered
// classification value falls in the filter set (or is no-data). The
// two rasters must share the exact window shape; a mismatch means the
// windowing math diverged and is reported, never truncated.
func ApplyCloudMask(band *BandRaster, scl *BandRaster, filter utils.FilterSet) error {
	if band.Width != scl.Width || band.Height != scl.Height {
		return &ShapeMismatchError{
			Band:      band.Band,
			BandShape: [2]int{band.Height, band.Width},
			MaskShape: [2]int{scl.Height, scl.Width},
		}
	}
	if err := band.checkShape(); err != nil {
		return err
	}
	if err := scl.checkShape(); err != nil {
		return err
	}

	effective := filter.Effective()
	for i, v := range scl.Data {
		if effective.Contains(int(v)) {
			band.Data[i] = 0
		}
	}
	return nil
}
