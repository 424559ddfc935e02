package processor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"

	"golang.org/x/net/context"

	"s2downloader/catalog"
	"s2downloader/grid"
)

// SCLBand is the scene classification layer asset name. It is
// categorical data: interpolating resamplers must never touch it.
const SCLBand = "SCL"

// MaterializeBand produces one AOI-aligned raster for a band of one
// acquisition date. A single source tile is window-read with
// rescaling; several source tiles are mosaicked into the AOI bounds
// in the target projection. SCL always resamples nearest-neighbor
// regardless of the configured method.
func MaterializeBand(ctx context.Context, items []*catalog.SceneItem, band string,
	bounds grid.ProjectedBounds, targetEPSG int, targetRes float64, method string) (*BandRaster, error) {

	if len(items) == 0 {
		return nil, fmt.Errorf("band %s: no source items", band)
	}
	if band == SCLBand {
		method = "nearest"
	}
	alg, err := resamplingAlg(method)
	if err != nil {
		return nil, err
	}

	var raster *BandRaster
	if len(items) == 1 && items[0].EPSG() == targetEPSG {
		raster, err = materializeSingle(ctx, items[0], band, bounds, targetRes, alg)
		if errors.Is(err, errPartialSource) {
			raster, err = materializeMosaic(ctx, items, band, bounds, targetEPSG, targetRes, method)
		}
	} else {
		raster, err = materializeMosaic(ctx, items, band, bounds, targetEPSG, targetRes, method)
	}
	if err != nil {
		return nil, err
	}

	raster.Band = band
	raster.EPSG = targetEPSG
	if band == SCLBand {
		raster.DType = "Byte"
	} else {
		raster.DType = "UInt16"
	}
	if err := raster.checkShape(); err != nil {
		return nil, err
	}
	return raster, nil
}

func materializeSingle(ctx context.Context, item *catalog.SceneItem, band string,
	bounds grid.ProjectedBounds, targetRes float64, alg godal.ResamplingAlg) (*BandRaster, error) {

	href, err := item.AssetHref(band)
	if err != nil {
		return nil, err
	}
	ds, err := openDataset(ctx, href)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	data, w, h, gt, err := readWindowed(ds, bounds, targetRes, alg)
	if err != nil {
		return nil, fmt.Errorf("band %s of item %s (%s): %w", band, item.ID, href, err)
	}
	return &BandRaster{Data: data, Width: w, Height: h, Transform: gt}, nil
}

func materializeMosaic(ctx context.Context, items []*catalog.SceneItem, band string,
	bounds grid.ProjectedBounds, targetEPSG int, targetRes float64, method string) (*BandRaster, error) {

	sources := make([]*godal.Dataset, 0, len(items))
	defer func() {
		for _, ds := range sources {
			ds.Close()
		}
	}()
	for _, item := range items {
		href, err := item.AssetHref(band)
		if err != nil {
			return nil, err
		}
		ds, err := openDataset(ctx, href)
		if err != nil {
			return nil, fmt.Errorf("band %s of item %s: %w", band, item.ID, err)
		}
		sources = append(sources, ds)
	}

	switches := []string{
		"-of", "MEM",
		"-t_srs", fmt.Sprintf("EPSG:%d", targetEPSG),
		"-te",
		strconv.FormatFloat(bounds.MinX, 'f', -1, 64),
		strconv.FormatFloat(bounds.MinY, 'f', -1, 64),
		strconv.FormatFloat(bounds.MaxX, 'f', -1, 64),
		strconv.FormatFloat(bounds.MaxY, 'f', -1, 64),
		"-tr",
		strconv.FormatFloat(targetRes, 'f', -1, 64),
		strconv.FormatFloat(targetRes, 'f', -1, 64),
		"-r", method,
		"-srcnodata", "0",
		"-dstnodata", "0",
	}

	merged, err := godal.Warp("", sources, switches)
	if err != nil {
		return nil, fmt.Errorf("band %s: mosaic of %d sources failed: %w", band, len(sources), err)
	}
	defer merged.Close()

	structure := merged.Structure()
	gtRaw, err := merged.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("band %s: failed to read mosaic geotransform: %w", band, err)
	}

	data := make([]float64, structure.SizeX*structure.SizeY)
	if err := merged.Bands()[0].Read(0, 0, data, structure.SizeX, structure.SizeY); err != nil {
		return nil, fmt.Errorf("band %s: failed to read mosaic: %w", band, err)
	}

	return &BandRaster{
		Data:      data,
		Width:     structure.SizeX,
		Height:    structure.SizeY,
		Transform: grid.GeoTransform(gtRaw),
	}, nil
}
