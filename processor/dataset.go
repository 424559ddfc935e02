package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/airbusgeo/godal"

	"golang.org/x/net/context"

	"s2downloader/grid"
)

// Remote asset hrefs are read through GDAL's HTTP virtual file
// system. Remote reads are the dominant failure source, so every
// open carries a timeout.
const defaultHTTPTimeoutSecs = 30

func gdalPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

func openDataset(ctx context.Context, href string) (*godal.Dataset, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ds, err := godal.Open(gdalPath(href),
		godal.ConfigOption(fmt.Sprintf("GDAL_HTTP_TIMEOUT=%d", defaultHTTPTimeoutSecs)),
		godal.ConfigOption("GDAL_HTTP_MAX_RETRY=3"),
		godal.ConfigOption("GDAL_DISABLE_READDIR_ON_OPEN=EMPTY_DIR"))
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", href, err)
	}
	return ds, nil
}

func resamplingAlg(method string) (godal.ResamplingAlg, error) {
	switch method {
	case "cubic":
		return godal.Cubic, nil
	case "bilinear":
		return godal.Bilinear, nil
	case "nearest":
		return godal.Nearest, nil
	}
	return godal.Nearest, fmt.Errorf("unsupported resampling method: %q", method)
}

// errPartialSource marks an AOI that is not fully inside a single
// source tile. The caller falls back to the warp path, which pads the
// missing region with nodata.
var errPartialSource = errors.New("bounds not fully covered by the source raster")

// readWindowed reads the subregion of a single source raster covering
// the projected bounds, resampled onto the bounds-anchored target
// grid. Shape and transform come from the bounds and the target
// resolution alone, so the classification band and the image bands of
// one date always land on the same grid regardless of their source
// pixel sizes.
func readWindowed(ds *godal.Dataset, bounds grid.ProjectedBounds, targetRes float64, alg godal.ResamplingAlg) ([]float64, int, int, grid.GeoTransform, error) {
	gtRaw, err := ds.GeoTransform()
	if err != nil {
		return nil, 0, 0, grid.GeoTransform{}, fmt.Errorf("failed to read source geotransform: %w", err)
	}
	gt := grid.GeoTransform(gtRaw)

	win, err := grid.WindowFromBounds(bounds, gt)
	if err != nil {
		return nil, 0, 0, grid.GeoTransform{}, err
	}
	structure := ds.Structure()
	if win.Clamp(structure.SizeX, structure.SizeY) != win {
		return nil, 0, 0, grid.GeoTransform{}, errPartialSource
	}

	outW, outH, err := grid.TargetShape(bounds, targetRes)
	if err != nil {
		return nil, 0, 0, grid.GeoTransform{}, err
	}
	buf := make([]float64, outW*outH)

	band := ds.Bands()[0]
	err = band.Read(win.Col, win.Row, buf, outW, outH,
		godal.Window(win.Width, win.Height),
		godal.Resampling(alg))
	if err != nil {
		return nil, 0, 0, grid.GeoTransform{}, fmt.Errorf("windowed read of %dx%d at (%d, %d) failed: %w",
			win.Width, win.Height, win.Col, win.Row, err)
	}

	return buf, outW, outH, grid.TargetTransform(bounds, targetRes), nil
}
