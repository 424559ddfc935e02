package processor

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/net/context"

	"s2downloader/catalog"
	"s2downloader/grid"
	"s2downloader/metrics"
	"s2downloader/utils"
)

// Orchestrator drives one download run: search, zone resolution,
// per-date evaluation and band materialization, manifest writing.
// Dates are processed sequentially; a failure on one date is recorded
// and never aborts the batch.
type Orchestrator struct {
	Config    *utils.Config
	Catalog   *catalog.Client
	RefGrid   *grid.ReferenceGrid
	Projector grid.PointProjector
	Logger    metrics.Logger

	materialize materializeFunc
	limiter     *downloadLimiter
}

// materializeFunc is the band production step, replaceable in tests.
type materializeFunc func(ctx context.Context, items []*catalog.SceneItem, band string,
	bounds grid.ProjectedBounds, targetEPSG int, targetRes float64, method string) (*BandRaster, error)

// NewOrchestrator wires a run. refGrid may be nil, in which case the
// legacy geodesic zone resolver is used. logger may be nil.
func NewOrchestrator(cfg *utils.Config, client *catalog.Client, refGrid *grid.ReferenceGrid, logger metrics.Logger) *Orchestrator {
	if logger == nil {
		logger = metrics.NewNoopLogger()
	}
	return &Orchestrator{
		Config:      cfg,
		Catalog:     client,
		RefGrid:     refGrid,
		Projector:   grid.GodalProjector{},
		Logger:      logger,
		materialize: MaterializeBand,
		limiter:     newDownloadLimiter(defaultDownloadConcurrency),
	}
}

// Run executes the pipeline. Setup errors (zone resolution, empty
// search, pre-existing manifest) abort the whole run; per-date errors
// are isolated into the manifest.
func (o *Orchestrator) Run(ctx context.Context) error {
	cfg := o.Config
	aoi := &cfg.UserSettings.AoiSettings

	bbox, err := grid.NewBBox(aoi.BoundingBox)
	if err != nil {
		return err
	}

	manifest := NewManifest(cfg.ManifestPath())
	if err := manifest.CheckTarget(); err != nil {
		return err
	}

	zone, err := o.resolveZone(bbox)
	if err != nil {
		return err
	}
	bounds, err := grid.ToProjectedBounds(bbox, zone.EPSG(), o.Projector)
	if err != nil {
		return err
	}
	log.Printf("AOI %v resolved to UTM zone %s (EPSG:%d)", bbox.Slice(), zone, zone.EPSG())

	items, err := o.search(ctx, bbox)
	if err != nil {
		return err
	}
	event := metrics.NewRunEvent("", metrics.StageSearch)
	event.SourceCount = len(items)
	o.Logger.Log(event)

	group := catalog.GroupByDate(items)
	dates := group.SortedDates()
	if cfg.UserSettings.ResultSettings.DownloadOnlyOneScene && len(dates) > 0 {
		dates = dates[len(dates)-1:]
	}

	filter := utils.NewFilterSet(aoi.SCLFilterValues)
	for _, date := range dates {
		dateItems := group.Dates[date]
		entry := &SceneEntry{}
		for _, item := range dateItems {
			entry.ItemIDs = append(entry.ItemIDs, ItemID{ID: item.ID})
		}

		start := time.Now()
		err := o.processDate(ctx, date, dateItems, bounds, zone, filter, entry)
		if err != nil {
			entry.DataAvailable = false
			entry.ErrorInfo = err.Error()
			log.Printf("date %s failed: %v", date, err)
			event := metrics.NewRunEvent(date, metrics.StageFailed)
			event.Error = err.Error()
			event.Duration = time.Since(start)
			o.Logger.Log(event)
		}
		manifest.Record(date, entry)
	}

	o.limiter.Wait()

	if err := manifest.Write(); err != nil {
		return err
	}
	o.Logger.Log(metrics.NewRunEvent("", metrics.StageManifest))
	return nil
}

func (o *Orchestrator) resolveZone(bbox grid.BBox) (grid.Zone, error) {
	if o.RefGrid == nil {
		return grid.ResolveZoneGeodesic(bbox)
	}
	return grid.ResolveZone(bbox, o.RefGrid,
		o.Config.UserSettings.AoiSettings.MaxUTMZoneOverlapDistance, o.Projector)
}

func (o *Orchestrator) search(ctx context.Context, bbox grid.BBox) ([]*catalog.SceneItem, error) {
	tile := &o.Config.UserSettings.TileSettings
	req := &catalog.SearchRequest{
		Collections: o.Config.S2Settings.Collections,
		BBox:        bbox.Slice(),
		Datetime:    o.Config.DateRangeString(),
		Query: map[string]*utils.Comparison{
			"platform":               tile.Platform,
			"sentinel:data_coverage": tile.DataCoverage,
			"eo:cloud_cover":         tile.CloudCover,
			"sentinel:utm_zone":      tile.UTMZone,
			"sentinel:latitude_band": tile.LatitudeBand,
			"sentinel:grid_square":   tile.GridSquare,
		},
	}
	return o.Catalog.Search(ctx, req)
}

// processDate runs the per-date state machine: evaluate, then either
// reject or save the SCL band plus every configured band.
func (o *Orchestrator) processDate(ctx context.Context, date string, items []*catalog.SceneItem,
	bounds grid.ProjectedBounds, zone grid.Zone, filter utils.FilterSet, entry *SceneEntry) error {

	cfg := o.Config
	aoi := &cfg.UserSettings.AoiSettings
	results := &cfg.UserSettings.ResultSettings

	scl, err := o.materialize(ctx, items, SCLBand, bounds, zone.EPSG(), aoi.TargetResolution, aoi.ResamplingMethod)
	if err != nil {
		return fmt.Errorf("date %s: failed to read classification band: %w", date, err)
	}

	eval := Evaluate(scl, filter)
	entry.NonzeroPixels = eval.NonzeroPct
	entry.ValidPixels = eval.ValidPct

	event := metrics.NewRunEvent(date, metrics.StageEvaluate)
	event.NonzeroPct = eval.NonzeroPct
	event.ValidPct = eval.ValidPct
	event.SourceCount = len(items)
	for _, item := range items {
		event.ItemIDs = append(event.ItemIDs, item.ID)
	}
	o.Logger.Log(event)

	if eval.NonzeroPct < aoi.SCLMaskValidPixelsMinPct || eval.ValidPct < aoi.AoiMinCoverage {
		log.Printf("date %s rejected: nonzero %.2f%%, valid %.2f%%", date, eval.NonzeroPct, eval.ValidPct)
		entry.DataAvailable = false
		o.Logger.Log(metrics.NewRunEvent(date, metrics.StageRejected))
		return nil
	}
	o.Logger.Log(metrics.NewRunEvent(date, metrics.StageAccepted))

	if results.DownloadThumbnails || results.DownloadOverviews {
		err := downloadAssets(ctx, items, o.dateOutputDir(date), results.AoiName,
			results.DownloadThumbnails, results.DownloadOverviews, o.limiter)
		if err != nil {
			return fmt.Errorf("date %s: %w", date, err)
		}
		o.Logger.Log(metrics.NewRunEvent(date, metrics.StageThumbnail))
	}

	if results.OnlyDatesNoData {
		entry.DataAvailable = true
		return nil
	}

	sensor := items[0].Sensor()
	sclPath := o.outputPath(date, sensor, SCLBand)
	if err := WriteGeoTIFF(sclPath, scl, false); err != nil {
		return fmt.Errorf("date %s: %w", date, err)
	}

	applyMask := aoi.ApplySCLBandMask == nil || *aoi.ApplySCLBandMask
	for _, bandName := range cfg.UserSettings.TileSettings.Bands {
		band, err := o.materialize(ctx, items, bandName, bounds, zone.EPSG(), aoi.TargetResolution, aoi.ResamplingMethod)
		if err != nil {
			return fmt.Errorf("date %s: band %s: %w", date, bandName, err)
		}
		if applyMask {
			if err := ApplyCloudMask(band, scl, filter); err != nil {
				return fmt.Errorf("date %s: band %s: %w", date, bandName, err)
			}
		}
		path := o.outputPath(date, sensor, bandName)
		if err := WriteGeoTIFF(path, band, results.SaveRasterDtypeFloat32); err != nil {
			return fmt.Errorf("date %s: band %s: %w", date, bandName, err)
		}

		event := metrics.NewRunEvent(date, metrics.StageSaved)
		event.Band = bandName
		event.OutputPath = path
		o.Logger.Log(event)
	}

	entry.DataAvailable = true
	return nil
}

// outputPath names band rasters <date>_<sensor>_<band>.tif, or
// <tileID>/<year>/<month>/<band>.tif in per-tile mode.
func (o *Orchestrator) outputPath(date, sensor, band string) string {
	results := &o.Config.UserSettings.ResultSettings
	if results.TileID != "" {
		return filepath.Join(o.dateOutputDir(date), band+".tif")
	}
	return filepath.Join(results.ResultsDir, fmt.Sprintf("%s_%s_%s.tif", date, sensor, band))
}

// dateOutputDir is where a date's auxiliary downloads (and per-tile
// band rasters) land.
func (o *Orchestrator) dateOutputDir(date string) string {
	results := &o.Config.UserSettings.ResultSettings
	if results.TileID != "" && len(date) == 8 {
		return filepath.Join(results.ResultsDir, results.TileID, date[:4], date[4:6])
	}
	return results.ResultsDir
}
