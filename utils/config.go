package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// S2Settings selects the remote catalog and the collections
// to search within it.
type S2Settings struct {
	Collections    []string `json:"collections" yaml:"collections"`
	StacCatalogURL string   `json:"stac_catalog_url" yaml:"stac_catalog_url"`
}

// TileSettings contains the property filters forwarded to the
// catalog search as well as the list of bands to retrieve.
type TileSettings struct {
	Platform     *Comparison `json:"platform,omitempty" yaml:"platform,omitempty"`
	DataCoverage *Comparison `json:"sentinel:data_coverage,omitempty" yaml:"data_coverage,omitempty"`
	CloudCover   *Comparison `json:"eo:cloud_cover,omitempty" yaml:"cloud_cover,omitempty"`
	UTMZone      *Comparison `json:"sentinel:utm_zone,omitempty" yaml:"utm_zone,omitempty"`
	LatitudeBand *Comparison `json:"sentinel:latitude_band,omitempty" yaml:"latitude_band,omitempty"`
	GridSquare   *Comparison `json:"sentinel:grid_square,omitempty" yaml:"grid_square,omitempty"`
	Bands        []string    `json:"bands" yaml:"bands"`
}

// AoiSettings describes the area of interest and the quality
// thresholds a scene has to meet before any band is saved.
type AoiSettings struct {
	BoundingBox               []float64 `json:"bounding_box" yaml:"bounding_box"`
	ApplySCLBandMask          *bool     `json:"apply_SCL_band_mask,omitempty" yaml:"apply_scl_band_mask,omitempty"`
	SCLFilterValues           []int     `json:"SCL_filter_values" yaml:"scl_filter_values"`
	SCLMaskValidPixelsMinPct  float64   `json:"SCL_mask_valid_pixels_min_percentage" yaml:"scl_mask_valid_pixels_min_percentage"`
	AoiMinCoverage            float64   `json:"aoi_min_coverage" yaml:"aoi_min_coverage"`
	ResamplingMethod          string    `json:"resampling_method" yaml:"resampling_method"`
	TargetResolution          float64   `json:"target_resolution" yaml:"target_resolution"`
	DateRange                 []string  `json:"date_range" yaml:"date_range"`
	MaxUTMZoneOverlapDistance float64   `json:"max_utm_zone_overlap_distance" yaml:"max_utm_zone_overlap_distance"`
	UTMReferenceGridPath      string    `json:"utm_reference_grid_path" yaml:"utm_reference_grid_path"`
}

// ResultSettings controls what gets persisted and where.
type ResultSettings struct {
	ResultsDir             string `json:"results_dir" yaml:"results_dir"`
	OnlyDatesNoData        bool   `json:"only_dates_no_data" yaml:"only_dates_no_data"`
	DownloadThumbnails     bool   `json:"download_thumbnails" yaml:"download_thumbnails"`
	DownloadOverviews      bool   `json:"download_overviews" yaml:"download_overviews"`
	DownloadOnlyOneScene   bool   `json:"download_only_one_scene" yaml:"download_only_one_scene"`
	SaveRasterDtypeFloat32 bool   `json:"save_raster_dtype_float32" yaml:"save_raster_dtype_float32"`
	TileID                 string `json:"tile_id,omitempty" yaml:"tile_id,omitempty"`
	AoiName                string `json:"aoi_name,omitempty" yaml:"aoi_name,omitempty"`
}

type UserSettings struct {
	AoiSettings    AoiSettings    `json:"aoi_settings" yaml:"aoi_settings"`
	TileSettings   TileSettings   `json:"tile_settings" yaml:"tile_settings"`
	ResultSettings ResultSettings `json:"result_settings" yaml:"result_settings"`
}

// Config is the struct representing the configuration of one
// download run. Field-level validation happens upstream; the
// pipeline only re-checks what it cannot afford to trust.
type Config struct {
	UserSettings UserSettings `json:"user_settings" yaml:"user_settings"`
	S2Settings   S2Settings   `json:"s2_settings" yaml:"s2_settings"`
}

const (
	DefaultStacCatalogURL = "https://earth-search.aws.element84.com/v0"
	DefaultCollection     = "sentinel-s2-l2a-cogs"

	// Zone overlap threshold in meters. Must stay within (0, 100000).
	DefaultMaxUTMZoneOverlapDistance = 50000.0

	DefaultTargetResolution = 10.0
)

// DateFormat is the day format used in manifest keys and file names.
const DateFormat = "20060102"

// ISODateFormat is the day format used in catalog date range strings.
const ISODateFormat = "2006-01-02"

// SupportedBands are the Sentinel-2 L2A band names a config may request.
var SupportedBands = map[string]bool{
	"B01": true, "B02": true, "B03": true, "B04": true,
	"B05": true, "B06": true, "B07": true, "B08": true,
	"B8A": true, "B09": true, "B10": true, "B11": true, "B12": true,
}

// LoadConfig reads a configuration file. Both JSON and YAML documents
// are accepted, selected by the file extension.
func LoadConfig(path string) (*Config, error) {
	rawData, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(rawData, cfg)
	default:
		err = json.Unmarshal(rawData, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	for _, band := range cfg.UserSettings.TileSettings.Bands {
		if !SupportedBands[band] {
			return nil, fmt.Errorf("config file %s requests unknown band %q", path, band)
		}
	}
	return cfg, nil
}

// ApplyDefaults fills the optional fields the loader leaves zeroed.
func (c *Config) ApplyDefaults() {
	if c.S2Settings.StacCatalogURL == "" {
		c.S2Settings.StacCatalogURL = DefaultStacCatalogURL
	}
	if len(c.S2Settings.Collections) == 0 {
		c.S2Settings.Collections = []string{DefaultCollection}
	}
	aoi := &c.UserSettings.AoiSettings
	if aoi.ResamplingMethod == "" {
		aoi.ResamplingMethod = "cubic"
	}
	if aoi.TargetResolution == 0 {
		aoi.TargetResolution = DefaultTargetResolution
	}
	if aoi.MaxUTMZoneOverlapDistance == 0 {
		aoi.MaxUTMZoneOverlapDistance = DefaultMaxUTMZoneOverlapDistance
	}
	if aoi.SCLFilterValues == nil {
		aoi.SCLFilterValues = []int{3, 7, 8, 9, 10}
	}
	if aoi.ApplySCLBandMask == nil {
		t := true
		aoi.ApplySCLBandMask = &t
	}
}

// DateRangeString renders the configured date range in the form the
// catalog expects: YYYY-MM-DD or YYYY-MM-DD/YYYY-MM-DD.
func (c *Config) DateRangeString() string {
	dr := c.UserSettings.AoiSettings.DateRange
	if len(dr) == 0 {
		return ""
	}
	if len(dr) == 1 || dr[0] == dr[1] {
		return dr[0]
	}
	return dr[0] + "/" + dr[1]
}

// ManifestPath computes the scenes_info file location for this run.
// The suffix carries the tile id in per-tile mode so parallel runs
// over different tiles never collide.
func (c *Config) ManifestPath() string {
	suffix := strings.Replace(c.DateRangeString(), "/", "_", -1)
	if c.UserSettings.ResultSettings.TileID != "" {
		suffix = c.UserSettings.ResultSettings.TileID + "_" + suffix
	}
	return filepath.Join(c.UserSettings.ResultSettings.ResultsDir,
		fmt.Sprintf("scenes_info_%s.json", suffix))
}

// ParseDateRange parses the configured range into start and end days.
func (c *Config) ParseDateRange() (time.Time, time.Time, error) {
	dr := c.UserSettings.AoiSettings.DateRange
	if len(dr) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("empty date range")
	}
	start, err := time.Parse(ISODateFormat, dr[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", dr[0], err)
	}
	end := start
	if len(dr) > 1 {
		end, err = time.Parse(ISODateFormat, dr[1])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", dr[1], err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range end %s before start %s", dr[1], dr[0])
	}
	return start, end, nil
}
