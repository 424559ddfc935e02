package utils

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

const testConfigJSON = `{
    "user_settings": {
        "aoi_settings": {
            "bounding_box": [13.4, 52.4, 13.5, 52.5],
            "SCL_filter_values": [3, 7, 8, 9, 10],
            "SCL_mask_valid_pixels_min_percentage": 2.0,
            "aoi_min_coverage": 60.0,
            "date_range": ["2021-09-01", "2021-09-10"]
        },
        "tile_settings": {
            "platform": {"in": ["sentinel-2a", "sentinel-2b"]},
            "eo:cloud_cover": {"lt": 30},
            "bands": ["B02", "B03", "B04"]
        },
        "result_settings": {
            "results_dir": "/tmp/s2_results"
        }
    },
    "s2_settings": {}
}`

func writeTempConfig(t *testing.T, name, body string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "config_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "config.json", testConfigJSON))
	if err != nil {
		t.Fatal(err)
	}

	aoi := cfg.UserSettings.AoiSettings
	if len(aoi.BoundingBox) != 4 || aoi.BoundingBox[0] != 13.4 {
		t.Errorf("bounding box: got %v", aoi.BoundingBox)
	}
	if aoi.SCLMaskValidPixelsMinPct != 2.0 {
		t.Errorf("got min pixel pct %v, want 2", aoi.SCLMaskValidPixelsMinPct)
	}
	if aoi.AoiMinCoverage != 60.0 {
		t.Errorf("got min coverage %v, want 60", aoi.AoiMinCoverage)
	}

	tile := cfg.UserSettings.TileSettings
	if tile.CloudCover.Op != OpLt {
		t.Errorf("got cloud cover op %q, want lt", tile.CloudCover.Op)
	}
	if tile.Platform.Op != OpIn {
		t.Errorf("got platform op %q, want in", tile.Platform.Op)
	}
	if len(tile.Bands) != 3 || tile.Bands[0] != "B02" {
		t.Errorf("bands: got %v", tile.Bands)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "config.json", testConfigJSON))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.S2Settings.StacCatalogURL != DefaultStacCatalogURL {
		t.Errorf("got catalog URL %q", cfg.S2Settings.StacCatalogURL)
	}
	if len(cfg.S2Settings.Collections) != 1 || cfg.S2Settings.Collections[0] != DefaultCollection {
		t.Errorf("got collections %v", cfg.S2Settings.Collections)
	}

	aoi := cfg.UserSettings.AoiSettings
	if aoi.ResamplingMethod != "cubic" {
		t.Errorf("got resampling %q, want cubic", aoi.ResamplingMethod)
	}
	if aoi.TargetResolution != 10.0 {
		t.Errorf("got resolution %v, want 10", aoi.TargetResolution)
	}
	if aoi.MaxUTMZoneOverlapDistance != 50000.0 {
		t.Errorf("got overlap distance %v, want 50000", aoi.MaxUTMZoneOverlapDistance)
	}
	if aoi.ApplySCLBandMask == nil || !*aoi.ApplySCLBandMask {
		t.Error("SCL mask should default to enabled")
	}
}

func TestLoadConfigYAML(t *testing.T) {
	doc := `user_settings:
  aoi_settings:
    bounding_box: [13.4, 52.4, 13.5, 52.5]
    date_range: ["2021-09-01"]
  tile_settings:
    cloud_cover:
      lt: 30
    bands: [B04]
  result_settings:
    results_dir: /tmp/s2_results
s2_settings: {}
`
	cfg, err := LoadConfig(writeTempConfig(t, "config.yaml", doc))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UserSettings.TileSettings.CloudCover.Op != OpLt {
		t.Errorf("got op %q, want lt", cfg.UserSettings.TileSettings.CloudCover.Op)
	}
	if cfg.UserSettings.AoiSettings.BoundingBox[3] != 52.5 {
		t.Errorf("bounding box: got %v", cfg.UserSettings.AoiSettings.BoundingBox)
	}
}

func TestLoadConfigUnknownBand(t *testing.T) {
	doc := `{
    "user_settings": {
        "tile_settings": {"bands": ["B02", "B99"]},
        "result_settings": {"results_dir": "/tmp/s2_results"}
    },
    "s2_settings": {}
}`
	if _, err := LoadConfig(writeTempConfig(t, "config.json", doc)); err == nil {
		t.Error("expected error for unknown band B99")
	}
}

func TestDateRangeString(t *testing.T) {
	cfg := &Config{}
	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-01", "2021-09-10"}
	if s := cfg.DateRangeString(); s != "2021-09-01/2021-09-10" {
		t.Errorf("got %q", s)
	}

	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-01", "2021-09-01"}
	if s := cfg.DateRangeString(); s != "2021-09-01" {
		t.Errorf("single day range: got %q", s)
	}

	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-01"}
	if s := cfg.DateRangeString(); s != "2021-09-01" {
		t.Errorf("single entry: got %q", s)
	}
}

func TestManifestPath(t *testing.T) {
	cfg := &Config{}
	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-01", "2021-09-10"}
	cfg.UserSettings.ResultSettings.ResultsDir = "/tmp/s2_results"

	want := "/tmp/s2_results/scenes_info_2021-09-01_2021-09-10.json"
	if p := cfg.ManifestPath(); p != want {
		t.Errorf("got %q, want %q", p, want)
	}

	cfg.UserSettings.ResultSettings.TileID = "32UQD"
	want = "/tmp/s2_results/scenes_info_32UQD_2021-09-01_2021-09-10.json"
	if p := cfg.ManifestPath(); p != want {
		t.Errorf("got %q, want %q", p, want)
	}
}

func TestParseDateRange(t *testing.T) {
	cfg := &Config{}
	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-01", "2021-09-10"}
	start, end, err := cfg.ParseDateRange()
	if err != nil {
		t.Fatal(err)
	}
	if start.Format(ISODateFormat) != "2021-09-01" || end.Format(ISODateFormat) != "2021-09-10" {
		t.Errorf("got %v / %v", start, end)
	}

	cfg.UserSettings.AoiSettings.DateRange = []string{"2021-09-10", "2021-09-01"}
	if _, _, err := cfg.ParseDateRange(); err == nil {
		t.Error("expected error for reversed range")
	}

	cfg.UserSettings.AoiSettings.DateRange = []string{"01.09.2021"}
	if _, _, err := cfg.ParseDateRange(); err == nil {
		t.Error("expected error for malformed date")
	}
}
