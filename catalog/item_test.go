package catalog

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestTileID(t *testing.T) {
	item := &SceneItem{UTMZone: 32, LatitudeBand: "U", GridSquare: "QD"}
	if id := item.TileID(); id != "32UQD" {
		t.Errorf("got %q, want 32UQD", id)
	}
}

func TestItemEPSG(t *testing.T) {
	item := &SceneItem{UTMZone: 32, LatitudeBand: "U"}
	if epsg := item.EPSG(); epsg != 32632 {
		t.Errorf("got %d, want 32632", epsg)
	}

	item = &SceneItem{UTMZone: 34, LatitudeBand: "H"}
	if epsg := item.EPSG(); epsg != 32734 {
		t.Errorf("got %d, want 32734", epsg)
	}

	item = &SceneItem{}
	if epsg := item.EPSG(); epsg != 0 {
		t.Errorf("got %d, want 0", epsg)
	}
}

func TestSensor(t *testing.T) {
	cases := map[string]string{
		"sentinel-2a": "S2A",
		"sentinel-2b": "S2B",
		"sentinel-2c": "sentinel-2c",
		"":            "S2",
	}
	for platform, want := range cases {
		item := &SceneItem{Platform: platform}
		if got := item.Sensor(); got != want {
			t.Errorf("platform %q: got %q, want %q", platform, got, want)
		}
	}
}

func TestAssetHref(t *testing.T) {
	item := &SceneItem{
		ID:     "S2A_32UQD_20210905_0_L2A",
		Assets: map[string]string{"B04": "https://example.com/B04.tif"},
	}
	href, err := item.AssetHref("B04")
	if err != nil {
		t.Fatal(err)
	}
	if href != "https://example.com/B04.tif" {
		t.Errorf("got %q", href)
	}
	if _, err := item.AssetHref("B05"); err == nil {
		t.Error("expected error for missing asset")
	}
}

func TestGroupByDate(t *testing.T) {
	items := []*SceneItem{
		{ID: "a", Datetime: mustTime(t, "2021-09-05T10:30:31Z")},
		{ID: "b", Datetime: mustTime(t, "2021-09-05T10:30:41Z")},
		{ID: "c", Datetime: mustTime(t, "2021-09-02T10:26:22Z")},
	}
	group := GroupByDate(items)

	if len(group.Dates) != 2 {
		t.Fatalf("got %d dates, want 2", len(group.Dates))
	}
	day := group.Dates["20210905"]
	if len(day) != 2 || day[0].ID != "a" || day[1].ID != "b" {
		t.Errorf("items of 20210905 out of order: %v", day)
	}
	if len(group.Dates["20210902"]) != 1 {
		t.Errorf("got %d items for 20210902, want 1", len(group.Dates["20210902"]))
	}
}

func TestSortedDates(t *testing.T) {
	group := GroupByDate([]*SceneItem{
		{Datetime: mustTime(t, "2021-09-05T10:30:31Z")},
		{Datetime: mustTime(t, "2021-09-02T10:26:22Z")},
		{Datetime: mustTime(t, "2021-09-07T10:30:31Z")},
	})

	dates := group.SortedDates()
	want := []string{"20210902", "20210905", "20210907"}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("got %v, want %v", dates, want)
		}
	}
	if mr := group.MostRecentDate(); mr != "20210907" {
		t.Errorf("got %q, want 20210907", mr)
	}
}

func TestMostRecentDateEmpty(t *testing.T) {
	group := &SceneGroup{Dates: map[string][]*SceneItem{}}
	if mr := group.MostRecentDate(); mr != "" {
		t.Errorf("got %q, want empty", mr)
	}
}
