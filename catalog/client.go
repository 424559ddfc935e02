package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/context"

	"github.com/paulmach/orb/geojson"

	"s2downloader/utils"
)

// SearchEmptyError is returned when the catalog has no scene matching
// the search filters. It is fatal for the whole run.
type SearchEmptyError struct {
	Request *SearchRequest
}

func (e *SearchEmptyError) Error() string {
	return "Failed to find data at AWS server: for these settings there is no data to be found. " +
		"Try to adapt your search parameters: increase the time span, allow more cloud coverage, " +
		"or reduce the required data coverage."
}

// SearchRequest carries the catalog query: collections, bounding box,
// operator-keyed property filters and a day-granularity date range.
type SearchRequest struct {
	Collections []string
	BBox        []float64
	Datetime    string
	Query       map[string]*utils.Comparison
	Limit       int
}

// Client talks to a STAC search endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Verbose    bool
}

const defaultSearchLimit = 100

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type stacAsset struct {
	Href string `json:"href"`
}

type stacProperties struct {
	Datetime     string  `json:"datetime"`
	Platform     string  `json:"platform"`
	CloudCover   float64 `json:"eo:cloud_cover"`
	DataCoverage float64 `json:"sentinel:data_coverage"`
	UTMZone      int     `json:"sentinel:utm_zone"`
	LatitudeBand string  `json:"sentinel:latitude_band"`
	GridSquare   string  `json:"sentinel:grid_square"`
}

type stacFeature struct {
	ID         string               `json:"id"`
	Geometry   *geojson.Geometry    `json:"geometry"`
	Properties stacProperties       `json:"properties"`
	Assets     map[string]stacAsset `json:"assets"`
}

type stacLink struct {
	Rel  string          `json:"rel"`
	Href string          `json:"href"`
	Body json.RawMessage `json:"body"`
}

type stacResponse struct {
	Features []stacFeature `json:"features"`
	Links    []stacLink    `json:"links"`
}

// Search queries the catalog and returns the matching items ordered
// by acquisition time, newest first. A query with no matches returns
// a SearchEmptyError.
func (c *Client) Search(ctx context.Context, req *SearchRequest) ([]*SceneItem, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	body := map[string]interface{}{
		"collections": req.Collections,
		"bbox":        req.BBox,
		"datetime":    req.Datetime,
		"limit":       limit,
		"sortby": []map[string]string{
			{"field": "properties.datetime", "direction": "desc"},
		},
	}
	query := map[string]*utils.Comparison{}
	for prop, cmp := range req.Query {
		if !cmp.IsZero() {
			query[prop] = cmp
		}
	}
	if len(query) > 0 {
		body["query"] = query
	}

	var items []*SceneItem
	page := body
	for page != nil {
		resp, err := c.post(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, feat := range resp.Features {
			item, err := featureToItem(feat)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		page = nextPage(resp.Links, page)
	}

	if len(items) == 0 {
		return nil, &SearchEmptyError{Request: req}
	}

	// The server already sorts, but ordering gates scene selection,
	// so enforce it locally as well.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Datetime.After(items[j].Datetime)
	})

	if c.Verbose {
		log.Println("Date                    ID                          UTM Zone    Cloud Cover    Data Coverage")
		for _, item := range items {
			log.Printf("%s    %s    %d          %.1f           %.1f",
				item.Datetime.Format(time.RFC3339), item.ID, item.UTMZone, item.CloudCover, item.DataCoverage)
		}
	}
	return items, nil
}

func (c *Client) post(ctx context.Context, body map[string]interface{}) (*stacResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog search request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq = httpReq.WithContext(ctx)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("catalog search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := ioutil.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	resp := &stacResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return resp, nil
}

// nextPage follows the catalog's next link, merging any body the link
// supplies over the previous request.
func nextPage(links []stacLink, prev map[string]interface{}) map[string]interface{} {
	for _, link := range links {
		if link.Rel != "next" {
			continue
		}
		next := map[string]interface{}{}
		for k, v := range prev {
			next[k] = v
		}
		if len(link.Body) > 0 {
			merge := map[string]interface{}{}
			if err := json.Unmarshal(link.Body, &merge); err == nil {
				for k, v := range merge {
					next[k] = v
				}
				return next
			}
		}
		return nil
	}
	return nil
}

func featureToItem(feat stacFeature) (*SceneItem, error) {
	ts, err := time.Parse(time.RFC3339, feat.Properties.Datetime)
	if err != nil {
		return nil, fmt.Errorf("item %s has invalid datetime %q: %w", feat.ID, feat.Properties.Datetime, err)
	}
	assets := make(map[string]string, len(feat.Assets))
	for name, asset := range feat.Assets {
		assets[name] = asset.Href
	}
	return &SceneItem{
		ID:           feat.ID,
		Datetime:     ts,
		Platform:     feat.Properties.Platform,
		CloudCover:   feat.Properties.CloudCover,
		DataCoverage: feat.Properties.DataCoverage,
		UTMZone:      feat.Properties.UTMZone,
		LatitudeBand: feat.Properties.LatitudeBand,
		GridSquare:   feat.Properties.GridSquare,
		Geometry:     feat.Geometry,
		Assets:       assets,
	}, nil
}
