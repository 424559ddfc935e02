package processor

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"s2downloader/catalog"
)

const thumbnailAsset = "thumbnail"
const overviewAsset = "overview"

const defaultDownloadConcurrency = 4

var downloadClient = &http.Client{Timeout: 120 * time.Second}

// downloadAssets fetches the thumbnail and/or overview images of all
// items of one date into the output directory. Downloads run
// concurrently but bounded; the first failure cancels the rest.
func downloadAssets(ctx context.Context, items []*catalog.SceneItem, outDir, aoiName string,
	thumbnails, overviews bool, limiter *downloadLimiter) error {

	if !thumbnails && !overviews {
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", outDir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		var assets []string
		if thumbnails {
			assets = append(assets, thumbnailAsset)
		}
		if overviews {
			assets = append(assets, overviewAsset)
		}
		for _, asset := range assets {
			href, err := item.AssetHref(asset)
			if err != nil {
				return err
			}
			itemID := item.ID
			limiter.Acquire()
			g.Go(func() error {
				defer limiter.Release()
				name := assetFileName(aoiName, itemID, href)
				return downloadFile(ctx, href, filepath.Join(outDir, name))
			})
		}
	}
	return g.Wait()
}

// assetFileName builds <aoi>_<itemID>_<href basename>.
func assetFileName(aoiName, itemID, href string) string {
	base := href
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if aoiName == "" {
		return fmt.Sprintf("%s_%s", itemID, base)
	}
	return fmt.Sprintf("%s_%s_%s", aoiName, itemID, base)
}

func downloadFile(ctx context.Context, href, path string) error {
	req, err := http.NewRequest("GET", href, nil)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)

	resp, err := downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", href, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", href, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
