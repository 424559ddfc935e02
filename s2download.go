package main

/* s2download retrieves Sentinel-2 L2A surface reflectance data for an
   area of interest from a STAC catalog of cloud-optimized GeoTIFFs.
   Scenes are grouped per acquisition date, screened against the scene
   classification band, cloud masked, mosaicked across tile boundaries
   where needed and saved as GeoTIFF files in a single UTM zone.
   Configuration of a run is specified in a JSON or YAML config file
   describing the area of interest, the property filters and the
   output layout. */

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/airbusgeo/godal"

	"s2downloader/catalog"
	"s2downloader/grid"
	"s2downloader/metrics"
	proc "s2downloader/processor"
	"s2downloader/utils"
)

var (
	configPath = flag.String("conf", "config.json", "Run configuration file (JSON or YAML).")
	logDir     = flag.String("log_dir", "", "Run event log directory.")
	verbose    = flag.Bool("v", false, "Verbose mode for more outputs.")
)

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

var config *utils.Config

// init initialises the loggers, parses the flags and loads the run
// configuration. This is the first function to be called in main.
func init() {
	Error = log.New(os.Stderr, "S2: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "S2: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	var err error
	config, err = utils.LoadConfig(*configPath)
	if err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		panic(err)
	}

	if len(*logDir) > 0 {
		metricsLogger = metrics.NewFileLogger(*logDir, 0, 0, *verbose)
		Info.Printf("Run events will be logged under %s", *logDir)
	} else if *verbose {
		metricsLogger = metrics.NewStdoutLogger()
	} else {
		metricsLogger = metrics.NewNoopLogger()
	}

	godal.RegisterAll()
}

func main() {
	var refGrid *grid.ReferenceGrid
	gridPath := config.UserSettings.AoiSettings.UTMReferenceGridPath
	if len(gridPath) > 0 {
		var err error
		refGrid, err = grid.LoadReferenceGrid(gridPath)
		if err != nil {
			Error.Fatalf("Error in loading UTM reference grid %s: %v", gridPath, err)
		}
		Info.Printf("Loaded UTM reference grid from %s", gridPath)
	}

	client := catalog.NewClient(config.S2Settings.StacCatalogURL)
	client.Verbose = *verbose

	orch := proc.NewOrchestrator(config, client, refGrid, metricsLogger)
	if err := orch.Run(context.Background()); err != nil {
		Error.Fatalf("Run failed: %v", err)
	}
	Info.Printf("Run finished, scenes info written to %s", config.ManifestPath())
}
