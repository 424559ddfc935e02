package processor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
)

// WriteGeoTIFF persists a band raster with nodata 0. Float data is
// cast to unsigned 16-bit by adding 0.5 before truncation and mapping
// NaN to 0, unless the float32 output mode is requested. The SCL band
// stays 8-bit.
func WriteGeoTIFF(path string, raster *BandRaster, float32Mode bool) error {
	if err := raster.checkShape(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}

	dtype := raster.DType
	if float32Mode && dtype == "UInt16" {
		dtype = "Float32"
	}

	var gdalType godal.DataType
	switch dtype {
	case "Byte":
		gdalType = godal.Byte
	case "UInt16":
		gdalType = godal.UInt16
	case "Float32":
		gdalType = godal.Float32
	default:
		return fmt.Errorf("unsupported output data type: %q", dtype)
	}

	ds, err := godal.Create(godal.GTiff, path, 1, gdalType, raster.Width, raster.Height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform([6]float64(raster.Transform)); err != nil {
		return fmt.Errorf("failed to set geotransform on %s: %w", path, err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(raster.EPSG)
	if err != nil {
		return fmt.Errorf("failed to create CRS for EPSG:%d: %w", raster.EPSG, err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("failed to set CRS on %s: %w", path, err)
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(0); err != nil {
		return fmt.Errorf("failed to set nodata on %s: %w", path, err)
	}

	switch dtype {
	case "Byte":
		buf := make([]uint8, len(raster.Data))
		for i, v := range raster.Data {
			if math.IsNaN(v) {
				continue
			}
			buf[i] = uint8(v)
		}
		err = band.Write(0, 0, buf, raster.Width, raster.Height)
	case "UInt16":
		buf := CastToUint16(raster.Data)
		err = band.Write(0, 0, buf, raster.Width, raster.Height)
	case "Float32":
		buf := make([]float32, len(raster.Data))
		for i, v := range raster.Data {
			if math.IsNaN(v) {
				continue
			}
			buf[i] = float32(v)
		}
		err = band.Write(0, 0, buf, raster.Width, raster.Height)
	}
	if err != nil {
		return fmt.Errorf("failed to write pixels to %s: %w", path, err)
	}
	return nil
}

// CastToUint16 converts float samples to unsigned 16-bit, rounding by
// adding 0.5 before truncation and mapping NaN to 0.
func CastToUint16(data []float64) []uint16 {
	out := make([]uint16, len(data))
	for i, v := range data {
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		r := v + 0.5
		if r >= 65535 {
			out[i] = 65535
			continue
		}
		out[i] = uint16(r)
	}
	return out
}
