package grids

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/lukeroth/gdal"
)

// DefaultNoData is the raster fill value substituted for NaN cells on export.
const DefaultNoData = -9999.0

// WriteGeoTIFF writes a gridded array as a single-band LZW-compressed GeoTIFF
// whose geotransform and CRS come from the grid definition. NaN cells are
// written as the nodata value.
func (g *GridDefinition) WriteGeoTIFF(data *sparse.DenseArray, path string, nodata float64) error {
	if len(data.Shape) != 2 {
		return fmt.Errorf("write geotiff %s: array must be 2D, got %d dims", path, len(data.Shape))
	}
	if data.Shape[0] != g.NRows || data.Shape[1] != g.NCols {
		return fmt.Errorf("write geotiff %s: array is %dx%d, grid %s is %dx%d",
			path, data.Shape[0], data.Shape[1], g.Name, g.NRows, g.NCols)
	}

	driver, err := gdal.GetDriverByName("GTiff")
	if err != nil {
		return fmt.Errorf("write geotiff %s: %w", path, err)
	}
	ds := driver.Create(path, g.NCols, g.NRows, 1, gdal.Float32, []string{"COMPRESS=LZW"})
	defer ds.Close()

	// Row 0 is the top of the grid, so the y pixel size is negative.
	ds.SetGeoTransform([6]float64{g.XMin, g.Res, 0, g.YMax, 0, -g.Res})

	sr := gdal.CreateSpatialReference("")
	if err := sr.FromEPSG(g.EPSG); err != nil {
		return fmt.Errorf("write geotiff %s: EPSG %d: %w", path, g.EPSG, err)
	}
	wkt, err := sr.ToWKT()
	if err != nil {
		return fmt.Errorf("write geotiff %s: %w", path, err)
	}
	if err := ds.SetProjection(wkt); err != nil {
		return fmt.Errorf("write geotiff %s: %w", path, err)
	}

	buf := make([]float32, g.NRows*g.NCols)
	for i, v := range data.Elements {
		if math.IsNaN(v) {
			buf[i] = float32(nodata)
		} else {
			buf[i] = float32(v)
		}
	}

	band := ds.RasterBand(1)
	if err := band.SetNoDataValue(nodata); err != nil {
		return fmt.Errorf("write geotiff %s: %w", path, err)
	}
	if err := band.IO(gdal.Write, 0, 0, g.NCols, g.NRows, buf, g.NCols, g.NRows, 0, 0); err != nil {
		return fmt.Errorf("write geotiff %s: %w", path, err)
	}
	return nil
}
