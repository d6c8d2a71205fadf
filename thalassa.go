// Package thalassa provides visualizations for unstructured-mesh ocean
// model output (SCHISM, ADCIRC, Telemac).
//
// Model files are normalized into a single canonical schema and can then be
// cropped, rendered as rasters, wireframes or node markers, reduced to
// per-node timeseries, or compared against station observations. The
// subpackages do the work; this package bundles the common entry points.
package thalassa

import (
	"image"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pmav99/thalassa/mesh"
	"github.com/pmav99/thalassa/ncio"
	"github.com/pmav99/thalassa/normalize"
	"github.com/pmav99/thalassa/render"
	"github.com/pmav99/thalassa/schema"
)

// Open reads a NetCDF file and normalizes it to the canonical schema,
// auto-detecting the solver that produced it.
func Open(path string) (*schema.Dataset, error) {
	return ncio.Open(path)
}

// Normalize converts an already-decoded raw dataset to the canonical schema.
func Normalize(raw *normalize.RawDataset) (*schema.Dataset, error) {
	return normalize.Normalize(raw)
}

// Crop returns a copy of the dataset restricted to the elements fully inside
// the bounding box.
func Crop(ds *schema.Dataset, bbox orb.Bound) (*schema.Dataset, error) {
	return mesh.Crop(ds, bbox)
}

// Boundary extracts the exterior and island rings of the mesh as GeoJSON.
func Boundary(ds *schema.Dataset) (*geojson.FeatureCollection, error) {
	return mesh.Boundary(ds)
}

// Plot renders a variable on the mesh. See render.PlotOptions for the knobs.
func Plot(ds *schema.Dataset, variable string, opts render.PlotOptions) (*image.RGBA, error) {
	return render.Plot(ds, variable, opts)
}
