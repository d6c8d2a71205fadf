package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/paulmach/orb"

	"github.com/pmav99/thalassa/schema"
)

// MaxTimeIndex selects the per-node maximum over the whole time axis instead
// of a single timestep.
const MaxTimeIndex = -1

// BasemapFunc supplies background imagery for a viewport. The returned image
// must match the viewport's pixel size.
type BasemapFunc func(vp Viewport) (image.Image, error)

// PlotOptions assemble a complete map view.
type PlotOptions struct {
	Raster RasterOptions

	Width  int
	Height int

	// BBox restricts the view; the zero bound means the whole mesh.
	BBox orb.Bound

	// TimeIndex selects the timestep, or MaxTimeIndex for the maximum
	// over time. Ignored for time-invariant variables.
	TimeIndex int
	Layer     int

	ShowMesh  bool
	ShowNodes bool
	NodeSize  float64

	// Basemap, when set, is drawn underneath the field raster.
	Basemap BasemapFunc
}

// DefaultPlotOptions returns an 800x600 view with the raster defaults.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		Raster:    DefaultRasterOptions(),
		Width:     800,
		Height:    600,
		TimeIndex: MaxTimeIndex,
	}
}

// Plot renders the full map view of a variable: optional basemap, the field
// raster, optional mesh and node overlays, colorbar and title.
func Plot(ds *schema.Dataset, variable string, opts PlotOptions) (*image.RGBA, error) {
	if !ds.IsVisualizable(variable) {
		return nil, fmt.Errorf("plot: variable %q is not visualizable (dims must be node, time/node or time/node/layer)", variable)
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}

	var values []float64
	var err error
	if opts.TimeIndex == MaxTimeIndex {
		values, err = ds.MaxOverTime(variable, opts.Layer)
	} else {
		values, err = ds.Slice(variable, opts.TimeIndex, opts.Layer)
	}
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}

	bbox := opts.BBox
	if bbox.IsZero() {
		bbox = DatasetBound(ds)
	}
	vp, err := NewViewport(bbox, opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}

	// The colorbar and title are attached after compositing so they are not
	// painted over by the overlays.
	rasterOpts := opts.Raster
	title := rasterOpts.Title
	if title == "" {
		title = variable
	}
	rasterOpts.Title = ""
	rasterOpts.Colorbar = false

	field, err := Raster(ds, values, vp, rasterOpts)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if opts.Basemap != nil {
		base, err := opts.Basemap(vp)
		if err != nil {
			return nil, fmt.Errorf("plot: basemap: %w", err)
		}
		draw.Draw(out, out.Bounds(), base, image.Point{}, draw.Over)
	}
	draw.Draw(out, out.Bounds(), field, image.Point{}, draw.Over)
	if opts.ShowMesh {
		draw.Draw(out, out.Bounds(), Wireframe(ds, vp, DefaultWireframeOptions()), image.Point{}, draw.Over)
	}
	if opts.ShowNodes {
		nodeOpts := DefaultNodeOptions()
		if opts.NodeSize > 0 {
			nodeOpts.Size = opts.NodeSize
		}
		draw.Draw(out, out.Bounds(), Nodes(ds, vp, nodeOpts), image.Point{}, draw.Over)
	}

	if opts.Raster.Colorbar {
		lo, hi := clim(values, opts.Raster.ClimMin, opts.Raster.ClimMax)
		lut, err := NewLut(opts.Raster.Cmap, lo, hi)
		if err != nil {
			return nil, err
		}
		out = attachColorbar(out, lut, opts.Raster.CLabel)
	}
	drawTitle(out, title)
	return out, nil
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
