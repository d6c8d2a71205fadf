package render

import (
	"fmt"
	"image"
	"math"

	"github.com/pmav99/thalassa/schema"
)

// RasterOptions control the field renderer.
type RasterOptions struct {
	Title    string
	Cmap     string
	Colorbar bool
	CLabel   string
	// ClimMin/ClimMax clamp the colorbar range. NaN means auto (data range).
	ClimMin float64
	ClimMax float64
}

// DefaultRasterOptions returns the renderer defaults: plasma colormap with
// an attached colorbar and automatic range.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		Cmap:     DefaultCmap,
		Colorbar: true,
		ClimMin:  math.NaN(),
		ClimMax:  math.NaN(),
	}
}

// Raster renders per-node values over the dataset's triangulation into an
// RGBA image sized to the viewport. values must be node-aligned, typically
// produced by Dataset.Slice or Dataset.MaxOverTime. Pixels not covered by
// any element with finite data stay transparent.
func Raster(ds *schema.Dataset, values []float64, vp Viewport, opts RasterOptions) (*image.RGBA, error) {
	if len(values) != ds.NumNodes() {
		return nil, fmt.Errorf("raster: %d values for %d nodes", len(values), ds.NumNodes())
	}
	lo, hi := clim(values, opts.ClimMin, opts.ClimMax)
	lut, err := NewLut(opts.Cmap, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	for _, tri := range ds.Triangles {
		fillTriangle(img, ds, tri, values, vp, lut)
	}

	if opts.Colorbar {
		img = attachColorbar(img, lut, opts.CLabel)
	}
	if opts.Title != "" {
		drawTitle(img, opts.Title)
	}
	return img, nil
}

// clim resolves the colorbar range: explicit limits win, otherwise the
// finite data range is used.
func clim(values []float64, wantLo, wantHi float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if !math.IsNaN(wantLo) {
		lo = wantLo
	}
	if !math.IsNaN(wantHi) {
		hi = wantHi
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// fillTriangle rasterizes one element with an edge-function scan and
// barycentric interpolation of the vertex values.
func fillTriangle(img *image.RGBA, ds *schema.Dataset, tri [3]int32, values []float64, vp Viewport, lut *Lut) {
	v0, v1, v2 := values[tri[0]], values[tri[1]], values[tri[2]]
	if math.IsNaN(v0) || math.IsNaN(v1) || math.IsNaN(v2) {
		return
	}
	x0, y0 := vp.ToPixel(ds.Lon[tri[0]], ds.Lat[tri[0]])
	x1, y1 := vp.ToPixel(ds.Lon[tri[1]], ds.Lat[tri[1]])
	x2, y2 := vp.ToPixel(ds.Lon[tri[2]], ds.Lat[tri[2]])

	// Signed doubled area; zero means the element is degenerate on screen.
	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if area == 0 {
		return
	}

	minX := int(math.Floor(min(x0, min(x1, x2))))
	maxX := int(math.Ceil(max(x0, max(x1, x2))))
	minY := int(math.Floor(min(y0, min(y1, y2))))
	maxY := int(math.Ceil(max(y0, max(y1, y2))))
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, vp.Width-1)
	maxY = min(maxY, vp.Height-1)

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			cx, cy := float64(px)+0.5, float64(py)+0.5
			// Barycentric weights, normalized by the signed area so both
			// winding orders work.
			w0 := ((x1-cx)*(y2-cy) - (x2-cx)*(y1-cy)) / area
			w1 := ((x2-cx)*(y0-cy) - (x0-cx)*(y2-cy)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			val := w0*v0 + w1*v1 + w2*v2
			img.SetRGBA(px, py, lut.At(val))
		}
	}
}
