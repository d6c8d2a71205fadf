package render

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmav99/thalassa/schema"
)

func testDataset(t *testing.T) *schema.Dataset {
	t.Helper()
	ds := &schema.Dataset{
		Lon:   []float64{0, 1, 1, 0},
		Lat:   []float64{0, 0, 1, 1},
		Depth: []float64{10, 20, 30, 40},
		Triangles: [][3]int32{
			{0, 1, 2},
			{0, 2, 3},
		},
		Times: []time.Time{
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		},
		Variables: map[string]*schema.Variable{
			"elev": {
				Name: "elev",
				Dims: []string{"time", "node"},
				Data: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
			},
		},
	}
	require.NoError(t, ds.Validate())
	return ds
}

func TestNewLut(t *testing.T) {
	t.Run("maps range endpoints", func(t *testing.T) {
		lut, err := NewLut("viridis", 0, 1)
		require.NoError(t, err)

		lo, hi := lut.Range()
		assert.Equal(t, 0.0, lo)
		assert.Equal(t, 1.0, hi)
		assert.Equal(t, lut.At(-5), lut.At(0), "values below the range clamp to the low end")
		assert.Equal(t, lut.At(5), lut.At(1), "values above the range clamp to the high end")
		assert.NotEqual(t, lut.At(0), lut.At(1))
	})

	t.Run("unknown colormap", func(t *testing.T) {
		_, err := NewLut("no-such-map", 0, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no-such-map")
	})
}

func TestViewport(t *testing.T) {
	vp, err := NewViewport(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, 100, 100)
	require.NoError(t, err)

	t.Run("pixel roundtrip", func(t *testing.T) {
		lon, lat := vp.ToLonLat(50, 50)
		x, y := vp.ToPixel(lon, lat)
		assert.InDelta(t, 50, x, 1)
		assert.InDelta(t, 50, y, 1)
	})

	t.Run("north is up", func(t *testing.T) {
		_, yLow := vp.ToPixel(0.5, 0.1)
		_, yHigh := vp.ToPixel(0.5, 0.9)
		assert.Greater(t, yLow, yHigh)
	})

	t.Run("rejects empty bounds", func(t *testing.T) {
		_, err := NewViewport(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}}, 100, 100)
		require.Error(t, err)
	})
}

func TestRaster(t *testing.T) {
	ds := testDataset(t)
	vp, err := NewViewport(DatasetBound(ds), 64, 64)
	require.NoError(t, err)

	t.Run("fills the mesh interior", func(t *testing.T) {
		values, err := ds.Slice("elev", 0, 0)
		require.NoError(t, err)

		img, err := Raster(ds, values, vp, DefaultRasterOptions())
		require.NoError(t, err)

		_, _, _, a := img.At(32, 32).RGBA()
		assert.NotZero(t, a, "mesh interior must be painted")
		_, _, _, a = img.At(0, 0).RGBA()
		assert.Zero(t, a, "outside the padded mesh stays transparent")
	})

	t.Run("skips NaN vertices", func(t *testing.T) {
		values := []float64{math.NaN(), 0.2, 0.3, 0.4}
		img, err := Raster(ds, values, vp, DefaultRasterOptions())
		require.NoError(t, err)
		require.NotNil(t, img)
	})

	t.Run("rejects mismatched values", func(t *testing.T) {
		_, err := Raster(ds, []float64{1, 2}, vp, DefaultRasterOptions())
		require.Error(t, err)
	})
}

func TestWireframeAndNodes(t *testing.T) {
	ds := testDataset(t)
	vp, err := NewViewport(DatasetBound(ds), 64, 64)
	require.NoError(t, err)

	t.Run("wireframe paints edges", func(t *testing.T) {
		img := Wireframe(ds, vp, DefaultWireframeOptions())
		painted := 0
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
					painted++
				}
			}
		}
		assert.Greater(t, painted, 64, "five edges across a 64px image")
	})

	t.Run("nodes paint markers", func(t *testing.T) {
		img := Nodes(ds, vp, DefaultNodeOptions())
		painted := 0
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
					painted++
				}
			}
		}
		assert.Greater(t, painted, 4)
	})
}

func TestPlot(t *testing.T) {
	ds := testDataset(t)

	t.Run("max over time with overlays", func(t *testing.T) {
		opts := DefaultPlotOptions()
		opts.Width, opts.Height = 120, 100
		opts.Raster.Colorbar = true
		opts.ShowMesh = true
		img, err := Plot(ds, "elev", opts)
		require.NoError(t, err)
		assert.Equal(t, 120+colorbarWidth, img.Bounds().Dx())
		assert.Equal(t, 100, img.Bounds().Dy())
	})

	t.Run("single timestep", func(t *testing.T) {
		opts := DefaultPlotOptions()
		opts.Width, opts.Height = 64, 64
		opts.TimeIndex = 1
		img, err := Plot(ds, "elev", opts)
		require.NoError(t, err)

		r, g, b, _ := img.At(0, 0).RGBA()
		assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b}, "background is white")
	})

	t.Run("rejects non-visualizable variables", func(t *testing.T) {
		_, err := Plot(ds, "missing", DefaultPlotOptions())
		require.Error(t, err)
	})
}

func TestEncodePNG(t *testing.T) {
	ds := testDataset(t)
	opts := DefaultPlotOptions()
	opts.Width, opts.Height = 32, 32
	img, err := Plot(ds, "elev", opts)
	require.NoError(t, err)

	data, err := EncodePNG(img)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestTimeseries(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
	}

	t.Run("renders a png", func(t *testing.T) {
		data, err := Timeseries(times, []float64{0.1, 0.5, 0.2}, DefaultTimeseriesOptions())
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
	})

	t.Run("tolerates gaps", func(t *testing.T) {
		_, err := Timeseries(times, []float64{0.1, math.NaN(), 0.2}, DefaultTimeseriesOptions())
		require.NoError(t, err)
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		_, err := Timeseries(times, []float64{1}, DefaultTimeseriesOptions())
		require.Error(t, err)
	})

	t.Run("rejects empty series", func(t *testing.T) {
		_, err := Timeseries(nil, nil, DefaultTimeseriesOptions())
		require.Error(t, err)
	})
}
