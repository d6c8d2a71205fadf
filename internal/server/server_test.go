package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmav99/thalassa/internal/catalog"
	"github.com/pmav99/thalassa/internal/observability"
	"github.com/pmav99/thalassa/internal/server"
	"github.com/pmav99/thalassa/ncio"
	"github.com/pmav99/thalassa/schema"
)

type stubFetcher struct {
	calls int
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, _, _, _ uint32) (image.Image, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetRGBA(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	return img, nil
}

func writeDataset(t *testing.T, path string) {
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
				Name:  "elev",
				Dims:  []string{"time", "node"},
				Data:  []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
				Units: "m",
			},
		},
	}
	require.NoError(t, ds.Validate())
	require.NoError(t, ncio.Write(path, ds))
}

func newTestServer(t *testing.T, fetcher *stubFetcher) *server.Server {
	srv, _ := newTestServerWithMetrics(t, fetcher)
	return srv
}

func newTestServerWithMetrics(t *testing.T, fetcher *stubFetcher) (*server.Server, *observability.Metrics) {
	t.Helper()
	dir := t.TempDir()
	writeDataset(t, filepath.Join(dir, "run.nc"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cat := catalog.New(dir, 4, logger, metrics)
	require.NoError(t, cat.Refresh(context.Background()))

	if fetcher == nil {
		return server.NewServer(":0", cat, nil, 16, logger, metrics), metrics
	}
	return server.NewServer(":0", cat, fetcher, 16, logger, metrics), metrics
}

func get(srv *server.Server, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(newTestServer(t, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready after refresh", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("503 before refresh", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		metrics := observability.NewMetricsForTesting()
		cat := catalog.New(t.TempDir(), 4, logger, metrics)
		srv := server.NewServer(":0", cat, nil, 16, logger, metrics)

		rec := get(srv, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestColormaps(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/colormaps")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["colormaps"], "viridis")
}

func TestDatasets(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/datasets")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Datasets []struct {
			Name   string `json:"name"`
			Solver string `json:"solver"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Datasets, 1)
	assert.Equal(t, "run.nc", body.Datasets[0].Name)
	assert.Equal(t, "generic", body.Datasets[0].Solver)
}

func TestDatasetInfo(t *testing.T) {
	t.Run("describes the dataset", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Nodes     int `json:"nodes"`
			Triangles int `json:"triangles"`
			Times     int `json:"times"`
			Variables []struct {
				Name  string `json:"name"`
				Units string `json:"units"`
			} `json:"variables"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 4, body.Nodes)
		assert.Equal(t, 2, body.Triangles)
		assert.Equal(t, 2, body.Times)
		require.Len(t, body.Variables, 1)
		assert.Equal(t, "elev", body.Variables[0].Name)
		assert.Equal(t, "m", body.Variables[0].Units)
	})

	t.Run("404 for unknown dataset", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/nope.nc")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRaster(t *testing.T) {
	pngMagic := []byte{0x89, 'P', 'N', 'G'}

	t.Run("renders a png", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster?var=elev&width=64&height=64")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, pngMagic, rec.Body.Bytes()[:4])
	})

	t.Run("accepts a timestep and overlays", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster?var=elev&time=1&mesh=true&nodes=true&width=64&height=64")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("accepts an rfc3339 timestamp", func(t *testing.T) {
		srv := newTestServer(t, nil)

		rec := get(srv, "/api/datasets/run.nc/raster?var=elev&time=2024-01-01T01:00:00Z&width=64&height=64")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, pngMagic, rec.Body.Bytes()[:4])

		// Between samples the nearest timestep wins, so this renders the
		// same image as time=1.
		exact := get(srv, "/api/datasets/run.nc/raster?var=elev&time=1&width=64&height=64")
		near := get(srv, "/api/datasets/run.nc/raster?var=elev&time=2024-01-01T00:50:00Z&width=64&height=64")
		require.Equal(t, http.StatusOK, near.Code, near.Body.String())
		assert.Equal(t, exact.Body.Bytes(), near.Body.Bytes())
	})

	t.Run("rejects a malformed time", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster?var=elev&time=yesterday")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "RFC3339")
	})

	t.Run("missing var", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "var")
	})

	t.Run("bad bbox", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster?var=elev&bbox=1,2,3")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized image", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/raster?var=elev&width=100000")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMeshAndNodes(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(srv, "/api/datasets/run.nc/mesh?width=64&height=64")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = get(srv, "/api/datasets/run.nc/nodes?width=64&height=64&size=6")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestTimeseries(t *testing.T) {
	t.Run("json by nearest node", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/timeseries?var=elev&lon=0.05&lat=0.05&format=json")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Node   int       `json:"node"`
			Lon    float64   `json:"lon"`
			Values []float64 `json:"values"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 0, body.Node)
		assert.Equal(t, []float64{0.1, 0.5}, body.Values)
	})

	t.Run("png by node index", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/timeseries?var=elev&node=2")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	})

	t.Run("node out of range", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/timeseries?var=elev&node=99")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing position", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/api/datasets/run.nc/timeseries?var=elev")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("json requests are counted and cached", func(t *testing.T) {
		srv, metrics := newTestServerWithMetrics(t, nil)
		url := "/api/datasets/run.nc/timeseries?var=elev&node=1&format=json"

		first := get(srv, url)
		require.Equal(t, http.StatusOK, first.Code, first.Body.String())
		assert.Equal(t, "application/json", first.Header().Get("Content-Type"))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderRequests.WithLabelValues("timeseries", "success")))

		second := get(srv, url)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderCache.WithLabelValues("hit")))
	})
}

func TestBoundary(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/datasets/run.nc/boundary")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
}

func TestTileProxy(t *testing.T) {
	t.Run("serves tiles", func(t *testing.T) {
		fetcher := &stubFetcher{}
		rec := get(newTestServer(t, fetcher), "/tiles/3/4/5.png")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("404 when disabled", func(t *testing.T) {
		rec := get(newTestServer(t, nil), "/tiles/3/4/5.png")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("502 on upstream failure", func(t *testing.T) {
		rec := get(newTestServer(t, &stubFetcher{err: fmt.Errorf("offline")}), "/tiles/3/4/5.png")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("rejects junk coordinates", func(t *testing.T) {
		rec := get(newTestServer(t, &stubFetcher{}), "/tiles/z/x/y.png")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRenderCache(t *testing.T) {
	srv := newTestServer(t, nil)
	url := "/api/datasets/run.nc/raster?var=elev&width=48&height=48"

	first := get(srv, url)
	require.Equal(t, http.StatusOK, first.Code)
	second := get(srv, url)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}
