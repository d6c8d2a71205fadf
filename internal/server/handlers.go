package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/pmav99/thalassa/internal/catalog"
	"github.com/pmav99/thalassa/mesh"
	"github.com/pmav99/thalassa/render"
	"github.com/pmav99/thalassa/schema"
	"github.com/pmav99/thalassa/tiles"
)

func (s *Server) handleColormaps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"colormaps": render.Colormaps()})
}

func (s *Server) handleDatasets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"datasets": s.catalog.List()})
}

type variableInfo struct {
	Name     string   `json:"name"`
	Dims     []string `json:"dims"`
	Units    string   `json:"units,omitempty"`
	LongName string   `json:"long_name,omitempty"`
}

type datasetInfo struct {
	catalog.Entry
	Nodes     int            `json:"nodes"`
	Triangles int            `json:"triangles"`
	Times     int            `json:"times"`
	Layers    int            `json:"layers"`
	FirstTime *time.Time     `json:"first_time,omitempty"`
	LastTime  *time.Time     `json:"last_time,omitempty"`
	Variables []variableInfo `json:"variables"`
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	entry, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	info := datasetInfo{
		Entry:     entry,
		Nodes:     ds.NumNodes(),
		Triangles: ds.NumTriangles(),
		Times:     ds.NumTimes(),
		Layers:    ds.NLayers,
		Variables: []variableInfo{},
	}
	if ds.NumTimes() > 0 {
		first, last := ds.Times[0], ds.Times[ds.NumTimes()-1]
		info.FirstTime, info.LastTime = &first, &last
	}
	for _, name := range ds.VisualizableVariables() {
		v := ds.Var(name)
		info.Variables = append(info.Variables, variableInfo{
			Name:     v.Name,
			Dims:     v.Dims,
			Units:    v.Units,
			LongName: v.LongName,
		})
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRaster(w http.ResponseWriter, r *http.Request) {
	entry, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	data, err := s.rendered("raster", entry, r, func() ([]byte, error) {
		opts := render.DefaultPlotOptions()
		opts.Raster.Colorbar = true

		variable := r.URL.Query().Get("var")
		if variable == "" {
			return nil, fmt.Errorf("missing required query parameter: var")
		}
		var err error
		if opts.TimeIndex, err = queryTimeIndex(ds, r); err != nil {
			return nil, err
		}
		if opts.Layer, err = queryInt(r, "layer", 0); err != nil {
			return nil, err
		}
		if opts.Width, opts.Height, err = querySize(r); err != nil {
			return nil, err
		}
		if opts.BBox, err = queryBBox(r); err != nil {
			return nil, err
		}
		if cmap := r.URL.Query().Get("cmap"); cmap != "" {
			opts.Raster.Cmap = cmap
		}
		if opts.Raster.ClimMin, err = queryFloat(r, "clim_min", opts.Raster.ClimMin); err != nil {
			return nil, err
		}
		if opts.Raster.ClimMax, err = queryFloat(r, "clim_max", opts.Raster.ClimMax); err != nil {
			return nil, err
		}
		opts.Raster.CLabel = unitsLabel(ds, variable)
		if opts.ShowMesh, err = queryBool(r, "mesh", false); err != nil {
			return nil, err
		}
		if opts.ShowNodes, err = queryBool(r, "nodes", false); err != nil {
			return nil, err
		}
		basemap, err := queryBool(r, "basemap", false)
		if err != nil {
			return nil, err
		}
		if basemap && s.tiles != nil {
			opts.Basemap = func(vp render.Viewport) (image.Image, error) {
				return tiles.Basemap(r.Context(), s.tiles, vp)
			}
		}

		img, err := render.Plot(ds, variable, opts)
		if err != nil {
			return nil, err
		}
		return render.EncodePNG(img)
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writePNG(w, data)
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	entry, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	data, err := s.rendered("mesh", entry, r, func() ([]byte, error) {
		vp, err := viewportFor(ds, r)
		if err != nil {
			return nil, err
		}
		return render.EncodePNG(render.Wireframe(ds, vp, render.DefaultWireframeOptions()))
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writePNG(w, data)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	entry, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	data, err := s.rendered("nodes", entry, r, func() ([]byte, error) {
		vp, err := viewportFor(ds, r)
		if err != nil {
			return nil, err
		}
		opts := render.DefaultNodeOptions()
		size, err := queryFloat(r, "size", opts.Size)
		if err != nil {
			return nil, err
		}
		opts.Size = size
		return render.EncodePNG(render.Nodes(ds, vp, opts))
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writePNG(w, data)
}

// Values holds null for NaN samples; encoding/json cannot represent NaN.
type timeseriesResponse struct {
	Dataset  string      `json:"dataset"`
	Variable string      `json:"variable"`
	Node     int         `json:"node"`
	Lon      float64     `json:"lon"`
	Lat      float64     `json:"lat"`
	Times    []time.Time `json:"times"`
	Values   []*float64  `json:"values"`
}

func nullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	entry, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	variable := r.URL.Query().Get("var")
	if variable == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing required query parameter: var"))
		return
	}
	node, err := queryNode(ds, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layer, err := queryInt(r, "layer", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	times, values, err := ds.NodeSeries(variable, node, layer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		data, err := s.rendered("timeseries", entry, r, func() ([]byte, error) {
			return json.Marshal(timeseriesResponse{
				Dataset:  entry.Name,
				Variable: variable,
				Node:     node,
				Lon:      ds.Lon[node],
				Lat:      ds.Lat[node],
				Times:    times,
				Values:   nullableFloats(values),
			})
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck // client gone
		return
	}

	data, err := s.rendered("timeseries", entry, r, func() ([]byte, error) {
		opts := render.DefaultTimeseriesOptions()
		opts.Title = fmt.Sprintf("%s @ node %d (%.4f, %.4f)", variable, node, ds.Lon[node], ds.Lat[node])
		opts.YLabel = unitsLabel(ds, variable)
		return render.Timeseries(times, values, opts)
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writePNG(w, data)
}

func (s *Server) handleBoundary(w http.ResponseWriter, r *http.Request) {
	_, ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	fc, err := mesh.Boundary(ds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data) //nolint:errcheck // client gone
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	if s.tiles == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("basemap tiles are disabled"))
		return
	}
	z, err1 := strconv.ParseUint(r.PathValue("z"), 10, 32)
	x, err2 := strconv.ParseUint(r.PathValue("x"), 10, 32)
	y, err3 := strconv.ParseUint(strings.TrimSuffix(r.PathValue("y"), ".png"), 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("tile coordinates must be integers"))
		return
	}

	img, err := s.tiles.Fetch(r.Context(), uint32(z), uint32(x), uint32(y))
	if err != nil {
		s.metrics.TileRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.metrics.TileRequests.WithLabelValues("success").Inc()

	data, err := render.EncodePNG(img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writePNG(w, data)
}

// --- shared handler plumbing ---

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (catalog.Entry, *schema.Dataset, bool) {
	name := r.PathValue("name")
	entry, ok := s.catalog.Entry(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown dataset %q", name))
		return catalog.Entry{}, nil, false
	}
	ds, err := s.catalog.Get(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return catalog.Entry{}, nil, false
	}
	return entry, ds, true
}

// rendered serves a response body through the render cache, producing and
// timing it on a miss.
func (s *Server) rendered(kind string, entry catalog.Entry, r *http.Request, produce func() ([]byte, error)) ([]byte, error) {
	key := renderID(kind, entry.Name, entry.ModTime, r.URL.RawQuery)
	if data, ok := s.renderCache.Get(key); ok {
		s.metrics.RenderCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	s.metrics.RenderCache.WithLabelValues("miss").Inc()

	start := time.Now()
	data, err := produce()
	if err != nil {
		s.metrics.RenderRequests.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	s.metrics.RenderRequests.WithLabelValues(kind, "success").Inc()
	s.metrics.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	s.renderCache.Put(key, data)
	return data, nil
}

func viewportFor(ds *schema.Dataset, r *http.Request) (render.Viewport, error) {
	width, height, err := querySize(r)
	if err != nil {
		return render.Viewport{}, err
	}
	bbox, err := queryBBox(r)
	if err != nil {
		return render.Viewport{}, err
	}
	if bbox.IsZero() {
		bbox = render.DatasetBound(ds)
	}
	return render.NewViewport(bbox, width, height)
}

func queryNode(ds *schema.Dataset, r *http.Request) (int, error) {
	q := r.URL.Query()
	if q.Get("node") != "" {
		node, err := strconv.Atoi(q.Get("node"))
		if err != nil {
			return 0, fmt.Errorf("invalid node: %w", err)
		}
		if node < 0 || node >= ds.NumNodes() {
			return 0, fmt.Errorf("node %d out of range [0, %d)", node, ds.NumNodes())
		}
		return node, nil
	}
	if q.Get("lon") == "" || q.Get("lat") == "" {
		return 0, fmt.Errorf("either node or lon and lat are required")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lon: %w", err)
	}
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lat: %w", err)
	}
	return mesh.NearestNode(ds, lon, lat), nil
}

func queryTimeIndex(ds *schema.Dataset, r *http.Request) (int, error) {
	v := r.URL.Query().Get("time")
	if v == "" || v == "max" {
		return render.MaxTimeIndex, nil
	}
	if idx, err := strconv.Atoi(v); err == nil {
		if idx < 0 {
			return 0, fmt.Errorf("time index must be non-negative: %d", idx)
		}
		return idx, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, fmt.Errorf("time must be an index, an RFC3339 timestamp or %q", "max")
	}
	if ds.NumTimes() == 0 {
		return 0, fmt.Errorf("dataset has no time dimension")
	}
	best := 0
	for i, t := range ds.Times {
		if t.Sub(ts).Abs() < ds.Times[best].Sub(ts).Abs() {
			best = i
		}
	}
	return best, nil
}

func querySize(r *http.Request) (int, int, error) {
	width, err := queryInt(r, "width", 800)
	if err != nil {
		return 0, 0, err
	}
	height, err := queryInt(r, "height", 600)
	if err != nil {
		return 0, 0, err
	}
	const maxDim = 4096
	if width <= 0 || height <= 0 || width > maxDim || height > maxDim {
		return 0, 0, fmt.Errorf("image size %dx%d out of range (max %d)", width, height, maxDim)
	}
	return width, height, nil
}

func queryBBox(r *http.Request) (orb.Bound, error) {
	v := r.URL.Query().Get("bbox")
	if v == "" {
		return orb.Bound{}, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must be min_lon,min_lat,max_lon,max_lat")
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox: %w", err)
		}
		vals[i] = f
	}
	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func unitsLabel(ds *schema.Dataset, variable string) string {
	if v := ds.Var(variable); v != nil && v.Units != "" {
		return fmt.Sprintf("%s [%s]", variable, v.Units)
	}
	return variable
}
