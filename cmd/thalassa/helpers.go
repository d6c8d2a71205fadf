package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/pmav99/thalassa/ncio"
	"github.com/pmav99/thalassa/render"
	"github.com/pmav99/thalassa/schema"
)

func openDataset(path string) (*schema.Dataset, error) {
	ds, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		"path", path, "solver", ds.Solver,
		"nodes", ds.NumNodes(), "triangles", ds.NumTriangles(), "times", ds.NumTimes())
	return ds, nil
}

// parseBBox parses "min_lon,min_lat,max_lon,max_lat". An empty string means
// no bounding box.
func parseBBox(s string) (orb.Bound, error) {
	if s == "" {
		return orb.Bound{}, nil
	}
	parts := strings.Split(s, ",")
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

func cliViewport(ds *schema.Dataset, bbox string, width, height int) (render.Viewport, error) {
	bound, err := parseBBox(bbox)
	if err != nil {
		return render.Viewport{}, err
	}
	if bound.IsZero() {
		bound = render.DatasetBound(ds)
	}
	return render.NewViewport(bound, width, height)
}

// nullableFloats maps NaN samples to null for JSON output.
func nullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("wrote output", "path", path, "bytes", len(data))
	return nil
}
