package schema

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Canonical dimension names.
const (
	DimNode    = "node"
	DimTriface = "triface"
	DimTime    = "time"
	DimLayer   = "layer"
)

// Canonical mesh variable names.
const (
	VarLon          = "lon"
	VarLat          = "lat"
	VarDepth        = "depth"
	VarTrifaceNodes = "triface_nodes"
)

// visualizableDims are the variable shapes the renderers can work with.
var visualizableDims = [][]string{
	{DimNode},
	{DimTime, DimNode},
	{DimTime, DimNode, DimLayer},
}

// Variable is a single labeled data variable: flat float64 values in C order
// over its dims plus the attributes worth keeping (units, long_name).
type Variable struct {
	Name     string
	Dims     []string
	Data     []float64
	Units    string
	LongName string
}

// Dataset is the normalized form of a solver output file.
type Dataset struct {
	Lon   []float64
	Lat   []float64
	Depth []float64 // optional, nil when the file carries no bathymetry

	// Triangles holds the element connectivity, one node-index triplet per
	// triangular element, 0-based.
	Triangles [][3]int32

	Times   []time.Time
	NLayers int // 0 for 2D output

	Variables map[string]*Variable

	// Provenance.
	SourcePath   string
	Solver       string
	NormalizedAt time.Time
}

// NumNodes returns the node count of the mesh.
func (ds *Dataset) NumNodes() int { return len(ds.Lon) }

// NumTriangles returns the element count of the mesh.
func (ds *Dataset) NumTriangles() int { return len(ds.Triangles) }

// NumTimes returns the length of the time axis, 0 for time-invariant output.
func (ds *Dataset) NumTimes() int { return len(ds.Times) }

// Var returns the named variable, or nil if absent.
func (ds *Dataset) Var(name string) *Variable {
	return ds.Variables[name]
}

// IsVisualizable reports whether the named variable can be fed to the
// renderers: its dims must be exactly (node), (time, node) or
// (time, node, layer). The coordinate variables themselves are excluded.
func (ds *Dataset) IsVisualizable(name string) bool {
	if name == VarLon || name == VarLat {
		return false
	}
	v := ds.Variables[name]
	if v == nil {
		return false
	}
	for _, dims := range visualizableDims {
		if slices.Equal(v.Dims, dims) {
			return true
		}
	}
	return false
}

// VisualizableVariables returns the sorted names of all variables the
// renderers can display.
func (ds *Dataset) VisualizableVariables() []string {
	var names []string
	for name := range ds.Variables {
		if ds.IsVisualizable(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Slice extracts the per-node values of a variable at one time/layer step.
// timeIdx is ignored for time-invariant variables and layerIdx for 2D ones.
func (ds *Dataset) Slice(name string, timeIdx, layerIdx int) ([]float64, error) {
	v := ds.Variables[name]
	if v == nil {
		return nil, fmt.Errorf("slice: no such variable: %q", name)
	}
	n := ds.NumNodes()
	switch {
	case slices.Equal(v.Dims, []string{DimNode}):
		return v.Data, nil
	case slices.Equal(v.Dims, []string{DimTime, DimNode}):
		if timeIdx < 0 || timeIdx >= ds.NumTimes() {
			return nil, fmt.Errorf("slice %q: time index %d out of range [0, %d)", name, timeIdx, ds.NumTimes())
		}
		return v.Data[timeIdx*n : (timeIdx+1)*n], nil
	case slices.Equal(v.Dims, []string{DimTime, DimNode, DimLayer}):
		if timeIdx < 0 || timeIdx >= ds.NumTimes() {
			return nil, fmt.Errorf("slice %q: time index %d out of range [0, %d)", name, timeIdx, ds.NumTimes())
		}
		if layerIdx < 0 || layerIdx >= ds.NLayers {
			return nil, fmt.Errorf("slice %q: layer index %d out of range [0, %d)", name, layerIdx, ds.NLayers)
		}
		out := make([]float64, n)
		stride := n * ds.NLayers
		for i := 0; i < n; i++ {
			out[i] = v.Data[timeIdx*stride+i*ds.NLayers+layerIdx]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("slice: variable %q with dims %v is not visualizable", name, v.Dims)
	}
}

// MaxOverTime returns the per-node maximum of a time-dependent variable over
// the whole time axis. NaN values are skipped; a node that is NaN at every
// timestep stays NaN.
func (ds *Dataset) MaxOverTime(name string, layerIdx int) ([]float64, error) {
	v := ds.Variables[name]
	if v == nil {
		return nil, fmt.Errorf("max: no such variable: %q", name)
	}
	if len(v.Dims) == 1 {
		// Already time-invariant.
		return ds.Slice(name, 0, layerIdx)
	}
	n := ds.NumNodes()
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	for t := 0; t < ds.NumTimes(); t++ {
		vals, err := ds.Slice(name, t, layerIdx)
		if err != nil {
			return nil, err
		}
		for i, val := range vals {
			if math.IsNaN(val) {
				continue
			}
			if math.IsNaN(out[i]) || val > out[i] {
				out[i] = val
			}
		}
	}
	return out, nil
}

// NodeSeries returns the full timeseries of a variable at one node.
func (ds *Dataset) NodeSeries(name string, nodeIdx, layerIdx int) ([]time.Time, []float64, error) {
	v := ds.Variables[name]
	if v == nil {
		return nil, nil, fmt.Errorf("series: no such variable: %q", name)
	}
	if nodeIdx < 0 || nodeIdx >= ds.NumNodes() {
		return nil, nil, fmt.Errorf("series %q: node index %d out of range [0, %d)", name, nodeIdx, ds.NumNodes())
	}
	if len(v.Dims) < 2 || v.Dims[0] != DimTime {
		return nil, nil, fmt.Errorf("series: variable %q has no time dimension", name)
	}
	vals := make([]float64, ds.NumTimes())
	for t := range vals {
		slice, err := ds.Slice(name, t, layerIdx)
		if err != nil {
			return nil, nil, err
		}
		vals[t] = slice[nodeIdx]
	}
	return ds.Times, vals, nil
}

// Validate checks the schema-uniformity invariants: coordinate slices of
// equal length, connectivity indices in range, and variable data sized
// consistently with the declared dims.
func (ds *Dataset) Validate() error {
	n := ds.NumNodes()
	if len(ds.Lat) != n {
		return fmt.Errorf("validate: lon has %d nodes, lat has %d", n, len(ds.Lat))
	}
	if ds.Depth != nil && len(ds.Depth) != n {
		return fmt.Errorf("validate: depth has %d values for %d nodes", len(ds.Depth), n)
	}
	for i, tri := range ds.Triangles {
		for _, idx := range tri {
			if idx < 0 || int(idx) >= n {
				return fmt.Errorf("validate: triangle %d references node %d, mesh has %d nodes", i, idx, n)
			}
		}
	}
	for name, v := range ds.Variables {
		want := 1
		checkable := true
		for _, dim := range v.Dims {
			switch dim {
			case DimNode:
				want *= n
			case DimTime:
				want *= ds.NumTimes()
			case DimLayer:
				want *= ds.NLayers
			case DimTriface:
				want *= ds.NumTriangles()
			default:
				// Unknown dims are carried through unchecked.
				checkable = false
			}
		}
		if checkable && len(v.Data) != want {
			return fmt.Errorf("validate: variable %q has %d values, dims %v imply %d", name, len(v.Data), v.Dims, want)
		}
	}
	return nil
}
