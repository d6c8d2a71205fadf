package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/pmav99/thalassa/schema"
)

// Solver identifies the model family that produced an output file.
type Solver string

const (
	SolverSCHISM    Solver = "schism"
	SolverADCIRC    Solver = "adcirc"
	SolverTelemac2D Solver = "telemac2d"
	SolverTelemac3D Solver = "telemac3d"
	SolverGeneric   Solver = "generic"
)

// ErrUnknownFormat is returned when a file matches no supported solver.
var ErrUnknownFormat = errors.New("normalize: unrecognized solver output format")

// ADCIRCDropVariables are scalar variables in ADCIRC output that share a name
// with a dimension. The netCDF data model allows this but most readers choke
// on it, so the reader skips them up front. Skipping unknown names is
// harmless, which lets the same drop list be applied to every input file.
var ADCIRCDropVariables = []string{"neta", "nvel", "max_nvdll", "max_nvell"}

// solverSpec describes where a solver keeps its mesh and how to translate its
// variable names into the canonical ones.
type solverSpec struct {
	solver   Solver
	lonVar   string
	latVar   string
	depthVar string
	facesVar string
	timeVar  string
	layerDim string
	oneBased bool
	renames  map[string]string
}

var solverSpecs = map[Solver]solverSpec{
	SolverSCHISM: {
		solver:   SolverSCHISM,
		lonVar:   "SCHISM_hgrid_node_x",
		latVar:   "SCHISM_hgrid_node_y",
		depthVar: "depth",
		facesVar: "SCHISM_hgrid_face_nodes",
		timeVar:  "time",
		layerDim: "nSCHISM_vgrid_layers",
		oneBased: true,
		renames: map[string]string{
			"elevation": "elev",
		},
	},
	SolverADCIRC: {
		solver:   SolverADCIRC,
		lonVar:   "x",
		latVar:   "y",
		depthVar: "depth",
		facesVar: "element",
		timeVar:  "time",
		oneBased: true,
		renames: map[string]string{
			"zeta":     "elev",
			"zeta_max": "elev_max",
		},
	},
	SolverTelemac2D: {
		solver:   SolverTelemac2D,
		lonVar:   "x",
		latVar:   "y",
		depthVar: "B",
		facesVar: "ikle2",
		timeVar:  "time",
		oneBased: true,
		renames: map[string]string{
			"S": "elev",
		},
	},
	SolverTelemac3D: {
		solver:   SolverTelemac3D,
		lonVar:   "x",
		latVar:   "y",
		facesVar: "ikle3",
		timeVar:  "time",
		layerDim: "plan",
		oneBased: true,
		renames: map[string]string{
			"Z": "elev",
		},
	},
	SolverGeneric: {
		solver:   SolverGeneric,
		lonVar:   schema.VarLon,
		latVar:   schema.VarLat,
		depthVar: schema.VarDepth,
		facesVar: schema.VarTrifaceNodes,
		timeVar:  schema.DimTime,
		layerDim: schema.DimLayer,
	},
}

// DetectSolver identifies the solver that produced the raw dataset by looking
// for its sentinel variables.
func DetectSolver(raw *RawDataset) (Solver, error) {
	switch {
	case raw.Has("SCHISM_hgrid_node_x", "SCHISM_hgrid_node_y", "SCHISM_hgrid_face_nodes"):
		return SolverSCHISM, nil
	case raw.Has("ikle3"):
		return SolverTelemac3D, nil
	case raw.Has("ikle2"):
		return SolverTelemac2D, nil
	case raw.Has("x", "y", "element"):
		return SolverADCIRC, nil
	case raw.Has(schema.VarLon, schema.VarLat, schema.VarTrifaceNodes):
		return SolverGeneric, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, raw.Path)
	}
}

// Normalize converts a raw dataset into the canonical schema. The solver is
// auto-detected; files that already use the canonical names pass through a
// re-validation but are otherwise unchanged.
func Normalize(raw *RawDataset) (*schema.Dataset, error) {
	solver, err := DetectSolver(raw)
	if err != nil {
		return nil, err
	}
	spec := solverSpecs[solver]

	lon, err := raw.Vars[spec.lonVar].Floats()
	if err != nil {
		return nil, fmt.Errorf("normalize %s: read %s: %w", solver, spec.lonVar, err)
	}
	lat, err := raw.Vars[spec.latVar].Floats()
	if err != nil {
		return nil, fmt.Errorf("normalize %s: read %s: %w", solver, spec.latVar, err)
	}
	if len(lon) != len(lat) {
		return nil, fmt.Errorf("normalize %s: %d lon values vs %d lat values", solver, len(lon), len(lat))
	}

	triangles, err := decodeConnectivity(raw.Vars[spec.facesVar], spec.oneBased)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: connectivity: %w", solver, err)
	}

	ds := &schema.Dataset{
		Lon:          lon,
		Lat:          lat,
		Triangles:    triangles,
		Variables:    map[string]*schema.Variable{},
		SourcePath:   raw.Path,
		Solver:       string(solver),
		NormalizedAt: schema.Clock().Now(),
	}

	if dv, ok := raw.Vars[spec.depthVar]; ok && spec.depthVar != "" {
		if depth, err := dv.Floats(); err == nil && len(depth) == len(lon) {
			ds.Depth = depth
		}
	}

	if tv, ok := raw.Vars[spec.timeVar]; ok {
		times, err := decodeTimes(tv)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: time axis: %w", solver, err)
		}
		ds.Times = times
	}

	if spec.layerDim != "" {
		ds.NLayers = raw.Dims[spec.layerDim]
	}

	if err := copyDataVariables(raw, spec, ds); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", solver, err)
	}
	return ds, nil
}

// decodeConnectivity turns a raw (face, 3|4) connectivity array into 0-based
// triangles, splitting quadrangles when the fourth column is populated.
func decodeConnectivity(v *RawVariable, oneBased bool) ([][3]int32, error) {
	if v == nil {
		return nil, errors.New("connectivity variable missing")
	}
	rows, err := v.IntMatrix()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty connectivity array")
	}
	width := len(rows[0])
	if width != 3 && width != 4 {
		return nil, fmt.Errorf("connectivity has %d columns, want 3 or 4", width)
	}

	shift := int32(0)
	if oneBased {
		shift = 1
	}
	rebase := func(idx int32) int32 {
		if idx < shift {
			// Fill value marking an absent fourth vertex.
			return -1
		}
		return idx - shift
	}

	if width == 3 {
		out := make([][3]int32, len(rows))
		for i, row := range rows {
			out[i] = [3]int32{rebase(row[0]), rebase(row[1]), rebase(row[2])}
		}
		return out, nil
	}

	faces := make([][4]int32, len(rows))
	for i, row := range rows {
		faces[i] = [4]int32{rebase(row[0]), rebase(row[1]), rebase(row[2]), rebase(row[3])}
	}
	return schema.SplitQuads(faces), nil
}

// decodeTimes reads a time coordinate. CF units ("seconds since ...") are
// honored; without units the values are taken as unix seconds.
func decodeTimes(v *RawVariable) ([]time.Time, error) {
	vals, err := v.Floats()
	if err != nil {
		return nil, err
	}
	units := v.attrString("units")
	if units != "" {
		return DecodeCFTime(vals, units)
	}
	out := make([]time.Time, len(vals))
	for i, sec := range vals {
		out[i] = time.Unix(int64(sec), 0).UTC()
	}
	return out, nil
}

// copyDataVariables carries the remaining data variables over, renaming both
// the variable (per solver) and its dimensions (inferred from where the mesh
// variables live). Variables whose shape does not map onto a visualizable
// canonical shape are skipped.
func copyDataVariables(raw *RawDataset, spec solverSpec, ds *schema.Dataset) error {
	dimMap := canonicalDimMap(raw, spec)
	consumed := map[string]bool{
		spec.lonVar:   true,
		spec.latVar:   true,
		spec.facesVar: true,
		spec.timeVar:  true,
	}
	if spec.depthVar != "" {
		consumed[spec.depthVar] = true
	}
	for _, name := range ADCIRCDropVariables {
		consumed[name] = true
	}

	for name, v := range raw.Vars {
		if consumed[name] {
			continue
		}
		dims, ok := mapDims(v.Dims, dimMap)
		if !ok {
			continue
		}
		data, err := v.Floats()
		if err != nil {
			return fmt.Errorf("normalize %s: read %s: %w", spec.solver, name, err)
		}
		canonical := name
		if renamed, ok := spec.renames[name]; ok {
			canonical = renamed
		}
		ds.Variables[canonical] = &schema.Variable{
			Name:     canonical,
			Dims:     dims,
			Data:     data,
			Units:    v.attrString("units"),
			LongName: v.attrString("long_name"),
		}
	}
	return nil
}

// canonicalDimMap infers the raw names of the canonical dimensions: the node
// dimension is wherever the longitude variable lives, the time dimension
// wherever the time variable lives, and the layer dimension comes from the
// solver spec.
func canonicalDimMap(raw *RawDataset, spec solverSpec) map[string]string {
	m := map[string]string{}
	if lon, ok := raw.Vars[spec.lonVar]; ok && len(lon.Dims) == 1 {
		m[lon.Dims[0]] = schema.DimNode
	}
	if tv, ok := raw.Vars[spec.timeVar]; ok && len(tv.Dims) == 1 {
		m[tv.Dims[0]] = schema.DimTime
	}
	if spec.layerDim != "" {
		m[spec.layerDim] = schema.DimLayer
	}
	return m
}

// mapDims translates raw dimension names and accepts only the visualizable
// shapes: (node), (time, node), (time, node, layer).
func mapDims(rawDims []string, dimMap map[string]string) ([]string, bool) {
	dims := make([]string, len(rawDims))
	for i, d := range rawDims {
		mapped, ok := dimMap[d]
		if !ok {
			return nil, false
		}
		dims[i] = mapped
	}
	switch {
	case len(dims) == 1 && dims[0] == schema.DimNode:
	case len(dims) == 2 && dims[0] == schema.DimTime && dims[1] == schema.DimNode:
	case len(dims) == 3 && dims[0] == schema.DimTime && dims[1] == schema.DimNode && dims[2] == schema.DimLayer:
	default:
		return nil, false
	}
	return dims, true
}
