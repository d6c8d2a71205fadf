package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmav99/thalassa/schema"
)

func schismRaw() *RawDataset {
	return &RawDataset{
		Path: "out2d_1.nc",
		Dims: map[string]int{
			"nSCHISM_hgrid_node":          4,
			"nSCHISM_hgrid_face":          2,
			"nMaxSCHISM_hgrid_face_nodes": 4,
			"time":                        2,
		},
		Vars: map[string]*RawVariable{
			"SCHISM_hgrid_node_x": {
				Dims:   []string{"nSCHISM_hgrid_node"},
				Values: []float64{0, 1, 1, 0},
			},
			"SCHISM_hgrid_node_y": {
				Dims:   []string{"nSCHISM_hgrid_node"},
				Values: []float64{0, 0, 1, 1},
			},
			"SCHISM_hgrid_face_nodes": {
				// 1-based, -1 fill in the fourth column for triangles.
				Dims:   []string{"nSCHISM_hgrid_face", "nMaxSCHISM_hgrid_face_nodes"},
				Values: [][]int32{{1, 2, 3, -1}, {1, 3, 4, -1}},
			},
			"depth": {
				Dims:   []string{"nSCHISM_hgrid_node"},
				Values: []float32{10, 20, 30, 40},
			},
			"time": {
				Dims:   []string{"time"},
				Values: []float64{0, 3600},
				Attrs:  map[string]any{"units": "seconds since 2024-09-01 00:00:00"},
			},
			"elevation": {
				Dims:   []string{"time", "nSCHISM_hgrid_node"},
				Values: [][]float32{{0.1, 0.2, 0.3, 0.4}, {1.1, 1.2, 1.3, 1.4}},
				Attrs:  map[string]any{"units": "m"},
			},
		},
	}
}

func TestDetectSolver(t *testing.T) {
	tests := []struct {
		name string
		raw  *RawDataset
		want Solver
	}{
		{"schism", schismRaw(), SolverSCHISM},
		{
			"adcirc",
			&RawDataset{Vars: map[string]*RawVariable{"x": {}, "y": {}, "element": {}}},
			SolverADCIRC,
		},
		{
			"telemac 2d",
			&RawDataset{Vars: map[string]*RawVariable{"x": {}, "y": {}, "ikle2": {}}},
			SolverTelemac2D,
		},
		{
			"telemac 3d",
			&RawDataset{Vars: map[string]*RawVariable{"x": {}, "y": {}, "ikle2": {}, "ikle3": {}}},
			SolverTelemac3D,
		},
		{
			"generic",
			&RawDataset{Vars: map[string]*RawVariable{"lon": {}, "lat": {}, "triface_nodes": {}}},
			SolverGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectSolver(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		_, err := DetectSolver(&RawDataset{Path: "random.nc", Vars: map[string]*RawVariable{"foo": {}}})
		require.ErrorIs(t, err, ErrUnknownFormat)
		assert.Contains(t, err.Error(), "random.nc")
	})
}

func TestNormalizeSCHISM(t *testing.T) {
	frozen := time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)
	schema.SetClock(clockwork.NewFakeClockAt(frozen))
	defer schema.SetClock(nil)

	ds, err := Normalize(schismRaw())
	require.NoError(t, err)

	assert.Equal(t, "schism", ds.Solver)
	assert.Equal(t, 4, ds.NumNodes())
	assert.Equal(t, [][3]int32{{0, 1, 2}, {0, 2, 3}}, ds.Triangles, "1-based quads rebased to 0-based triangles")
	assert.Equal(t, []float64{10, 20, 30, 40}, ds.Depth)
	require.Len(t, ds.Times, 2)
	assert.Equal(t, time.Date(2024, 9, 1, 1, 0, 0, 0, time.UTC), ds.Times[1])
	assert.Equal(t, frozen, ds.NormalizedAt)

	elev := ds.Var("elev")
	require.NotNil(t, elev, "elevation renamed to elev")
	assert.Equal(t, []string{"time", "node"}, elev.Dims)
	assert.Equal(t, "m", elev.Units)
	assert.InDelta(t, 1.2, elev.Data[5], 1e-6)
}

func TestNormalizeSCHISMQuads(t *testing.T) {
	raw := schismRaw()
	// Add one more node and turn the second face into a true quadrangle.
	raw.Vars["SCHISM_hgrid_node_x"].Values = []float64{0, 1, 1, 0, -1}
	raw.Vars["SCHISM_hgrid_node_y"].Values = []float64{0, 0, 1, 1, 0.5}
	raw.Vars["depth"].Values = []float32{10, 20, 30, 40, 50}
	raw.Vars["SCHISM_hgrid_face_nodes"].Values = [][]int32{{1, 2, 3, -1}, {1, 3, 4, 5}}
	raw.Vars["elevation"].Values = [][]float32{{0.1, 0.2, 0.3, 0.4, 0.5}, {1.1, 1.2, 1.3, 1.4, 1.5}}

	ds, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, [][3]int32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, ds.Triangles)
}

func TestNormalizeADCIRC(t *testing.T) {
	raw := &RawDataset{
		Path: "fort.63.nc",
		Dims: map[string]int{"node": 3, "nele": 1, "nvertex": 3, "time": 1},
		Vars: map[string]*RawVariable{
			"x":       {Dims: []string{"node"}, Values: []float64{0, 1, 0}},
			"y":       {Dims: []string{"node"}, Values: []float64{0, 0, 1}},
			"element": {Dims: []string{"nele", "nvertex"}, Values: [][]int32{{1, 2, 3}}},
			"depth":   {Dims: []string{"node"}, Values: []float64{5, 5, 5}},
			"time": {
				Dims:   []string{"time"},
				Values: []float64{0.5},
				Attrs:  map[string]any{"units": "days since 2024-01-01"},
			},
			"zeta": {
				Dims:   []string{"time", "node"},
				Values: [][]float64{{0.3, -99999, 0.5}},
				Attrs:  map[string]any{"_FillValue": -99999.0},
			},
			"zeta_max": {Dims: []string{"node"}, Values: []float64{1, 2, 3}},
			// Scalar troublemakers are ignored even if the reader kept them.
			"neta": {Dims: []string{}, Values: []int32{42}},
		},
	}

	ds, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "adcirc", ds.Solver)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), ds.Times[0])

	elev := ds.Var("elev")
	require.NotNil(t, elev, "zeta renamed to elev")
	assert.True(t, math.IsNaN(elev.Data[1]), "fill values masked to NaN")
	require.NotNil(t, ds.Var("elev_max"))
	assert.Nil(t, ds.Var("neta"))
}

func TestNormalizeTelemac2D(t *testing.T) {
	raw := &RawDataset{
		Path: "r2d.nc",
		Dims: map[string]int{"node": 4, "nelem2": 2, "ndp2": 3, "time": 2},
		Vars: map[string]*RawVariable{
			"x": {Dims: []string{"node"}, Values: []float64{0, 1, 1, 0}},
			"y": {Dims: []string{"node"}, Values: []float64{0, 0, 1, 1}},
			"ikle2": {
				Dims:   []string{"nelem2", "ndp2"},
				Values: [][]int32{{1, 2, 3}, {1, 3, 4}},
			},
			"B": {Dims: []string{"node"}, Values: []float64{-10, -20, -30, -40}},
			"time": {
				Dims:   []string{"time"},
				Values: []float64{0, 1800},
				Attrs:  map[string]any{"units": "seconds since 2023-05-01 00:00:00"},
			},
			"S": {
				Dims:   []string{"time", "node"},
				Values: [][]float64{{0.1, 0.2, 0.3, 0.4}, {1.1, 1.2, 1.3, 1.4}},
				Attrs:  map[string]any{"units": "M"},
			},
			"U": {
				Dims:   []string{"time", "node"},
				Values: [][]float64{{0, 0, 0, 0}, {1, 1, 1, 1}},
			},
		},
	}

	ds, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "telemac2d", ds.Solver)
	assert.Equal(t, [][3]int32{{0, 1, 2}, {0, 2, 3}}, ds.Triangles, "1-based ikle2 rebased to 0-based")
	assert.Equal(t, []float64{-10, -20, -30, -40}, ds.Depth, "B becomes depth")
	require.Len(t, ds.Times, 2)
	assert.Equal(t, time.Date(2023, 5, 1, 0, 30, 0, 0, time.UTC), ds.Times[1])

	elev := ds.Var("elev")
	require.NotNil(t, elev, "S renamed to elev")
	assert.Equal(t, []string{"time", "node"}, elev.Dims)
	assert.InDelta(t, 1.2, elev.Data[5], 1e-9)
	assert.Nil(t, ds.Var("S"))
	require.NotNil(t, ds.Var("U"), "unrenamed variables carried as-is")
}

func TestNormalizeTelemac3D(t *testing.T) {
	raw := &RawDataset{
		Path: "r3d.nc",
		Dims: map[string]int{"node": 3, "nelem3": 1, "ndp3": 3, "time": 1, "plan": 2},
		Vars: map[string]*RawVariable{
			"x": {Dims: []string{"node"}, Values: []float64{0, 1, 0}},
			"y": {Dims: []string{"node"}, Values: []float64{0, 0, 1}},
			"ikle3": {
				Dims:   []string{"nelem3", "ndp3"},
				Values: [][]int32{{1, 2, 3}},
			},
			"time": {
				Dims:   []string{"time"},
				Values: []float64{3600},
				Attrs:  map[string]any{"units": "seconds since 2023-05-01 00:00:00"},
			},
			"Z": {
				Dims:   []string{"time", "node", "plan"},
				Values: [][][]float64{{{-5, 0}, {-6, 0.1}, {-7, 0.2}}},
			},
		},
	}

	ds, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "telemac3d", ds.Solver)
	assert.Equal(t, [][3]int32{{0, 1, 2}}, ds.Triangles)
	assert.Equal(t, 2, ds.NLayers, "plan dimension becomes the layer count")

	elev := ds.Var("elev")
	require.NotNil(t, elev, "Z renamed to elev")
	assert.Equal(t, []string{"time", "node", "layer"}, elev.Dims)

	layer1, err := ds.Slice("elev", 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, layer1[1], 1e-9, "layer 1 of node 1")
}

func TestNormalizeGenericRoundTrip(t *testing.T) {
	raw := &RawDataset{
		Path: "normalized.nc",
		Dims: map[string]int{"node": 3, "triface": 1, "three": 3},
		Vars: map[string]*RawVariable{
			"lon":           {Dims: []string{"node"}, Values: []float64{0, 1, 0}},
			"lat":           {Dims: []string{"node"}, Values: []float64{0, 0, 1}},
			"triface_nodes": {Dims: []string{"triface", "three"}, Values: [][]int32{{0, 1, 2}}},
			"elev_max":      {Dims: []string{"node"}, Values: []float64{1, 2, 3}},
		},
	}
	ds, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "generic", ds.Solver)
	assert.Equal(t, [][3]int32{{0, 1, 2}}, ds.Triangles, "generic connectivity is already 0-based")
	require.NotNil(t, ds.Var("elev_max"))
}

func TestDecodeCFTime(t *testing.T) {
	tests := []struct {
		name  string
		units string
		value float64
		want  time.Time
	}{
		{"seconds", "seconds since 2017-11-29 00:00:00", 7200, time.Date(2017, 11, 29, 2, 0, 0, 0, time.UTC)},
		{"minutes", "minutes since 2000-01-01T00:00:00", 90, time.Date(2000, 1, 1, 1, 30, 0, 0, time.UTC)},
		{"hours", "hours since 1990-01-01", 25, time.Date(1990, 1, 2, 1, 0, 0, 0, time.UTC)},
		{"days fractional", "days since 2024-01-01", 1.5, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCFTime([]float64{tt.value}, tt.units)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got[0]), "want %s, got %s", tt.want, got[0])
		})
	}

	t.Run("missing since", func(t *testing.T) {
		_, err := DecodeCFTime([]float64{0}, "seconds")
		require.Error(t, err)
	})

	t.Run("bad epoch", func(t *testing.T) {
		_, err := DecodeCFTime([]float64{0}, "seconds since whenever")
		require.Error(t, err)
	})
}

func TestRawVariableFloats(t *testing.T) {
	t.Run("nested float32", func(t *testing.T) {
		v := &RawVariable{Values: [][]float32{{1, 2}, {3, 4}}}
		got, err := v.Floats()
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, got)
	})

	t.Run("int16 with fill", func(t *testing.T) {
		v := &RawVariable{
			Values: []int16{7, -32768, 9},
			Attrs:  map[string]any{"_FillValue": int16(-32768)},
		}
		got, err := v.Floats()
		require.NoError(t, err)
		assert.Equal(t, 7.0, got[0])
		assert.True(t, math.IsNaN(got[1]))
	})

	t.Run("unsupported type", func(t *testing.T) {
		v := &RawVariable{Values: []string{"a"}}
		_, err := v.Floats()
		require.Error(t, err)
	})
}
