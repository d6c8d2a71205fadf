package ncio

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/pmav99/thalassa/schema"
)

// cfEpoch is the time units written for the exported time coordinate.
const cfEpoch = "seconds since 1970-01-01 00:00:00"

// Write exports a normalized dataset as a classic CDF file using the
// canonical variable and dimension names.
func Write(path string, ds *schema.Dataset) (err error) {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write %s: %w", path, cerr)
		}
	}()

	addVar := func(name string, v api.Variable) {
		if err == nil {
			if aerr := cw.AddVar(name, v); aerr != nil {
				err = fmt.Errorf("write %s: variable %s: %w", path, name, aerr)
			}
		}
	}

	addVar(schema.VarLon, api.Variable{
		Values:     ds.Lon,
		Dimensions: []string{schema.DimNode},
	})
	addVar(schema.VarLat, api.Variable{
		Values:     ds.Lat,
		Dimensions: []string{schema.DimNode},
	})
	if ds.Depth != nil {
		addVar(schema.VarDepth, api.Variable{
			Values:     ds.Depth,
			Dimensions: []string{schema.DimNode},
		})
	}

	faces := make([][]int32, len(ds.Triangles))
	for i, tri := range ds.Triangles {
		faces[i] = []int32{tri[0], tri[1], tri[2]}
	}
	addVar(schema.VarTrifaceNodes, api.Variable{
		Values:     faces,
		Dimensions: []string{schema.DimTriface, "three"},
	})

	if ds.NumTimes() > 0 {
		secs := make([]float64, ds.NumTimes())
		for i, ts := range ds.Times {
			secs[i] = float64(ts.UnixNano()) / 1e9
		}
		addVar(schema.DimTime, api.Variable{
			Values:     secs,
			Dimensions: []string{schema.DimTime},
			Attributes: attrs(map[string]any{"units": cfEpoch}),
		})
	}

	for name, v := range ds.Variables {
		values, verr := nest(v.Data, varShape(ds, v))
		if verr != nil {
			return fmt.Errorf("write %s: variable %s: %w", path, name, verr)
		}
		varAttrs := map[string]any{}
		if v.Units != "" {
			varAttrs["units"] = v.Units
		}
		if v.LongName != "" {
			varAttrs["long_name"] = v.LongName
		}
		addVar(name, api.Variable{
			Values:     values,
			Dimensions: v.Dims,
			Attributes: attrs(varAttrs),
		})
	}
	return err
}

// attrs builds an ordered attribute map; nil on failure or empty input since
// attributes are best-effort metadata.
func attrs(m map[string]any) api.AttributeMap {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	om, err := util.NewOrderedMap(keys, m)
	if err != nil {
		return nil
	}
	return om
}

func varShape(ds *schema.Dataset, v *schema.Variable) []int {
	shape := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		switch dim {
		case schema.DimNode:
			shape[i] = ds.NumNodes()
		case schema.DimTime:
			shape[i] = ds.NumTimes()
		case schema.DimLayer:
			shape[i] = ds.NLayers
		case schema.DimTriface:
			shape[i] = ds.NumTriangles()
		default:
			shape[i] = len(v.Data)
		}
	}
	return shape
}

// nest reshapes a flat C-order slice into the nested slices the CDF writer
// expects: []float64, [][]float64 or [][][]float64 depending on rank.
func nest(data []float64, shape []int) (any, error) {
	switch len(shape) {
	case 1:
		if len(data) != shape[0] {
			return nil, fmt.Errorf("reshape: %d values into %v", len(data), shape)
		}
		return data, nil
	case 2:
		if len(data) != shape[0]*shape[1] {
			return nil, fmt.Errorf("reshape: %d values into %v", len(data), shape)
		}
		out := make([][]float64, shape[0])
		for i := range out {
			out[i] = data[i*shape[1] : (i+1)*shape[1]]
		}
		return out, nil
	case 3:
		if len(data) != shape[0]*shape[1]*shape[2] {
			return nil, fmt.Errorf("reshape: %d values into %v", len(data), shape)
		}
		out := make([][][]float64, shape[0])
		for i := range out {
			out[i] = make([][]float64, shape[1])
			for j := range out[i] {
				off := (i*shape[1] + j) * shape[2]
				out[i][j] = data[off : off+shape[2]]
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("reshape: unsupported rank %d", len(shape))
	}
}
