// Package ncio reads and writes solver output files on disk.
//
// Reading goes through the pure-Go netCDF implementation, which understands
// both classic CDF files and HDF5-backed netCDF4. Writing always produces
// classic CDF files using the canonical schema names, so anything exported
// here round-trips through the GENERIC normalization path.
package ncio

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/pmav99/thalassa/normalize"
	"github.com/pmav99/thalassa/schema"
)

// Open reads the file at path and normalizes it into the canonical schema.
func Open(path string) (*schema.Dataset, error) {
	raw, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(raw)
}

// ReadRaw decodes a netCDF file without normalizing it. Variables on the
// ADCIRC drop list are skipped; the list contains only names no other solver
// uses for data, so it is applied unconditionally.
func ReadRaw(path string) (*normalize.RawDataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	raw := &normalize.RawDataset{
		Path: path,
		Dims: map[string]int{},
		Vars: map[string]*normalize.RawVariable{},
	}
	for _, name := range nc.ListVariables() {
		if slices.Contains(normalize.ADCIRCDropVariables, name) {
			continue
		}
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("open %s: variable %s: %w", path, name, err)
		}
		raw.Vars[name] = &normalize.RawVariable{
			Dims:   v.Dimensions,
			Values: v.Values,
			Attrs:  attrMap(v.Attributes),
		}
		recordDimSizes(raw.Dims, v)
	}
	return raw, nil
}

func attrMap(attrs api.AttributeMap) map[string]any {
	if attrs == nil {
		return nil
	}
	out := map[string]any{}
	for _, key := range attrs.Keys() {
		if val, ok := attrs.Get(key); ok {
			out[key] = val
		}
	}
	return out
}

// recordDimSizes infers dimension sizes from the shape of each variable's
// value slices. The reader API does not expose dimensions directly.
func recordDimSizes(dims map[string]int, v *api.Variable) {
	rv := reflect.ValueOf(v.Values)
	for _, name := range v.Dimensions {
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return
		}
		if _, ok := dims[name]; !ok {
			dims[name] = rv.Len()
		}
		rv = rv.Index(0)
	}
}
