package normalize

import (
	"fmt"
	"math"
	"reflect"
)

// RawVariable is a decoded netCDF variable before normalization: values as
// whatever (possibly nested) slice type the reader produced, plus the
// attributes we care about.
type RawVariable struct {
	Dims   []string
	Values any
	Attrs  map[string]any
}

// RawDataset is the un-normalized content of a solver output file.
type RawDataset struct {
	Path string
	Dims map[string]int
	Vars map[string]*RawVariable
}

// Has reports whether every named variable is present.
func (r *RawDataset) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := r.Vars[name]; !ok {
			return false
		}
	}
	return true
}

// attrString fetches a string attribute, tolerating []string values as some
// netCDF writers emit single-element string arrays.
func (v *RawVariable) attrString(key string) string {
	if v == nil || v.Attrs == nil {
		return ""
	}
	switch a := v.Attrs[key].(type) {
	case string:
		return a
	case []string:
		if len(a) > 0 {
			return a[0]
		}
	}
	return ""
}

// attrFloat fetches a numeric attribute as float64.
func (v *RawVariable) attrFloat(key string) (float64, bool) {
	if v == nil || v.Attrs == nil {
		return 0, false
	}
	a, ok := v.Attrs[key]
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(a)
	if rv.Kind() == reflect.Slice && rv.Len() == 1 {
		rv = rv.Index(0)
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// flatten walks arbitrarily nested numeric slices (the reader returns
// [][]float32 and friends for multidimensional variables) and appends the
// values, converted to float64, to dst.
func flatten(dst []float64, v reflect.Value) ([]float64, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			var err error
			dst, err = flatten(dst, v.Index(i))
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case reflect.Float32, reflect.Float64:
		return append(dst, v.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(dst, float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(dst, float64(v.Uint())), nil
	case reflect.Interface:
		return flatten(dst, v.Elem())
	default:
		return nil, fmt.Errorf("flatten: unsupported element kind %s", v.Kind())
	}
}

// Floats returns the variable's values as a flat float64 slice in C order,
// with fill values masked to NaN.
func (v *RawVariable) Floats() ([]float64, error) {
	if v == nil || v.Values == nil {
		return nil, fmt.Errorf("floats: variable has no values")
	}
	out, err := flatten(nil, reflect.ValueOf(v.Values))
	if err != nil {
		return nil, err
	}
	if fill, ok := v.attrFloat("_FillValue"); ok {
		for i, val := range out {
			if val == fill {
				out[i] = math.NaN()
			}
		}
	}
	if missing, ok := v.attrFloat("missing_value"); ok {
		for i, val := range out {
			if val == missing {
				out[i] = math.NaN()
			}
		}
	}
	return out, nil
}

// IntMatrix returns a 2D variable (connectivity arrays) as rows of int32.
// Non-finite and fill values map to -1.
func (v *RawVariable) IntMatrix() ([][]int32, error) {
	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("int matrix: expected a slice, got %T", v.Values)
	}
	fill, hasFill := v.attrFloat("_FillValue")
	out := make([][]int32, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		vals, err := flatten(nil, rv.Index(i))
		if err != nil {
			return nil, err
		}
		row := make([]int32, len(vals))
		for j, val := range vals {
			switch {
			case math.IsNaN(val):
				row[j] = -1
			case hasFill && val == fill:
				row[j] = -1
			default:
				row[j] = int32(val)
			}
		}
		out[i] = row
	}
	return out, nil
}
