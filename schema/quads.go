package schema

// SplitQuads converts a mixed triangle/quadrangle connectivity array into a
// purely triangular one.
//
// The input has four columns. Rows describing a plain triangle carry a
// negative index (the netCDF fill value) in the fourth column and are kept
// as-is. Rows describing a quadrangle are split into two triangles: the
// first three columns, plus (first column, last two columns). The relative
// order of the original rows is preserved, with the extra triangles appended
// at the end.
func SplitQuads(faces [][4]int32) [][3]int32 {
	out := make([][3]int32, 0, len(faces))
	var extra [][3]int32
	for _, f := range faces {
		out = append(out, [3]int32{f[0], f[1], f[2]})
		if f[3] >= 0 {
			extra = append(extra, [3]int32{f[0], f[2], f[3]})
		}
	}
	return append(out, extra...)
}
