// Package mesh implements topology operations on normalized datasets:
// bounding-box cropping, dateline cleanup, nearest-node lookup and boundary
// extraction. All operations leave their input untouched and return new
// datasets.
package mesh

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"github.com/pmav99/thalassa/schema"
)

// WholeWorld is the bounding box used when no crop region is given.
var WholeWorld = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Crop returns a new dataset restricted to the nodes inside bbox. Only
// triangles whose three nodes all survive are kept, and the connectivity is
// remapped onto the compacted node index. Data variables are subset along the
// node dimension.
func Crop(ds *schema.Dataset, bbox orb.Bound) (*schema.Dataset, error) {
	if bbox.IsZero() {
		bbox = WholeWorld
	}

	keep := make([]int, 0, ds.NumNodes())
	remap := make([]int32, ds.NumNodes())
	for i := range remap {
		remap[i] = -1
	}
	for i := 0; i < ds.NumNodes(); i++ {
		if bbox.Contains(orb.Point{ds.Lon[i], ds.Lat[i]}) {
			remap[i] = int32(len(keep))
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("crop: no nodes inside %v", bbox)
	}

	var triangles [][3]int32
	for _, tri := range ds.Triangles {
		a, b, c := remap[tri[0]], remap[tri[1]], remap[tri[2]]
		if a >= 0 && b >= 0 && c >= 0 {
			triangles = append(triangles, [3]int32{a, b, c})
		}
	}

	out := &schema.Dataset{
		Lon:          pick(ds.Lon, keep),
		Lat:          pick(ds.Lat, keep),
		Triangles:    triangles,
		Times:        ds.Times,
		NLayers:      ds.NLayers,
		Variables:    map[string]*schema.Variable{},
		SourcePath:   ds.SourcePath,
		Solver:       ds.Solver,
		NormalizedAt: ds.NormalizedAt,
	}
	if ds.Depth != nil {
		out.Depth = pick(ds.Depth, keep)
	}
	for name, v := range ds.Variables {
		sub, err := subsetNodes(v, ds, keep)
		if err != nil {
			return nil, fmt.Errorf("crop: %w", err)
		}
		out.Variables[name] = sub
	}
	return out, nil
}

// DropElementsCrossingIDL removes triangles that straddle the International
// Date Line. A triangle is considered to cross when two of its nodes have
// longitudes of opposite sign and the absolute difference exceeds maxLon.
// The longitude threshold filters out false positives near Greenwich; the
// heuristic assumes a global mesh in [-180, 180].
func DropElementsCrossingIDL(ds *schema.Dataset, maxLon float64) (*schema.Dataset, error) {
	if maxLon <= 0 {
		return nil, fmt.Errorf("drop idl elements: maximum longitudinal distance must be positive: %v", maxLon)
	}
	crosses := func(a, b float64) bool {
		return a*b < 0 && abs(a-b) >= maxLon
	}

	out := *ds
	out.Triangles = nil
	for _, tri := range ds.Triangles {
		la, lb, lc := ds.Lon[tri[0]], ds.Lon[tri[1]], ds.Lon[tri[2]]
		if crosses(la, lb) || crosses(la, lc) || crosses(lb, lc) {
			continue
		}
		out.Triangles = append(out.Triangles, tri)
	}
	return &out, nil
}

// NearestNode returns the index of the node closest to (lon, lat) by squared
// euclidean distance in degree space.
func NearestNode(ds *schema.Dataset, lon, lat float64) int {
	best := 0
	bestDist := dist2(ds.Lon[0], ds.Lat[0], lon, lat)
	for i := 1; i < ds.NumNodes(); i++ {
		if d := dist2(ds.Lon[i], ds.Lat[i], lon, lat); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// subsetNodes slices a variable down to the kept nodes along its node
// dimension, preserving the other dimensions.
func subsetNodes(v *schema.Variable, ds *schema.Dataset, keep []int) (*schema.Variable, error) {
	nodeAxis := slices.Index(v.Dims, schema.DimNode)
	if nodeAxis < 0 {
		// No node dimension: carried through as-is.
		return v, nil
	}

	n := ds.NumNodes()
	inner := 1 // product of dims after the node axis
	for _, dim := range v.Dims[nodeAxis+1:] {
		switch dim {
		case schema.DimLayer:
			inner *= ds.NLayers
		case schema.DimTime:
			inner *= ds.NumTimes()
		default:
			return nil, fmt.Errorf("variable %s: cannot subset dim %q", v.Name, dim)
		}
	}
	outer := len(v.Data) / (n * inner)

	data := make([]float64, 0, outer*len(keep)*inner)
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for _, idx := range keep {
			off := base + idx*inner
			data = append(data, v.Data[off:off+inner]...)
		}
	}
	out := *v
	out.Data = data
	return &out, nil
}

func pick(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}

func dist2(x0, y0, x1, y1 float64) float64 {
	dx, dy := x0-x1, y0-y1
	return dx*dx + dy*dy
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
