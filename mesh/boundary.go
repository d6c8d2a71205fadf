package mesh

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pmav99/thalassa/schema"
)

// edge is an undirected node pair with lo <= hi.
type edge struct {
	lo, hi int32
}

func makeEdge(a, b int32) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// Boundary extracts the mesh outline as GeoJSON. An edge belongs to the
// boundary when exactly one triangle references it; boundary edges are then
// chained into closed rings, one polygon feature per ring. Island holes come
// out as separate features rather than polygon holes, which is good enough
// for display and bbox math.
func Boundary(ds *schema.Dataset) (*geojson.FeatureCollection, error) {
	counts := map[edge]int{}
	for _, tri := range ds.Triangles {
		counts[makeEdge(tri[0], tri[1])]++
		counts[makeEdge(tri[1], tri[2])]++
		counts[makeEdge(tri[0], tri[2])]++
	}

	// Adjacency restricted to boundary edges.
	next := map[int32][]int32{}
	for e, c := range counts {
		if c == 1 {
			next[e.lo] = append(next[e.lo], e.hi)
			next[e.hi] = append(next[e.hi], e.lo)
		}
	}

	visited := map[edge]bool{}
	fc := geojson.NewFeatureCollection()
	for start := range next {
		for _, first := range next[start] {
			if visited[makeEdge(start, first)] {
				continue
			}
			ring, ok := walkRing(ds, next, visited, start, first)
			if !ok {
				continue
			}
			feat := geojson.NewFeature(orb.Polygon{ring})
			feat.Properties["nodes"] = len(ring) - 1
			fc.Append(feat)
		}
	}
	if len(fc.Features) == 0 && len(ds.Triangles) > 0 {
		return nil, fmt.Errorf("boundary: mesh has no boundary edges")
	}
	return fc, nil
}

// walkRing follows boundary edges from start until it returns to start,
// marking edges as visited. Open chains (degenerate meshes) are abandoned.
func walkRing(ds *schema.Dataset, next map[int32][]int32, visited map[edge]bool, start, first int32) (orb.Ring, bool) {
	ring := orb.Ring{{ds.Lon[start], ds.Lat[start]}}
	prev, cur := start, first
	visited[makeEdge(start, first)] = true

	for cur != start {
		ring = append(ring, orb.Point{ds.Lon[cur], ds.Lat[cur]})
		candidate := int32(-1)
		for _, n := range next[cur] {
			if n != prev && !visited[makeEdge(cur, n)] {
				candidate = n
				break
			}
		}
		if candidate < 0 {
			return nil, false
		}
		visited[makeEdge(cur, candidate)] = true
		prev, cur = cur, candidate
	}
	ring = append(ring, ring[0]) // close the ring
	return ring, true
}
