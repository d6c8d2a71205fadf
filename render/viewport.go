package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/pmav99/thalassa/schema"
)

// Viewport maps a geographic bounding box onto a pixel grid in Web Mercator.
type Viewport struct {
	Width, Height int

	// Mercator extents (EPSG:3857 meters).
	minX, minY float64
	maxX, maxY float64
}

// NewViewport builds a viewport for a WGS-84 bounding box.
func NewViewport(bound orb.Bound, width, height int) (Viewport, error) {
	if width <= 0 || height <= 0 {
		return Viewport{}, fmt.Errorf("viewport: invalid size %dx%d", width, height)
	}
	lo := project.WGS84.ToMercator(bound.Min)
	hi := project.WGS84.ToMercator(bound.Max)
	if hi[0] <= lo[0] || hi[1] <= lo[1] {
		return Viewport{}, fmt.Errorf("viewport: degenerate bound %v", bound)
	}
	return Viewport{
		Width: width, Height: height,
		minX: lo[0], minY: lo[1],
		maxX: hi[0], maxY: hi[1],
	}, nil
}

// ToPixel projects a WGS-84 coordinate to (possibly out-of-image) pixel
// coordinates. The y axis is flipped: north is up.
func (vp Viewport) ToPixel(lon, lat float64) (float64, float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	x := (p[0] - vp.minX) / (vp.maxX - vp.minX) * float64(vp.Width)
	y := (vp.maxY - p[1]) / (vp.maxY - vp.minY) * float64(vp.Height)
	return x, y
}

// ToLonLat is the inverse of ToPixel.
func (vp Viewport) ToLonLat(x, y float64) (float64, float64) {
	mx := vp.minX + x/float64(vp.Width)*(vp.maxX-vp.minX)
	my := vp.maxY - y/float64(vp.Height)*(vp.maxY-vp.minY)
	p := project.Mercator.ToWGS84(orb.Point{mx, my})
	return p[0], p[1]
}

// Bound returns the viewport extent in WGS-84.
func (vp Viewport) Bound() orb.Bound {
	lo := project.Mercator.ToWGS84(orb.Point{vp.minX, vp.minY})
	hi := project.Mercator.ToWGS84(orb.Point{vp.maxX, vp.maxY})
	return orb.Bound{Min: lo, Max: hi}
}

// DatasetBound returns the WGS-84 bounding box of a dataset's nodes, padded
// slightly so boundary nodes do not sit exactly on the image edge.
func DatasetBound(ds *schema.Dataset) orb.Bound {
	if ds.NumNodes() == 0 {
		return orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}
	}
	minLon, maxLon := ds.Lon[0], ds.Lon[0]
	minLat, maxLat := ds.Lat[0], ds.Lat[0]
	for i := 1; i < ds.NumNodes(); i++ {
		minLon = min(minLon, ds.Lon[i])
		maxLon = max(maxLon, ds.Lon[i])
		minLat = min(minLat, ds.Lat[i])
		maxLat = max(maxLat, ds.Lat[i])
	}
	padLon := (maxLon - minLon) * 0.02
	padLat := (maxLat - minLat) * 0.02
	if padLon == 0 {
		padLon = 0.1
	}
	if padLat == 0 {
		padLat = 0.1
	}
	return orb.Bound{
		Min: orb.Point{minLon - padLon, clampLat(minLat - padLat)},
		Max: orb.Point{maxLon + padLon, clampLat(maxLat + padLat)},
	}
}

// clampLat keeps latitudes inside the Web Mercator domain.
func clampLat(lat float64) float64 {
	const limit = 85.06
	if lat > limit {
		return limit
	}
	if lat < -limit {
		return -limit
	}
	return lat
}
