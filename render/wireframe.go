package render

import (
	"image"
	"image/color"
	"math"

	"github.com/pmav99/thalassa/schema"
)

// WireframeOptions control the mesh renderer.
type WireframeOptions struct {
	Title string
	Color color.RGBA
}

// DefaultWireframeOptions draws black edges, matching the conventional mesh
// overlay look.
func DefaultWireframeOptions() WireframeOptions {
	return WireframeOptions{Color: color.RGBA{0, 0, 0, 255}}
}

// Wireframe renders the element edges of the mesh.
func Wireframe(ds *schema.Dataset, vp Viewport, opts WireframeOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	if opts.Color.A == 0 {
		opts.Color = color.RGBA{0, 0, 0, 255}
	}

	type edge struct{ a, b int32 }
	seen := make(map[edge]bool, len(ds.Triangles)*3)
	drawEdge := func(a, b int32) {
		if a > b {
			a, b = b, a
		}
		if seen[edge{a, b}] {
			return
		}
		seen[edge{a, b}] = true
		x0, y0 := vp.ToPixel(ds.Lon[a], ds.Lat[a])
		x1, y1 := vp.ToPixel(ds.Lon[b], ds.Lat[b])
		drawLine(img, x0, y0, x1, y1, opts.Color)
	}

	for _, tri := range ds.Triangles {
		drawEdge(tri[0], tri[1])
		drawEdge(tri[1], tri[2])
		drawEdge(tri[0], tri[2])
	}
	if opts.Title != "" {
		drawTitle(img, opts.Title)
	}
	return img
}

// NodeOptions control the vertex scatter renderer.
type NodeOptions struct {
	Title string
	Color color.RGBA
	Size  float64 // marker diameter in pixels
}

// DefaultNodeOptions draws green markers of diameter 4, the conventional
// node-overlay look.
func DefaultNodeOptions() NodeOptions {
	return NodeOptions{Color: color.RGBA{0, 128, 0, 255}, Size: 4}
}

// Nodes renders the mesh vertices as filled circular markers.
func Nodes(ds *schema.Dataset, vp Viewport, opts NodeOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	if opts.Size <= 0 {
		opts.Size = 4
	}
	if opts.Color.A == 0 {
		opts.Color = color.RGBA{0, 128, 0, 255}
	}
	r := opts.Size / 2
	for i := 0; i < ds.NumNodes(); i++ {
		cx, cy := vp.ToPixel(ds.Lon[i], ds.Lat[i])
		fillCircle(img, cx, cy, r, opts.Color)
	}
	if opts.Title != "" {
		drawTitle(img, opts.Title)
	}
	return img
}

// drawLine draws a 1px line with the integer Bresenham walk.
func drawLine(img *image.RGBA, x0f, y0f, x1f, y1f float64, c color.RGBA) {
	x0, y0 := int(math.Round(x0f)), int(math.Round(y0f))
	x1, y1 := int(math.Round(x1f)), int(math.Round(y1f))

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setIfInside(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r < 0.5 {
		setIfInside(img, int(math.Round(cx)), int(math.Round(cy)), c)
		return
	}
	for y := int(math.Floor(cy - r)); y <= int(math.Ceil(cy+r)); y++ {
		for x := int(math.Floor(cx - r)); x <= int(math.Ceil(cx+r)); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				setIfInside(img, x, y, c)
			}
		}
	}
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
