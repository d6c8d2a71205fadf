package tiles

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/pmav99/thalassa/render"
)

const (
	tileSize = 256
	maxZoom  = 19

	// maxTiles caps the mosaic; the zoom backs off until the viewport
	// fits within this many tiles.
	maxTiles = 32

	fetchConcurrency = 4
)

// Basemap assembles background imagery covering a viewport by fetching and
// reprojecting the slippy-map tiles it intersects.
func Basemap(ctx context.Context, f Fetcher, vp render.Viewport) (image.Image, error) {
	bound := vp.Bound()
	zoom := zoomFor(bound, vp.Width)

	var tl, br maptile.Tile
	for {
		tl = maptile.At(orb.Point{bound.Min[0], bound.Max[1]}, zoom)
		br = maptile.At(orb.Point{bound.Max[0], bound.Min[1]}, zoom)
		n := int(br.X-tl.X+1) * int(br.Y-tl.Y+1)
		if n <= maxTiles || zoom == 0 {
			break
		}
		zoom--
	}

	mosaic := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for x := tl.X; x <= br.X; x++ {
		for y := tl.Y; y <= br.Y; y++ {
			tile := maptile.New(x, y, zoom)
			g.Go(func() error {
				img, err := f.Fetch(ctx, uint32(tile.Z), tile.X, tile.Y)
				if err != nil {
					return fmt.Errorf("basemap: %w", err)
				}
				b := tile.Bound()
				x0, y0 := vp.ToPixel(b.Min[0], b.Max[1])
				x1, y1 := vp.ToPixel(b.Max[0], b.Min[1])
				rect := image.Rect(
					int(math.Floor(x0)), int(math.Floor(y0)),
					int(math.Ceil(x1)), int(math.Ceil(y1)),
				)
				mu.Lock()
				defer mu.Unlock()
				xdraw.ApproxBiLinear.Scale(mosaic, rect, img, img.Bounds(), xdraw.Src, nil)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mosaic, nil
}

// zoomFor picks the tile zoom whose native resolution best matches the
// viewport width.
func zoomFor(bound orb.Bound, width int) maptile.Zoom {
	lonSpan := bound.Max[0] - bound.Min[0]
	if lonSpan <= 0 {
		return maxZoom
	}
	z := int(math.Ceil(math.Log2(float64(width) * 360 / (tileSize * lonSpan))))
	if z < 0 {
		z = 0
	}
	if z > maxZoom {
		z = maxZoom
	}
	return maptile.Zoom(z)
}
