package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	colorbarWidth  = 70 // strip + labels
	colorbarStrip  = 16
	colorbarMargin = 8
)

var labelColor = color.RGBA{30, 30, 30, 255}

// attachColorbar widens the image and draws a vertical colorbar with the
// range labels on the right-hand side.
func attachColorbar(img *image.RGBA, lut *Lut, clabel string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()+colorbarWidth, b.Dy()))
	draw.Draw(out, b, img, b.Min, draw.Src)

	stripX := b.Dx() + colorbarMargin
	stripTop := colorbarMargin
	stripBottom := b.Dy() - colorbarMargin
	if stripBottom <= stripTop {
		return out
	}

	lo, hi := lut.Range()
	for y := stripTop; y < stripBottom; y++ {
		// Top of the strip is the max value.
		t := float64(stripBottom-y) / float64(stripBottom-stripTop)
		c := lut.At(lo + t*(hi-lo))
		for x := stripX; x < stripX+colorbarStrip; x++ {
			out.SetRGBA(x, y, c)
		}
	}

	labelX := stripX + colorbarStrip + 4
	drawLabel(out, labelX, stripTop+10, formatCLim(hi))
	drawLabel(out, labelX, stripBottom, formatCLim(lo))
	if clabel != "" {
		drawLabel(out, labelX, (stripTop+stripBottom)/2, clabel)
	}
	return out
}

func formatCLim(v float64) string {
	return fmt.Sprintf("%.3g", v)
}

// drawTitle writes the title near the top-left corner.
func drawTitle(img *image.RGBA, title string) {
	drawLabel(img, 6, 14, title)
}

// drawLabel renders small text with the fixed-width bitmap font. Good enough
// for axis annotations without pulling a full layout engine into the image
// path; the timeseries plots use real font rendering.
func drawLabel(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
