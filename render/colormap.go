package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/mazznoer/colorgrad"
)

// DefaultCmap is the colormap used when none is requested.
const DefaultCmap = "plasma"

var gradients = map[string]func() colorgrad.Gradient{
	"plasma":   colorgrad.Plasma,
	"viridis":  colorgrad.Viridis,
	"inferno":  colorgrad.Inferno,
	"magma":    colorgrad.Magma,
	"turbo":    colorgrad.Turbo,
	"cividis":  colorgrad.Cividis,
	"rainbow":  colorgrad.Rainbow,
	"spectral": colorgrad.Spectral,
	"warm":     colorgrad.Warm,
	"cool":     colorgrad.Cool,
}

// Colormaps returns the sorted names of the available colormaps.
func Colormaps() []string {
	names := make([]string, 0, len(gradients))
	for name := range gradients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lutSize is the resolution of the sampled gradient.
const lutSize = 256

// Lut is a sampled colormap with a value range attached.
type Lut struct {
	colors    [lutSize]color.RGBA
	lo, hi    float64
	underflow color.RGBA
	overflow  color.RGBA
}

// NewLut samples the named gradient and maps [lo, hi] onto it. Values below
// lo or above hi clamp to the end colors.
func NewLut(name string, lo, hi float64) (*Lut, error) {
	if name == "" {
		name = DefaultCmap
	}
	build, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (available: %v)", name, Colormaps())
	}
	grad := build()
	lut := &Lut{lo: lo, hi: hi}
	for i := 0; i < lutSize; i++ {
		t := float64(i) / float64(lutSize-1)
		c := grad.At(t)
		lut.colors[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	lut.underflow = lut.colors[0]
	lut.overflow = lut.colors[lutSize-1]
	return lut, nil
}

// At maps a value to its color.
func (l *Lut) At(v float64) color.RGBA {
	if l.hi <= l.lo {
		return l.colors[0]
	}
	t := (v - l.lo) / (l.hi - l.lo)
	switch {
	case t <= 0:
		return l.underflow
	case t >= 1:
		return l.overflow
	default:
		return l.colors[int(t*float64(lutSize-1))]
	}
}

// Range returns the value range the LUT spans.
func (l *Lut) Range() (lo, hi float64) { return l.lo, l.hi }
