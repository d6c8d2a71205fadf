package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TimeseriesOptions control the node timeseries plot.
type TimeseriesOptions struct {
	Title  string
	YLabel string
	Width  int
	Height int
}

// DefaultTimeseriesOptions returns an 800x300 plot.
func DefaultTimeseriesOptions() TimeseriesOptions {
	return TimeseriesOptions{Width: 800, Height: 300}
}

// Timeseries renders a time/value curve as a PNG. NaN samples leave gaps in
// the curve.
func Timeseries(times []time.Time, values []float64, opts TimeseriesOptions) ([]byte, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("timeseries: %d timestamps for %d values", len(times), len(values))
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("timeseries: empty series")
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 300
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time"
	p.Y.Label.Text = opts.YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Add(plotter.NewGrid())

	// Split on NaN so gaps in the record are visible instead of being
	// interpolated across.
	var segment plotter.XYs
	flush := func() error {
		if len(segment) == 0 {
			return nil
		}
		line, err := plotter.NewLine(segment)
		if err != nil {
			return fmt.Errorf("timeseries: %w", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		segment = nil
		return nil
	}
	for i, v := range values {
		if math.IsNaN(v) {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		segment = append(segment, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	if err := flush(); err != nil {
		return nil, err
	}

	w := vg.Length(opts.Width) * vg.Inch / 96
	h := vg.Length(opts.Height) * vg.Inch / 96
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}
	return buf.Bytes(), nil
}
