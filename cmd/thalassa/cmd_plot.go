package main

import (
	"fmt"
	"image"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/render"
	"github.com/pmav99/thalassa/tiles"
)

var plotFlags struct {
	output   string
	time     int
	layer    int
	width    int
	height   int
	bbox     string
	cmap     string
	climMin  float64
	climMax  float64
	title    string
	mesh     bool
	nodes    bool
	noCbar   bool
	max      bool
	tiles    bool
}

var plotCmd = &cobra.Command{
	Use:   "plot <file.nc> <variable>",
	Short: "Render a field raster to a PNG",
	Long: `Renders a variable on the mesh as a colored raster. By default the
per-node maximum over the whole simulation is shown; use --time to select
a single timestep.`,
	Args: cobra.ExactArgs(2),
	RunE: runPlot,
}

func init() {
	f := plotCmd.Flags()
	f.StringVarP(&plotFlags.output, "output", "o", "plot.png", "output PNG path")
	f.IntVarP(&plotFlags.time, "time", "t", render.MaxTimeIndex, "timestep index (-1 for the maximum over time)")
	f.IntVarP(&plotFlags.layer, "layer", "l", 0, "vertical layer index")
	f.IntVar(&plotFlags.width, "width", 1200, "image width in pixels")
	f.IntVar(&plotFlags.height, "height", 900, "image height in pixels")
	f.StringVar(&plotFlags.bbox, "bbox", "", "bounding box min_lon,min_lat,max_lon,max_lat")
	f.StringVar(&plotFlags.cmap, "cmap", "", "colormap name (see the serve API /api/colormaps)")
	f.Float64Var(&plotFlags.climMin, "clim-min", render.DefaultRasterOptions().ClimMin, "lower color limit")
	f.Float64Var(&plotFlags.climMax, "clim-max", render.DefaultRasterOptions().ClimMax, "upper color limit")
	f.StringVar(&plotFlags.title, "title", "", "image title")
	f.BoolVar(&plotFlags.mesh, "mesh", false, "overlay the mesh wireframe")
	f.BoolVar(&plotFlags.nodes, "nodes", false, "overlay the mesh nodes")
	f.BoolVar(&plotFlags.noCbar, "no-colorbar", false, "omit the colorbar")
	f.BoolVar(&plotFlags.max, "max", false, "plot the per-node maximum over time")
	f.BoolVar(&plotFlags.tiles, "tiles", false, "draw an OpenStreetMap basemap under the raster")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	variable := args[1]

	opts := render.DefaultPlotOptions()
	opts.Width = plotFlags.width
	opts.Height = plotFlags.height
	opts.TimeIndex = plotFlags.time
	if plotFlags.max {
		opts.TimeIndex = render.MaxTimeIndex
	}
	opts.Layer = plotFlags.layer
	opts.Raster.Colorbar = !plotFlags.noCbar
	opts.Raster.Title = plotFlags.title
	opts.Raster.ClimMin = plotFlags.climMin
	opts.Raster.ClimMax = plotFlags.climMax
	opts.ShowMesh = plotFlags.mesh
	opts.ShowNodes = plotFlags.nodes
	if plotFlags.cmap != "" {
		opts.Raster.Cmap = plotFlags.cmap
	}
	if v := ds.Var(variable); v != nil && v.Units != "" {
		opts.Raster.CLabel = fmt.Sprintf("%s [%s]", variable, v.Units)
	}
	if opts.BBox, err = parseBBox(plotFlags.bbox); err != nil {
		return err
	}
	if plotFlags.tiles {
		fetcher := tiles.NewClient(tiles.DefaultBaseURL, 15*time.Second, logger)
		opts.Basemap = func(vp render.Viewport) (image.Image, error) {
			return tiles.Basemap(cmd.Context(), fetcher, vp)
		}
	}

	img, err := render.Plot(ds, variable, opts)
	if err != nil {
		return err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return err
	}
	return writeFile(plotFlags.output, data)
}
