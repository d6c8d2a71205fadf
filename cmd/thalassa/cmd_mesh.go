package main

import (
	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/render"
)

var meshFlags struct {
	output string
	width  int
	height int
	bbox   string
	title  string
}

var meshCmd = &cobra.Command{
	Use:   "mesh <file.nc>",
	Short: "Render the mesh wireframe to a PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runMesh,
}

var nodesFlags struct {
	output string
	width  int
	height int
	bbox   string
	size   float64
}

var nodesCmd = &cobra.Command{
	Use:   "nodes <file.nc>",
	Short: "Render the mesh nodes to a PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodes,
}

func init() {
	f := meshCmd.Flags()
	f.StringVarP(&meshFlags.output, "output", "o", "mesh.png", "output PNG path")
	f.IntVar(&meshFlags.width, "width", 1200, "image width in pixels")
	f.IntVar(&meshFlags.height, "height", 900, "image height in pixels")
	f.StringVar(&meshFlags.bbox, "bbox", "", "bounding box min_lon,min_lat,max_lon,max_lat")
	f.StringVar(&meshFlags.title, "title", "", "image title")
	rootCmd.AddCommand(meshCmd)

	f = nodesCmd.Flags()
	f.StringVarP(&nodesFlags.output, "output", "o", "nodes.png", "output PNG path")
	f.IntVar(&nodesFlags.width, "width", 1200, "image width in pixels")
	f.IntVar(&nodesFlags.height, "height", 900, "image height in pixels")
	f.StringVar(&nodesFlags.bbox, "bbox", "", "bounding box min_lon,min_lat,max_lon,max_lat")
	f.Float64Var(&nodesFlags.size, "size", 4, "marker diameter in pixels")
	rootCmd.AddCommand(nodesCmd)
}

func runMesh(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	vp, err := cliViewport(ds, meshFlags.bbox, meshFlags.width, meshFlags.height)
	if err != nil {
		return err
	}
	opts := render.DefaultWireframeOptions()
	opts.Title = meshFlags.title

	data, err := render.EncodePNG(render.Wireframe(ds, vp, opts))
	if err != nil {
		return err
	}
	return writeFile(meshFlags.output, data)
}

func runNodes(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	vp, err := cliViewport(ds, nodesFlags.bbox, nodesFlags.width, nodesFlags.height)
	if err != nil {
		return err
	}
	opts := render.DefaultNodeOptions()
	opts.Size = nodesFlags.size

	data, err := render.EncodePNG(render.Nodes(ds, vp, opts))
	if err != nil {
		return err
	}
	return writeFile(nodesFlags.output, data)
}
