package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/mesh"
	"github.com/pmav99/thalassa/ncio"
)

var cropFlags struct {
	output  string
	bbox    string
	fixIDL  bool
	idlSpan float64
}

var cropCmd = &cobra.Command{
	Use:   "crop <file.nc>",
	Short: "Crop a dataset to a bounding box and write it back out",
	Long: `Keeps only the elements whose nodes all fall inside the bounding box,
normalizes the result to the canonical schema and writes a new NetCDF file.
With --fix-idl, elements crossing the international date line are dropped
instead (useful for global meshes).`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	f := cropCmd.Flags()
	f.StringVarP(&cropFlags.output, "output", "o", "cropped.nc", "output NetCDF path")
	f.StringVar(&cropFlags.bbox, "bbox", "", "bounding box min_lon,min_lat,max_lon,max_lat")
	f.BoolVar(&cropFlags.fixIDL, "fix-idl", false, "drop elements crossing the international date line")
	f.Float64Var(&cropFlags.idlSpan, "idl-span", 300, "minimum longitude span for an element to count as crossing the date line")
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	if cropFlags.bbox == "" && !cropFlags.fixIDL {
		return fmt.Errorf("either --bbox or --fix-idl is required")
	}
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}

	if cropFlags.fixIDL {
		if ds, err = mesh.DropElementsCrossingIDL(ds, cropFlags.idlSpan); err != nil {
			return err
		}
	}
	if cropFlags.bbox != "" {
		bound, err := parseBBox(cropFlags.bbox)
		if err != nil {
			return err
		}
		if ds, err = mesh.Crop(ds, bound); err != nil {
			return err
		}
	}

	logger.Info("cropped dataset", "nodes", ds.NumNodes(), "triangles", ds.NumTriangles())
	if err := ncio.Write(cropFlags.output, ds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d triangles\n",
		cropFlags.output, ds.NumNodes(), ds.NumTriangles())
	return nil
}

var boundaryCmd = &cobra.Command{
	Use:   "boundary <file.nc>",
	Short: "Extract the mesh boundary as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoundary,
}

var boundaryOutput string

func init() {
	boundaryCmd.Flags().StringVarP(&boundaryOutput, "output", "o", "boundary.geojson", "output GeoJSON path")
	rootCmd.AddCommand(boundaryCmd)
}

func runBoundary(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	fc, err := mesh.Boundary(ds)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(boundaryOutput, append(data, '\n'))
}
