package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/mesh"
	"github.com/pmav99/thalassa/render"
)

var tsFlags struct {
	output string
	node   int
	lon    float64
	lat    float64
	layer  int
	asJSON bool
}

var tsCmd = &cobra.Command{
	Use:   "ts <file.nc> <variable>",
	Short: "Extract the timeseries at a node",
	Long: `Extracts the per-node timeseries of a variable, either at an explicit
node index (--node) or at the node nearest to a coordinate (--lon/--lat).
The result is a PNG curve, or JSON with --json.`,
	Args: cobra.ExactArgs(2),
	RunE: runTS,
}

func init() {
	f := tsCmd.Flags()
	f.StringVarP(&tsFlags.output, "output", "o", "ts.png", "output path")
	f.IntVar(&tsFlags.node, "node", -1, "node index")
	f.Float64Var(&tsFlags.lon, "lon", 0, "longitude of the point of interest")
	f.Float64Var(&tsFlags.lat, "lat", 0, "latitude of the point of interest")
	f.IntVarP(&tsFlags.layer, "layer", "l", 0, "vertical layer index")
	f.BoolVar(&tsFlags.asJSON, "json", false, "write JSON instead of a PNG")
	rootCmd.AddCommand(tsCmd)
}

func runTS(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	variable := args[1]

	node := tsFlags.node
	if node < 0 {
		if !cmd.Flags().Changed("lon") || !cmd.Flags().Changed("lat") {
			return fmt.Errorf("either --node or both --lon and --lat are required")
		}
		node = mesh.NearestNode(ds, tsFlags.lon, tsFlags.lat)
		logger.Info("nearest node selected", "node", node, "lon", ds.Lon[node], "lat", ds.Lat[node])
	}
	if node >= ds.NumNodes() {
		return fmt.Errorf("node %d out of range [0, %d)", node, ds.NumNodes())
	}

	times, values, err := ds.NodeSeries(variable, node, tsFlags.layer)
	if err != nil {
		return err
	}

	if tsFlags.asJSON {
		// NaN samples become null; encoding/json cannot represent NaN.
		payload := struct {
			Variable string      `json:"variable"`
			Node     int         `json:"node"`
			Lon      float64     `json:"lon"`
			Lat      float64     `json:"lat"`
			Times    []time.Time `json:"times"`
			Values   []*float64  `json:"values"`
		}{variable, node, ds.Lon[node], ds.Lat[node], times, nullableFloats(values)}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		return writeFile(tsFlags.output, append(data, '\n'))
	}

	opts := render.DefaultTimeseriesOptions()
	opts.Title = fmt.Sprintf("%s @ node %d (%.4f, %.4f)", variable, node, ds.Lon[node], ds.Lat[node])
	if v := ds.Var(variable); v != nil && v.Units != "" {
		opts.YLabel = fmt.Sprintf("%s [%s]", variable, v.Units)
	}
	data, err := render.Timeseries(times, values, opts)
	if err != nil {
		return err
	}
	return writeFile(tsFlags.output, data)
}
