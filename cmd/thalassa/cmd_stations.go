package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/mesh"
	"github.com/pmav99/thalassa/schema"
	"github.com/pmav99/thalassa/stations"
)

var stationsFlags struct {
	stationsFile string
	obsDir       string
	layer        int
	output       string
}

var stationsCmd = &cobra.Command{
	Use:   "stations <file.nc> <variable>",
	Short: "Compare model output against station observations",
	Long: `For each station in the station list, extracts the model timeseries at
the nearest mesh node, aligns it with the observation record from
<obs-dir>/<station-name>.csv and computes the skill metrics. Results are
written as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: runStations,
}

func init() {
	f := stationsCmd.Flags()
	f.StringVar(&stationsFlags.stationsFile, "stations", "", "station list CSV (name,lon,lat)")
	f.StringVar(&stationsFlags.obsDir, "obs-dir", "", "directory of per-station observation CSVs (time,value)")
	f.IntVarP(&stationsFlags.layer, "layer", "l", 0, "vertical layer index")
	f.StringVarP(&stationsFlags.output, "output", "o", "-", "output path, - for stdout")
	stationsCmd.MarkFlagRequired("stations") //nolint:errcheck // flag exists
	stationsCmd.MarkFlagRequired("obs-dir")  //nolint:errcheck // flag exists
	rootCmd.AddCommand(stationsCmd)
}

type stationReport struct {
	Station stations.Station  `json:"station"`
	Node    int               `json:"node"`
	NodeLon float64           `json:"node_lon"`
	NodeLat float64           `json:"node_lat"`
	Metrics *stations.Metrics `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func runStations(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}
	variable := args[1]

	f, err := os.Open(stationsFlags.stationsFile)
	if err != nil {
		return err
	}
	defer f.Close()
	list, err := stations.ReadStations(f)
	if err != nil {
		return err
	}

	reports := make([]stationReport, 0, len(list))
	for _, st := range list {
		node := mesh.NearestNode(ds, st.Lon, st.Lat)
		report := stationReport{
			Station: st,
			Node:    node,
			NodeLon: ds.Lon[node],
			NodeLat: ds.Lat[node],
		}
		if m, err := stationMetrics(ds, variable, node, st); err != nil {
			report.Error = err.Error()
			logger.Warn("station skipped", "station", st.Name, "error", err)
		} else {
			report.Metrics = m
		}
		reports = append(reports, report)
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if stationsFlags.output == "-" {
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}
	return writeFile(stationsFlags.output, data)
}

func stationMetrics(ds *schema.Dataset, variable string, node int, st stations.Station) (*stations.Metrics, error) {
	obsPath := filepath.Join(stationsFlags.obsDir, sanitizeName(st.Name)+".csv")
	f, err := os.Open(obsPath)
	if err != nil {
		return nil, fmt.Errorf("no observation record: %w", err)
	}
	defer f.Close()

	obsTimes, obsValues, err := stations.ReadSeries(f)
	if err != nil {
		return nil, err
	}
	simTimes, simValues, err := ds.NodeSeries(variable, node, stationsFlags.layer)
	if err != nil {
		return nil, err
	}

	obs, sim := stations.Align(obsTimes, obsValues, simTimes, simValues)
	m, err := stations.Compute(obs, sim)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
}
