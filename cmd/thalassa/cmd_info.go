package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.nc>",
	Short: "Print a summary of a model output file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ds, err := openDataset(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:      %s\n", args[0])
	fmt.Fprintf(out, "Solver:    %s\n", ds.Solver)
	fmt.Fprintf(out, "Nodes:     %d\n", ds.NumNodes())
	fmt.Fprintf(out, "Triangles: %d\n", ds.NumTriangles())
	fmt.Fprintf(out, "Layers:    %d\n", ds.NLayers)
	if ds.NumTimes() > 0 {
		fmt.Fprintf(out, "Times:     %d (%s .. %s)\n", ds.NumTimes(),
			ds.Times[0].Format(time.RFC3339),
			ds.Times[ds.NumTimes()-1].Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "Times:     0\n")
	}

	vars := ds.VisualizableVariables()
	fmt.Fprintf(out, "Variables: %d\n", len(vars))
	for _, name := range vars {
		v := ds.Var(name)
		desc := fmt.Sprintf("  %-16s (%s)", name, strings.Join(v.Dims, ", "))
		if v.Units != "" {
			desc += " [" + v.Units + "]"
		}
		if v.LongName != "" {
			desc += " " + v.LongName
		}
		fmt.Fprintln(out, desc)
	}
	return nil
}
