// Command thalassa inspects, crops and renders unstructured-mesh ocean
// model output, and serves it over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/internal/config"
	"github.com/pmav99/thalassa/internal/observability"
)

var (
	logLevel  string
	logFormat string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "thalassa",
	Short: "Visualize unstructured-mesh ocean model output",
	Long: `thalassa normalizes the NetCDF output of SCHISM, ADCIRC and Telemac
runs into a single canonical schema and renders it: field rasters,
mesh wireframes, node markers, per-node timeseries and mesh boundaries.

It can also compare model output against station observations and serve
everything over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{LogLevel: logLevel, LogFormat: logFormat}
		if logFormat != "json" && logFormat != "text" {
			return fmt.Errorf("invalid log format %q", logFormat)
		}
		logger = observability.NewLogger(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
