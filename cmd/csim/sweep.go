package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/csim/harness"
)

func newSweepCmd(stdout io.Writer) *cobra.Command {
	var (
		tracePath  string
		sweepPath  string
		csvOutput  bool
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Replay one trace against every geometry of a sweep file.",
		Example: "  csim sweep -t traces/yi.trace --config sweep.yaml\n" +
			"  csim sweep -t traces/yi.trace --config sweep.yaml --csv > results.csv",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tracePath == "" || sweepPath == "" {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return errors.New("sweep needs both -t and --config")
			}
			if csvOutput && jsonOutput {
				return errors.New("--csv and --json are mutually exclusive")
			}

			geometries, err := harness.LoadSweep(sweepPath)
			if err != nil {
				return err
			}

			config := harness.DefaultConfig()
			config.Output = stdout
			config.Verbose = verbose && !csvOutput && !jsonOutput

			h := harness.NewHarness(config)
			h.AddGeometries(geometries)

			results, err := h.RunFile(tracePath)
			if err != nil {
				return err
			}

			switch {
			case csvOutput:
				h.PrintCSV(results)
			case jsonOutput:
				return h.PrintJSON(results)
			default:
				h.PrintResults(results)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&tracePath, "trace", "t", "", "Trace file.")
	cmd.Flags().StringVar(&sweepPath, "config", "", "YAML or JSON sweep file.")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Output results in CSV format.")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON.")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each geometry as it finishes.")

	return cmd
}
