package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/recording"
	"github.com/sarchlab/csim/report"
	"github.com/sarchlab/csim/trace"
)

var errMissingArgument = errors.New("missing required command line argument")

type options struct {
	setBits       int
	associativity int
	blockBits     int
	tracePath     string
	verbose       bool

	configPath  string
	resultsPath string
	recordPath  string
	crossCheck  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "csim",
		Short: "Replay a memory trace through an LRU set-associative cache.",
		Long: `csim replays a Valgrind memory trace through a set-associative ` +
			`cache with LRU replacement and prints the number of hits, misses ` +
			`and evictions.`,
		Example: "  csim -s 4 -E 1 -b 4 -t traces/yi.trace\n" +
			"  csim -v -s 8 -E 2 -b 4 -t traces/yi.trace",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.cacheConfig(cmd)
			if errors.Is(err, errMissingArgument) {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			}
			if err != nil {
				return err
			}

			return runSimulation(*config, opts, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.IntVarP(&opts.setBits, "set-bits", "s", 0, "Number of set index bits.")
	flags.IntVarP(&opts.associativity, "lines", "E", 0, "Number of lines per set.")
	flags.IntVarP(&opts.blockBits, "block-bits", "b", 0, "Number of block offset bits.")
	flags.StringVarP(&opts.tracePath, "trace", "t", "", "Trace file.")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Optional verbose flag.")
	flags.StringVar(&opts.configPath, "config", "",
		"JSON or YAML file with set_bits, associativity and block_bits.")
	flags.StringVar(&opts.resultsPath, "results", report.DefaultResultsPath,
		"File the results are written to. Empty disables it.")
	flags.StringVar(&opts.recordPath, "record", "",
		"Record every access into <name>.sqlite3.")
	flags.BoolVar(&opts.crossCheck, "cross-check", false,
		"Replay through the Akita reference directory and compare.")

	cmd.AddCommand(newSweepCmd(stdout))

	return cmd
}

// cacheConfig builds the geometry from --config and the -s, -E and -b
// flags, the flags taking precedence.
func (o *options) cacheConfig(cmd *cobra.Command) (*cache.Config, error) {
	flags := cmd.Flags()

	config := &cache.Config{}
	if o.configPath != "" {
		loaded, err := cache.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	} else {
		for _, name := range []string{"set-bits", "lines", "block-bits"} {
			if !flags.Changed(name) {
				return nil, fmt.Errorf("%w: -%s",
					errMissingArgument, flags.Lookup(name).Shorthand)
			}
		}
	}

	if o.tracePath == "" {
		return nil, fmt.Errorf("%w: -t", errMissingArgument)
	}

	if flags.Changed("set-bits") {
		config.SetBits = o.setBits
	}
	if flags.Changed("lines") {
		config.Associativity = o.associativity
	}
	if flags.Changed("block-bits") {
		config.BlockBits = o.blockBits
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func runSimulation(config cache.Config, opts *options, stdout, stderr io.Writer) (err error) {
	traceFile, err := os.Open(opts.tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = traceFile.Close() }()

	var simOpts []cache.SimulatorOption

	var ref *cache.ReferenceModel
	if opts.crossCheck {
		ref, err = cache.NewReferenceModel(config)
		if err != nil {
			return err
		}
		simOpts = append(simOpts, cache.WithHook(ref))
	}

	var recorder *recording.SQLiteRecorder
	if opts.recordPath != "" {
		recorder = recording.NewSQLiteRecorder(opts.recordPath)
		if err := recorder.Available(); err != nil {
			return fmt.Errorf("cannot record accesses: %w", err)
		}
		recorder.Init()
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close recording: %w", closeErr)
			}
		}()
		log.WithField("file", recorder.Filename()).Info("recording accesses")
		simOpts = append(simOpts, cache.WithHook(recorder))
	}

	sim := cache.NewSimulator(config, simOpts...)

	var replayOpts []trace.ReplayerOption
	if opts.verbose {
		report.PrintGeometry(stderr, config)
		replayOpts = append(replayOpts, trace.WithVerboseOutput(stdout))
	}
	replayer := trace.NewReplayer(sim, replayOpts...)

	if err := replayer.Replay(traceFile); err != nil {
		return err
	}

	stats := sim.Stats()

	if recorder != nil {
		recorder.RecordRun(config, stats)
	}

	if ref != nil {
		if err := ref.Check(); err != nil {
			return err
		}
		log.WithField("accesses", stats.Hits+stats.Misses).Info("cross-check passed")
	}

	if opts.verbose {
		report.PrintDetails(stderr, stats, replayer.Summary())
	}

	report.PrintSummary(stdout, stats)

	if opts.resultsPath != "" {
		if err := report.WriteResults(opts.resultsPath, stats); err != nil {
			return err
		}
	}

	return nil
}
