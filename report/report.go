// Package report formats simulation results for people and for graders.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// DefaultResultsPath is the file the results artifact is written to.
const DefaultResultsPath = ".csim_results"

// PrintSummary writes the one-line summary of a run.
func PrintSummary(w io.Writer, stats cache.Statistics) {
	_, _ = fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		stats.Hits, stats.Misses, stats.Evictions)
}

// WriteResults writes the three counters, space separated, to path.
func WriteResults(path string, stats cache.Statistics) error {
	data := fmt.Sprintf("%d %d %d\n", stats.Hits, stats.Misses, stats.Evictions)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	return nil
}

// PrintGeometry describes the simulated cache.
func PrintGeometry(w io.Writer, config cache.Config) {
	_, _ = fmt.Fprintf(w, "Cache: S=%d E=%d B=%d (%s)\n",
		config.NumSets(),
		config.Associativity,
		config.BlockSize(),
		humanize.IBytes(config.Capacity()))
}

// PrintDetails writes hit and miss rates and how the trace lines were used.
func PrintDetails(w io.Writer, stats cache.Statistics, summary trace.Summary) {
	accesses := stats.Hits + stats.Misses

	_, _ = fmt.Fprintf(w, "Trace lines:  %s (%s replayed, %s ignored, %s malformed)\n",
		humanize.Comma(int64(summary.Lines)),
		humanize.Comma(int64(summary.Replayed)),
		humanize.Comma(int64(summary.Ignored)),
		humanize.Comma(int64(summary.Malformed)))
	_, _ = fmt.Fprintf(w, "Accesses:     %s\n", humanize.Comma(int64(accesses)))

	if accesses == 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "Hit rate:     %.2f%%\n",
		100.0*float64(stats.Hits)/float64(accesses))
	_, _ = fmt.Fprintf(w, "Miss rate:    %.2f%%\n",
		100.0*float64(stats.Misses)/float64(accesses))
}
