package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/sarchlab/csim/cache"
)

// Accessor performs single cache accesses. *cache.Simulator implements it.
type Accessor interface {
	Access(addr uint64) cache.Outcome
}

// Summary counts how the lines of a trace were handled.
type Summary struct {
	// Lines is the number of lines read.
	Lines uint64
	// Replayed is the number of records that reached the cache.
	Replayed uint64
	// Ignored is the number of instruction fetches and unknown ops.
	Ignored uint64
	// Malformed is the number of lines that did not parse.
	Malformed uint64
}

// ReplayerOption is a functional option for configuring the Replayer.
type ReplayerOption func(*Replayer)

// WithVerboseOutput echoes every replayed record with its hit, miss and
// eviction outcomes to w.
func WithVerboseOutput(w io.Writer) ReplayerOption {
	return func(r *Replayer) {
		r.verbose = w
	}
}

// Replayer feeds trace records into an Accessor in file order.
type Replayer struct {
	accessor Accessor
	verbose  io.Writer
	summary  Summary
}

// NewReplayer creates a Replayer that drives accessor.
func NewReplayer(accessor Accessor, opts ...ReplayerOption) *Replayer {
	r := &Replayer{accessor: accessor}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Summary returns the line counts of everything replayed so far.
func (r *Replayer) Summary() Summary {
	return r.summary
}

// Apply replays one record. Loads and stores access the cache once, modifies
// twice, and everything else not at all.
func (r *Replayer) Apply(record Record) []cache.Outcome {
	n := record.Op.Accesses()
	if n == 0 {
		r.summary.Ignored++
		return nil
	}

	outcomes := make([]cache.Outcome, 0, n)
	for i := 0; i < n; i++ {
		outcomes = append(outcomes, r.accessor.Access(record.Addr))
	}

	r.summary.Replayed++

	if r.verbose != nil {
		_, _ = fmt.Fprintln(r.verbose, describe(record, outcomes))
	}

	return outcomes
}

// Replay reads the trace from reader until EOF. Lines that do not parse are
// skipped. Only read errors are returned.
func (r *Replayer) Replay(reader io.Reader) error {
	buf := bufio.NewReader(reader)

	for {
		line, err := buf.ReadString('\n')
		if len(line) > 0 {
			r.replayLine(line)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read trace: %w", err)
		}
	}
}

// ReplayFile opens the trace at path and replays it.
func (r *Replayer) ReplayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.Replay(f)
}

func (r *Replayer) replayLine(line string) {
	r.summary.Lines++

	record, err := ParseLine(line)
	if err != nil {
		r.summary.Malformed++
		log.WithFields(log.Fields{
			"line":  r.summary.Lines,
			"error": err,
		}).Debug("skipping trace line")
		return
	}

	r.Apply(record)
}

func describe(record Record, outcomes []cache.Outcome) string {
	var sb strings.Builder

	sb.WriteString(record.String())
	for _, o := range outcomes {
		if o.Hit {
			sb.WriteString(" hit")
			continue
		}

		sb.WriteString(" miss")
		if o.Evicted {
			sb.WriteString(" eviction")
		}
	}

	return sb.String()
}
