// Package harness replays one trace against many cache geometries and
// reports the results side by side.
package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// Geometry names one cache configuration of a sweep.
type Geometry struct {
	// Name identifies the geometry in reports
	Name string `json:"name" yaml:"name"`

	cache.Config `yaml:",inline"`
}

// SweepFile is the on-disk form of a sweep.
type SweepFile struct {
	Geometries []Geometry `json:"geometries" yaml:"geometries"`
}

// Result holds the counters of one geometry.
type Result struct {
	// Name identifies the geometry
	Name string `json:"name"`

	SetBits       int `json:"set_bits"`
	Associativity int `json:"associativity"`
	BlockBits     int `json:"block_bits"`

	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`

	// HitRate is hits over all accesses, in percent
	HitRate float64 `json:"hit_rate_percent"`

	// WallTime is the actual time taken to replay the trace
	WallTime time.Duration `json:"wall_time_ns"`
}

// Config configures the harness.
type Config struct {
	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose prints each geometry as it finishes
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() Config {
	return Config{
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs a trace against a list of geometries.
type Harness struct {
	config     Config
	geometries []Geometry
}

// NewHarness creates a new harness.
func NewHarness(config Config) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		geometries: []Geometry{},
	}
}

// LoadSweep reads a YAML or JSON sweep file and validates every geometry.
func LoadSweep(path string) ([]Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file: %w", err)
	}

	// JSON documents are valid YAML.
	var file SweepFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sweep file: %w", err)
	}

	if len(file.Geometries) == 0 {
		return nil, fmt.Errorf("sweep file %s lists no geometries", path)
	}

	for i := range file.Geometries {
		g := &file.Geometries[i]
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("geometry %d (%s): %w", i, g.Name, err)
		}
		if g.Name == "" {
			g.Name = g.Config.String()
		}
	}

	return file.Geometries, nil
}

// AddGeometry adds a geometry to the harness.
func (h *Harness) AddGeometry(g Geometry) {
	h.geometries = append(h.geometries, g)
}

// AddGeometries adds multiple geometries to the harness.
func (h *Harness) AddGeometries(geometries []Geometry) {
	h.geometries = append(h.geometries, geometries...)
}

// RunFile reads the trace at path once and runs every geometry on it.
func (h *Harness) RunFile(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	return h.Run(data)
}

// Run replays the trace held in data against every geometry, each on a
// fresh simulator.
func (h *Harness) Run(data []byte) ([]Result, error) {
	results := make([]Result, 0, len(h.geometries))

	for _, g := range h.geometries {
		result, err := h.runGeometry(g, data)
		if err != nil {
			return nil, err
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%s: hits:%d misses:%d evictions:%d\n",
				result.Name, result.Hits, result.Misses, result.Evictions)
		}

		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) runGeometry(g Geometry, data []byte) (Result, error) {
	if err := g.Validate(); err != nil {
		return Result{}, fmt.Errorf("geometry %s: %w", g.Name, err)
	}

	sim := cache.NewSimulator(g.Config)
	replayer := trace.NewReplayer(sim)

	start := time.Now()
	if err := replayer.Replay(bytes.NewReader(data)); err != nil {
		return Result{}, err
	}
	wallTime := time.Since(start)

	stats := sim.Stats()
	result := Result{
		Name:          g.Name,
		SetBits:       g.SetBits,
		Associativity: g.Associativity,
		BlockBits:     g.BlockBits,
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		Evictions:     stats.Evictions,
		WallTime:      wallTime,
	}
	if accesses := stats.Hits + stats.Misses; accesses > 0 {
		result.HitRate = 100.0 * float64(stats.Hits) / float64(accesses)
	}

	return result, nil
}

// PrintResults outputs results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Sweep Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Geometry: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  s=%d E=%d b=%d\n",
			r.SetBits, r.Associativity, r.BlockBits)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:      %d\n", r.Hits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.Misses)
		_, _ = fmt.Fprintf(h.config.Output, "  Evictions: %d\n", r.Evictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate:  %.2f%%\n", r.HitRate)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,set_bits,associativity,block_bits,hits,misses,evictions,hit_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%.2f\n",
			r.Name,
			r.SetBits,
			r.Associativity,
			r.BlockBits,
			r.Hits,
			r.Misses,
			r.Evictions,
			r.HitRate,
		)
	}
}

// PrintJSON outputs results as an indented JSON array.
func (h *Harness) PrintJSON(results []Result) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
