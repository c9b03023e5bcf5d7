package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AddressBits is the width of a simulated memory address.
const AddressBits = 64

// MaxLines bounds the number of lines (S*E) a simulated cache may hold.
const MaxLines = 1 << 28

// ErrInvalidGeometry is returned when a Config cannot describe a cache.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Config holds the geometry of a simulated cache.
type Config struct {
	// SetBits is the number of set index bits (s). The cache has 2^s sets.
	SetBits int `json:"set_bits" yaml:"set_bits"`

	// Associativity is the number of lines per set (E).
	Associativity int `json:"associativity" yaml:"associativity"`

	// BlockBits is the number of block offset bits (b). Blocks are 2^b bytes.
	BlockBits int `json:"block_bits" yaml:"block_bits"`
}

// DefaultConfig returns a small direct-mapped cache: 16 sets, 1 way, 16B
// blocks.
func DefaultConfig() *Config {
	return &Config{
		SetBits:       4,
		Associativity: 1,
		BlockBits:     4,
	}
}

// NumSets returns S = 2^s.
func (c *Config) NumSets() int {
	return 1 << c.SetBits
}

// BlockSize returns B = 2^b in bytes.
func (c *Config) BlockSize() uint64 {
	return uint64(1) << c.BlockBits
}

// NumLines returns the total number of lines, S*E.
func (c *Config) NumLines() int {
	return c.NumSets() * c.Associativity
}

// Capacity returns the number of data bytes the cache can hold (S*E*B). It
// saturates at the largest uint64.
func (c *Config) Capacity() uint64 {
	lines := uint64(c.NumLines())
	if c.BlockBits >= AddressBits || lines > ^uint64(0)>>c.BlockBits {
		return ^uint64(0)
	}
	return lines << c.BlockBits
}

// Validate checks that the geometry describes a cache that can be simulated.
func (c *Config) Validate() error {
	if c.SetBits < 0 {
		return fmt.Errorf("%w: set_bits must be >= 0", ErrInvalidGeometry)
	}
	if c.BlockBits < 0 {
		return fmt.Errorf("%w: block_bits must be >= 0", ErrInvalidGeometry)
	}
	if c.Associativity < 1 {
		return fmt.Errorf("%w: associativity must be >= 1", ErrInvalidGeometry)
	}
	if c.SetBits+c.BlockBits > AddressBits {
		return fmt.Errorf("%w: set_bits + block_bits must be <= %d",
			ErrInvalidGeometry, AddressBits)
	}
	if c.SetBits >= 31 || c.Associativity > MaxLines>>c.SetBits {
		return fmt.Errorf("%w: %d sets of %d lines exceeds %d lines",
			ErrInvalidGeometry, uint64(1)<<c.SetBits, c.Associativity, MaxLines)
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String formats the geometry the way the command line spells it.
func (c *Config) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", c.SetBits, c.Associativity, c.BlockBits)
}

// LoadConfig loads a Config from a JSON or YAML file. The format is chosen by
// the file extension; anything other than .yaml or .yml is read as JSON.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
