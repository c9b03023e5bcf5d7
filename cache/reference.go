package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// MaxReferenceBlockBits is the largest block offset the reference model
// supports. Akita addresses blocks with an int block size.
const MaxReferenceBlockBits = 30

// Mismatch records an access on which the reference model disagreed with
// the simulator.
type Mismatch struct {
	Outcome      Outcome
	RefHit       bool
	RefEvicted   bool
	AccessNumber uint64
}

func (m Mismatch) String() string {
	return fmt.Sprintf(
		"access %d to 0x%x: simulator hit=%t evicted=%t, reference hit=%t evicted=%t",
		m.AccessNumber, m.Outcome.Addr,
		m.Outcome.Hit, m.Outcome.Evicted,
		m.RefHit, m.RefEvicted)
}

// ReferenceModel replays accesses through an Akita cache directory with its
// LRU victim finder. Attached to a Simulator as a hook, it checks every
// outcome against an independent implementation of the same policy.
type ReferenceModel struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics

	accesses   uint64
	mismatches []Mismatch
}

// NewReferenceModel builds a reference directory with the given geometry.
func NewReferenceModel(config Config) (*ReferenceModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BlockBits > MaxReferenceBlockBits {
		return nil, fmt.Errorf(
			"reference model supports block_bits <= %d, got %d",
			MaxReferenceBlockBits, config.BlockBits)
	}

	return &ReferenceModel{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			int(config.BlockSize()),
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Stats returns the counters the reference model has accumulated.
func (r *ReferenceModel) Stats() Statistics {
	return r.stats
}

// Access performs one access on the reference directory.
func (r *ReferenceModel) Access(addr uint64) (hit, evicted bool) {
	r.accesses++

	// The directory tags blocks by their block-aligned address.
	blockAddr := r.config.BlockAddress(addr)

	block := r.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		r.stats.Hits++
		r.directory.Visit(block)
		return true, false
	}

	r.stats.Misses++

	victim := r.directory.FindVictim(blockAddr)
	if victim.IsValid {
		r.stats.Evictions++
		evicted = true
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	r.directory.Visit(victim)

	return false, evicted
}

// OnAccess replays the simulator's access and records any disagreement.
func (r *ReferenceModel) OnAccess(outcome Outcome) {
	hit, evicted := r.Access(outcome.Addr)
	if hit != outcome.Hit || evicted != outcome.Evicted {
		r.mismatches = append(r.mismatches, Mismatch{
			Outcome:      outcome,
			RefHit:       hit,
			RefEvicted:   evicted,
			AccessNumber: r.accesses,
		})
	}
}

// Mismatches returns the accesses the reference model disagreed on.
func (r *ReferenceModel) Mismatches() []Mismatch {
	return r.mismatches
}

// Check returns an error describing the first disagreement, if any.
func (r *ReferenceModel) Check() error {
	if len(r.mismatches) == 0 {
		return nil
	}

	return fmt.Errorf("cross-check failed on %d of %d accesses, first: %s",
		len(r.mismatches), r.accesses, r.mismatches[0])
}
