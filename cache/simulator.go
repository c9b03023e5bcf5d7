// Package cache models a set-associative cache with LRU replacement and
// counts the hits, misses and evictions of a stream of memory accesses.
package cache

// Statistics holds the counters of one simulation run.
type Statistics struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Outcome describes what a single access did to the cache.
type Outcome struct {
	// Addr is the accessed address.
	Addr uint64
	// Set and Tag are the decoded address fields.
	Set uint64
	Tag uint64
	// Way is the line that now holds the block.
	Way int
	// Hit is true if the block was already cached.
	Hit bool
	// Evicted is true if a valid line was replaced to make room.
	Evicted bool
	// EvictedTag is the tag of the replaced line when Evicted is true.
	EvictedTag uint64
	// Tick is the access tick stamped on the line.
	Tick uint64
}

// AccessHook observes every access a Simulator performs.
type AccessHook interface {
	OnAccess(outcome Outcome)
}

// SimulatorOption is a functional option for configuring the Simulator.
type SimulatorOption func(*Simulator)

// WithHook registers a hook that is called after every access.
func WithHook(hook AccessHook) SimulatorOption {
	return func(s *Simulator) {
		s.hooks = append(s.hooks, hook)
	}
}

// Simulator drives accesses through a Model and keeps the run's counters.
type Simulator struct {
	config Config
	model  *Model
	stats  Statistics

	// tick is stamped on every line touched and advances once per access.
	// A uint64 does not wrap within any trace that can be replayed.
	tick uint64

	hooks []AccessHook
}

// NewSimulator creates a Simulator with an empty cache of the given
// geometry. The config must have passed Validate.
func NewSimulator(config Config, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		config: config,
		model:  NewModel(config.NumSets(), config.Associativity),
		tick:   1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Config returns the cache geometry.
func (s *Simulator) Config() Config {
	return s.config
}

// Model returns the underlying cache storage.
func (s *Simulator) Model() *Model {
	return s.model
}

// Stats returns the counters accumulated so far.
func (s *Simulator) Stats() Statistics {
	return s.stats
}

// Tick returns the tick the next access will be stamped with.
func (s *Simulator) Tick() uint64 {
	return s.tick
}

// Access performs one memory access to addr.
func (s *Simulator) Access(addr uint64) Outcome {
	set, tag := s.config.Decode(addr)
	outcome := Outcome{
		Addr: addr,
		Set:  set,
		Tag:  tag,
		Tick: s.tick,
	}

	if way, ok := s.model.Lookup(set, tag); ok {
		s.stats.Hits++
		s.model.Touch(set, way, s.tick)
		outcome.Way = way
		outcome.Hit = true
	} else {
		s.stats.Misses++
		way, evicted, evictedTag := s.model.InsertOrEvict(set, tag, s.tick)
		if evicted {
			s.stats.Evictions++
		}
		outcome.Way = way
		outcome.Evicted = evicted
		outcome.EvictedTag = evictedTag
	}

	s.tick++

	for _, hook := range s.hooks {
		hook.OnAccess(outcome)
	}

	return outcome
}

// Modify performs a read followed by a write to addr.
func (s *Simulator) Modify(addr uint64) (read, write Outcome) {
	read = s.Access(addr)
	write = s.Access(addr)
	return read, write
}

// Reset invalidates every line and clears the counters and the tick.
func (s *Simulator) Reset() {
	s.model = NewModel(s.config.NumSets(), s.config.Associativity)
	s.stats = Statistics{}
	s.tick = 1
}
