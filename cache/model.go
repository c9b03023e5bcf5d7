package cache

// Line is one storage slot of the cache.
type Line struct {
	Valid   bool
	Tag     uint64
	Recency uint64
}

// Model holds the lines of every set and applies the LRU replacement policy.
// Lines of set i occupy lines[i*ways : (i+1)*ways].
type Model struct {
	numSets int
	ways    int
	lines   []Line
}

// NewModel allocates an empty model with numSets sets of ways lines each.
func NewModel(numSets, ways int) *Model {
	return &Model{
		numSets: numSets,
		ways:    ways,
		lines:   make([]Line, numSets*ways),
	}
}

// NumSets returns the number of sets.
func (m *Model) NumSets() int {
	return m.numSets
}

// Ways returns the number of lines per set.
func (m *Model) Ways() int {
	return m.ways
}

// Set returns the lines of the given set. The slice aliases the model's
// storage and must not be modified.
func (m *Model) Set(set uint64) []Line {
	start := int(set) * m.ways
	return m.lines[start : start+m.ways : start+m.ways]
}

// Line returns a copy of one line.
func (m *Model) Line(set uint64, way int) Line {
	return m.lines[m.index(set, way)]
}

func (m *Model) index(set uint64, way int) int {
	return int(set)*m.ways + way
}

// Lookup returns the lowest way in the set holding a valid line with tag.
func (m *Model) Lookup(set, tag uint64) (way int, ok bool) {
	for i, line := range m.Set(set) {
		if line.Valid && line.Tag == tag {
			return i, true
		}
	}
	return 0, false
}

// Touch stamps the line with tick as its most recent use.
func (m *Model) Touch(set uint64, way int, tick uint64) {
	m.lines[m.index(set, way)].Recency = tick
}

// InsertOrEvict places tag into the set. The lowest invalid way is filled if
// there is one. Otherwise the way with the smallest recency is replaced, the
// lowest way winning ties, and its previous tag is returned.
func (m *Model) InsertOrEvict(set, tag, tick uint64) (way int, evicted bool, evictedTag uint64) {
	lines := m.Set(set)

	for i := range lines {
		if !lines[i].Valid {
			m.fill(set, i, tag, tick)
			return i, false, 0
		}
	}

	victim := 0
	for i := 1; i < len(lines); i++ {
		if lines[i].Recency < lines[victim].Recency {
			victim = i
		}
	}

	evictedTag = lines[victim].Tag
	m.fill(set, victim, tag, tick)

	return victim, true, evictedTag
}

func (m *Model) fill(set uint64, way int, tag, tick uint64) {
	m.lines[m.index(set, way)] = Line{
		Valid:   true,
		Tag:     tag,
		Recency: tick,
	}
}
