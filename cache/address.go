package cache

// Decode splits addr into its set index and tag under the geometry.
//
// The low BlockBits bits select a byte within the block, the next SetBits
// bits select the set, and the remaining high bits form the tag. The Config
// must have passed Validate.
func (c *Config) Decode(addr uint64) (set uint64, tag uint64) {
	setMask := uint64(1)<<c.SetBits - 1
	set = (addr >> c.BlockBits) & setMask
	tag = addr >> (c.SetBits + c.BlockBits)
	return set, tag
}

// BlockAddress returns addr with its block offset bits cleared.
func (c *Config) BlockAddress(addr uint64) uint64 {
	return addr &^ (c.BlockSize() - 1)
}
