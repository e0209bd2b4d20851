package dirty

// DirtyTracker is the minimal interface for reporting modified byte ranges.
// The allocator depends only on this.
type DirtyTracker interface {
	// Add marks [off, off+length) as dirty.
	Add(off, length int)
}

// Mapping is the storage a Tracker flushes.
type Mapping interface {
	// Bytes returns the mapped region, starting at file offset 0.
	Bytes() []byte

	// FD returns the descriptor backing the mapping, or -1 for none.
	FD() int
}
