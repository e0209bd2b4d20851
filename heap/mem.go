package heap

// Mem is a fixed-capacity in-memory heap. The whole capacity is allocated up
// front so the arena never moves.
//
// NOT thread-safe.
type Mem struct {
	buf     []byte
	hi      int
	extends int
}

// NewMem creates an empty in-memory heap that can grow to limit bytes. A
// non-positive limit selects DefaultMaxBytes.
func NewMem(limit int) *Mem {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	return &Mem{buf: make([]byte, limit)}
}

// Extend implements Provider.
func (m *Mem) Extend(n int) (int, error) {
	if m.buf == nil {
		return 0, ErrClosed
	}
	newHi, err := checkExtend(m.hi, n, len(m.buf))
	if err != nil {
		return 0, err
	}
	base := m.hi
	m.hi = newHi
	m.extends++
	return base, nil
}

// Bounds implements Provider.
func (m *Mem) Bounds() (int, int) { return 0, m.hi }

// Bytes implements Provider.
func (m *Mem) Bytes() []byte { return m.buf[:m.hi] }

// Cap returns the maximum heap size.
func (m *Mem) Cap() int { return len(m.buf) }

// Extends returns the number of successful Extend calls since the last Reset.
func (m *Mem) Extends() int { return m.extends }

// Reset zeroes the used region and rewinds the heap to empty.
func (m *Mem) Reset() error {
	if m.buf == nil {
		return ErrClosed
	}
	clear(m.buf[:m.hi])
	m.hi = 0
	m.extends = 0
	return nil
}

// Close releases the arena.
func (m *Mem) Close() error {
	m.buf = nil
	m.hi = 0
	return nil
}
