package dirty

import (
	"context"
	"sort"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// FlushMode controls durability of a Flush.
type FlushMode int

const (
	// FlushAuto flushes dirty pages and then fdatasyncs the descriptor.
	FlushAuto FlushMode = iota

	// FlushDataOnly flushes dirty pages only.
	FlushDataOnly

	// FlushFull flushes dirty pages and then performs a full fsync.
	FlushFull
)

// Range is a dirty byte range (absolute offsets into the mapping).
type Range struct {
	Off int64
	Len int64
}

// End returns the offset one past the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them.
//
// NOT thread-safe.
type Tracker struct {
	m        Mapping
	ranges   []Range
	pageSize int64
}

// NewTracker creates a tracker over m. A nil m yields a tracker that only
// records ranges; Flush is then a no-op that clears them.
func NewTracker(m Mapping) *Tracker {
	return &Tracker{
		m:        m,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(osPageSize()),
	}
}

// Add records a dirty range. Empty ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Len returns the number of raw (uncoalesced) ranges recorded.
func (t *Tracker) Len() int { return len(t.ranges) }

// PageSize returns the alignment used when coalescing.
func (t *Tracker) PageSize() int { return int(t.pageSize) }

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Ranges returns a copy of the raw ranges.
func (t *Tracker) Ranges() []Range {
	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// CoalescedRanges returns the page-aligned, sorted and merged ranges that
// Flush would write.
func (t *Tracker) CoalescedRanges() []Range {
	return t.coalesce()
}

// Flush writes all dirty ranges to disk and clears them.
//
// The context is checked before starting and between ranges. When cancelled
// mid-flush some ranges may have been written; the tracked set is kept so a
// later Flush retries all of them.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(t.ranges) == 0 || t.m == nil {
		t.Reset()
		return nil
	}

	data := t.m.Bytes()
	if len(data) == 0 {
		t.Reset()
		return nil
	}

	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}

	if mode != FlushDataOnly {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fd := t.m.FD(); fd >= 0 {
			if err := fdatasync(fd, mode == FlushFull); err != nil {
				return err
			}
		}
	}

	t.Reset()
	return nil
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ones.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Off
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// clip bounds r to a mapping of n bytes. ok is false when nothing remains.
func clip(r Range, n int) (start, end int, ok bool) {
	start, end = int(r.Off), int(r.End())
	if end > n {
		end = n
	}
	return start, end, start < end
}
