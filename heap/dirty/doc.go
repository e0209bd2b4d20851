// Package dirty tracks modified byte ranges of a memory-mapped heap and
// flushes them to disk.
//
// The allocator reports every tag and link word it writes through Add. At
// sync time the tracker page-aligns the ranges, merges overlapping and
// adjacent ones, and flushes each merged range with msync (linux, freebsd).
// On darwin the whole mapping is flushed since msync there needs the mapping
// base address.
//
// # Usage
//
//	t := dirty.NewTracker(m)
//	t.Add(off, 8)
//	if err := t.Flush(ctx, dirty.FlushAuto); err != nil {
//	    return err
//	}
//
// # Flush modes
//
//   - FlushAuto: msync dirty pages, then fdatasync.
//   - FlushDataOnly: msync dirty pages only. The caller syncs the descriptor.
//   - FlushFull: msync dirty pages, then a full fsync (F_FULLFSYNC on darwin).
//
// A Tracker is NOT thread-safe.
package dirty
