//go:build !linux && !freebsd && !darwin

package dirty

import "context"

const standardPageSize = 4096

// flushRanges is a no-op: on these platforms the heap is not memory-mapped
// and the owner writes CoalescedRanges itself.
func (t *Tracker) flushRanges(context.Context, []byte) error { return nil }

func fdatasync(int, bool) error { return nil }

func osPageSize() int { return standardPageSize }
