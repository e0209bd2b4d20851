// Package heap provides the growable arenas the allocator manages.
//
// A Provider hands out one contiguous byte range that only ever grows at its
// high end. Offsets into that range are the allocator's "pointers", so the
// backing storage of a Provider never moves while it is open: payload slices
// handed to clients stay valid across growth.
//
// # Providers
//
// Mem: a fixed-capacity in-memory arena, the simulated heap used by tests and
// trace replays.
//
//	h := heap.NewMem(20 << 20)
//	base, err := h.Extend(4096)
//
// File (linux, darwin): a file-backed arena. The full capacity is reserved
// with one shared mapping up front and the file is truncated upward as the
// heap grows. Writes reported to the dirty tracker are flushed with Sync.
//
//	f, err := heap.OpenFile(path, heap.FileOptions{MaxBytes: 64 << 20})
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package heap
