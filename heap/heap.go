package heap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/joshuapare/mallockit/internal/buf"
)

// DefaultMaxBytes is the default capacity of a heap: 20 MiB.
const DefaultMaxBytes = 20 << 20

var (
	// ErrOutOfMemory indicates the heap cannot grow by the requested amount.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrClosed indicates use of a provider after Close.
	ErrClosed = errors.New("heap: provider closed")

	// ErrBadSize indicates a negative or misaligned extension request.
	ErrBadSize = errors.New("heap: bad extension size")
)

// Provider is the heap-growth boundary the allocator depends on.
type Provider interface {
	// Extend grows the heap by n bytes at its high end and returns the
	// previous high end (the start of the new region). Fails with an error
	// wrapping ErrOutOfMemory when the capacity is exhausted; the heap is
	// unchanged in that case.
	Extend(n int) (int, error)

	// Bounds returns the current [lo, hi) range of the heap.
	Bounds() (lo, hi int)

	// Bytes returns the arena [0, hi). The slice aliases the provider's
	// storage; it stays valid until Close.
	Bytes() []byte
}

// Resetter is implemented by providers that can rewind to an empty heap.
type Resetter interface {
	Reset() error
}

// Syncer is implemented by providers with durable storage.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Capacity returns the maximum size of p, or -1 when p does not report one.
func Capacity(p Provider) int {
	if c, ok := p.(interface{ Cap() int }); ok {
		return c.Cap()
	}
	return -1
}

func checkExtend(hi, n, limit int) (int, error) {
	if n < 0 {
		return 0, errors.Wrapf(ErrBadSize, "extend by %d", n)
	}
	newHi, ok := buf.AddOverflowSafe(hi, n)
	if !ok || newHi > limit {
		return 0, errors.Wrapf(ErrOutOfMemory, "extend by %d: heap at %d of %d bytes", n, hi, limit)
	}
	return newHi, nil
}
