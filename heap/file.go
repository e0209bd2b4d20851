package heap

import (
	"context"

	"github.com/joshuapare/mallockit/heap/dirty"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	// MaxBytes is the capacity reserved up front. Non-positive selects
	// DefaultMaxBytes.
	MaxBytes int

	// Mode is the durability of Sync. Zero is dirty.FlushAuto.
	Mode dirty.FlushMode

	// Perm is the permission used when the file is created. Zero is 0o644.
	Perm uint32
}

func (o FileOptions) withDefaults() FileOptions {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Perm == 0 {
		o.Perm = 0o644
	}
	return o
}

// Tracker returns the dirty tracker that should be handed to the allocator
// so Sync knows which pages to flush.
func (f *File) Tracker() *dirty.Tracker { return f.tracker }

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Cap returns the maximum heap size.
func (f *File) Cap() int { return f.opts.MaxBytes }

// Bounds implements Provider.
func (f *File) Bounds() (int, int) { return 0, f.hi }

// Sync flushes every range reported to Tracker since the last Sync. Client
// writes into payloads are not tracked; use SyncAll to persist them.
func (f *File) Sync(ctx context.Context) error {
	if f.closed() {
		return ErrClosed
	}
	return f.sync(ctx)
}

// SyncAll marks the whole heap dirty and flushes it.
func (f *File) SyncAll(ctx context.Context) error {
	if f.closed() {
		return ErrClosed
	}
	f.tracker.Add(0, f.hi)
	return f.sync(ctx)
}
