//go:build linux || darwin || freebsd

package heap

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/mallockit/heap/dirty"
)

// File is a heap backed by a shared memory mapping of a file. The whole
// capacity is mapped once; the file itself is truncated upward on Extend so
// only the used prefix is ever touched.
//
// NOT thread-safe.
type File struct {
	f       *os.File
	path    string
	data    []byte // full mapping, len == opts.MaxBytes
	hi      int
	opts    FileOptions
	tracker *dirty.Tracker
}

// OpenFile creates or truncates path and maps it as an empty heap.
func OpenFile(path string, opts FileOptions) (*File, error) {
	opts = opts.withDefaults()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(opts.Perm))
	if err != nil {
		return nil, errors.Wrap(err, "heap: open")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, opts.MaxBytes,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "heap: mmap %d bytes", opts.MaxBytes)
	}

	h := &File{f: f, path: path, data: data, opts: opts}
	h.tracker = dirty.NewTracker(h)
	return h, nil
}

// Extend implements Provider.
func (h *File) Extend(n int) (int, error) {
	if h.closed() {
		return 0, ErrClosed
	}
	newHi, err := checkExtend(h.hi, n, len(h.data))
	if err != nil {
		return 0, err
	}
	if err := h.f.Truncate(int64(newHi)); err != nil {
		return 0, errors.Wrapf(err, "heap: grow file to %d", newHi)
	}
	base := h.hi
	h.hi = newHi
	return base, nil
}

// Bytes implements Provider.
func (h *File) Bytes() []byte { return h.data[:h.hi] }

// FD implements dirty.Mapping.
func (h *File) FD() int {
	if h.f == nil {
		return -1
	}
	return int(h.f.Fd())
}

// Reset truncates the file to zero and rewinds the heap.
func (h *File) Reset() error {
	if h.closed() {
		return ErrClosed
	}
	if err := h.f.Truncate(0); err != nil {
		return errors.Wrap(err, "heap: reset")
	}
	h.hi = 0
	h.tracker.Reset()
	return nil
}

// Close unmaps and closes the file. Unflushed changes are left to the
// kernel's writeback.
func (h *File) Close() error {
	if h.closed() {
		return nil
	}
	var errs []error
	if err := unix.Munmap(h.data); err != nil {
		errs = append(errs, errors.Wrap(err, "heap: munmap"))
	}
	if err := h.f.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "heap: close"))
	}
	h.data = nil
	h.f = nil
	h.hi = 0
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (h *File) closed() bool { return h.data == nil }

func (h *File) sync(ctx context.Context) error {
	return errors.Wrap(h.tracker.Flush(ctx, h.opts.Mode), "heap: sync")
}
