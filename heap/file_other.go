//go:build !linux && !darwin && !freebsd

package heap

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/joshuapare/mallockit/heap/dirty"
)

// File is a heap persisted to a file. Without mmap the heap lives in memory
// and Sync writes the dirty ranges back with WriteAt.
//
// NOT thread-safe.
type File struct {
	f       *os.File
	path    string
	data    []byte
	hi      int
	opts    FileOptions
	tracker *dirty.Tracker
}

// OpenFile creates or truncates path and returns an empty heap.
func OpenFile(path string, opts FileOptions) (*File, error) {
	opts = opts.withDefaults()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(opts.Perm))
	if err != nil {
		return nil, errors.Wrap(err, "heap: open")
	}

	h := &File{f: f, path: path, data: make([]byte, opts.MaxBytes), opts: opts}
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
	base := h.hi
	h.hi = newHi
	return base, nil
}

// Bytes implements Provider.
func (h *File) Bytes() []byte { return h.data[:h.hi] }

// FD implements dirty.Mapping. There is no mapping to msync.
func (h *File) FD() int { return -1 }

// Reset truncates the file to zero and rewinds the heap.
func (h *File) Reset() error {
	if h.closed() {
		return ErrClosed
	}
	if err := h.f.Truncate(0); err != nil {
		return errors.Wrap(err, "heap: reset")
	}
	clear(h.data[:h.hi])
	h.hi = 0
	h.tracker.Reset()
	return nil
}

// Close closes the file and drops the buffer.
func (h *File) Close() error {
	if h.closed() {
		return nil
	}
	err := h.f.Close()
	h.data = nil
	h.f = nil
	h.hi = 0
	return errors.Wrap(err, "heap: close")
}

func (h *File) closed() bool { return h.data == nil }

func (h *File) sync(ctx context.Context) error {
	if err := h.f.Truncate(int64(h.hi)); err != nil {
		return errors.Wrap(err, "heap: sync")
	}
	for _, r := range h.tracker.CoalescedRanges() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end := int(r.Off), int(r.End())
		if end > h.hi {
			end = h.hi
		}
		if start >= end {
			continue
		}
		if _, err := h.f.WriteAt(h.data[start:end], int64(start)); err != nil {
			return errors.Wrap(err, "heap: sync")
		}
	}
	h.tracker.Reset()
	return errors.Wrap(h.f.Sync(), "heap: sync")
}
