//go:build linux || darwin

package alloc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallockit/heap"
	"github.com/joshuapare/mallockit/internal/format"
)

func TestFileHeap_AllocSyncPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	f, err := heap.OpenFile(path, heap.FileOptions{MaxBytes: 1 << 20})
	require.NoError(t, err)
	defer f.Close()

	a, err := New(f, WithDirtyTracker(f.Tracker()), WithChunkSize(4096))
	require.NoError(t, err)

	p := mustAlloc(t, a, 64)
	copy(a.Payload(p), "persisted payload")
	f.Tracker().Add(p, len("persisted payload"))
	q := mustAlloc(t, a, 3000)
	a.Free(q)
	assertInvariants(t, a)

	require.NoError(t, f.Sync(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, heapSize(a))

	h := format.Heap(raw)
	assert.Equal(t, "persisted payload", string(raw[p:p+len("persisted payload")]))
	assert.True(t, h.Allocated(p))
	assert.Equal(t, format.AdjustedSize(64), h.Size(p))
	assert.False(t, h.Allocated(h.Next(p)), "q merged with the tail on disk")
}

func TestFileHeap_InitResetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	f, err := heap.OpenFile(path, heap.FileOptions{MaxBytes: 1 << 20})
	require.NoError(t, err)
	defer f.Close()

	a, err := New(f)
	require.NoError(t, err)
	mustAlloc(t, a, 10000)

	require.NoError(t, a.Init())
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(format.InitialHeapSize), st.Size())
	assertInvariants(t, a)
}
