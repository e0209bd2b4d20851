package alloc

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallockit/heap"
	"github.com/joshuapare/mallockit/internal/format"
)

func TestInit_Layout(t *testing.T) {
	a := newTestAllocator(t)

	require.Equal(t, format.InitialHeapSize, heapSize(a))
	h := format.Heap(a.Heap().Bytes())
	assert.Equal(t, format.PrologueSize, h.Size(format.PrologueOffset))
	assert.True(t, h.Allocated(format.PrologueOffset))
	assert.Equal(t, h.Header(format.PrologueOffset), h.Footer(format.PrologueOffset))
	assert.Zero(t, h.Size(format.FirstBlockOffset), "epilogue expected right after the prologue")
	assert.True(t, h.Allocated(format.FirstBlockOffset))

	u := a.Usage()
	assert.Zero(t, u.AllocatedBlocks)
	assert.Zero(t, u.FreeBlocks)
	assertInvariants(t, a)
}

func TestInit_ResetsProvider(t *testing.T) {
	a := newTestAllocator(t)
	mustAlloc(t, a, 1000)
	mustAlloc(t, a, 10)

	require.NoError(t, a.Init())
	assert.Equal(t, format.InitialHeapSize, heapSize(a))
	assert.Equal(t, Stats{}, a.Stats())
	assertInvariants(t, a)

	p := mustAlloc(t, a, 16)
	assert.Equal(t, format.FirstBlockOffset, p)
}

type fixedProvider struct{ *heap.Mem }

func (fixedProvider) Reset() error { return errors.New("not supported") }

type growOnly struct{ m *heap.Mem }

func (g growOnly) Extend(n int) (int, error) { return g.m.Extend(n) }
func (g growOnly) Bounds() (int, int)        { return g.m.Bounds() }
func (g growOnly) Bytes() []byte             { return g.m.Bytes() }

func TestInit_ProviderErrors(t *testing.T) {
	_, err := New(fixedProvider{heap.NewMem(1024)})
	require.Error(t, err)

	m := heap.NewMem(1024)
	_, err = m.Extend(64)
	require.NoError(t, err)
	_, err = New(growOnly{m})
	require.ErrorIs(t, err, ErrHeapNotEmpty)

	_, err = New(heap.NewMem(32))
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, heap.ErrOutOfMemory)
}

func TestAlloc_ZeroAndNegative(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, Nil, p)
	assert.Equal(t, format.InitialHeapSize, heapSize(a), "zero-size alloc must not grow the heap")
	assert.Equal(t, Stats{}, a.Stats(), "zero-size alloc must not count")

	_, err = a.Alloc(-1)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = a.Alloc(math.MaxInt - 4)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assertInvariants(t, a)
}

func TestAlloc_FirstAllocationSplitsChunk(t *testing.T) {
	a := newTestAllocator(t)

	p := mustAlloc(t, a, 1)
	assert.Equal(t, format.FirstBlockOffset, p)
	assert.Equal(t, 16, a.UsableSize(p))
	assert.Equal(t, format.InitialHeapSize+format.ChunkSize, heapSize(a))

	s := a.Stats()
	assert.Equal(t, 1, s.GrowCalls)
	assert.Equal(t, int64(format.ChunkSize), s.GrowBytes)
	assert.Equal(t, 1, s.SplitCount)

	u := a.Usage()
	assert.Equal(t, 1, u.FreeBlocks)
	assert.Equal(t, format.ChunkSize-32, u.FreeBytes)
	assertInvariants(t, a)
}

func TestAlloc_AlignmentAndUsableSize(t *testing.T) {
	a := newTestAllocator(t)

	for _, n := range []int{1, 7, 15, 16, 17, 31, 32, 33, 100, 127, 128, 129, 1000, 4095, 40000} {
		p := mustAlloc(t, a, n)
		assert.Zero(t, p%format.Alignment, "payload %d for %d bytes not aligned", p, n)
		assert.GreaterOrEqual(t, a.UsableSize(p), n)
		assert.Len(t, a.Payload(p), a.UsableSize(p))
		assert.Equal(t, len(a.Payload(p)), cap(a.Payload(p)), "payload must not expose following bytes")
	}
	assertInvariants(t, a)
}

func TestAlloc_LargeRequestGrowsByRequest(t *testing.T) {
	a := newTestAllocator(t)

	p := mustAlloc(t, a, 5000)
	assert.Equal(t, format.InitialHeapSize+format.AdjustedSize(5000), heapSize(a))
	assert.Equal(t, format.AdjustedSize(5000)-format.Overhead, a.UsableSize(p))
	assertInvariants(t, a)
}

func TestPayloadAndUsableSize_Nil(t *testing.T) {
	a := newTestAllocator(t)
	assert.Nil(t, a.Payload(Nil))
	assert.Zero(t, a.UsableSize(Nil))
	a.Free(Nil)
	assert.Zero(t, a.Stats().FreeCalls)
}

// Scenario: A and B adjacent, A freed and reused for a smaller request, then
// B freed and merged with the heap tail.
func TestScenario_ReuseFreedHead(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(4096))

	pa := mustAlloc(t, a, 32)
	pb := mustAlloc(t, a, 32)
	require.Equal(t, pa+format.AdjustedSize(32), pb, "B must immediately follow A")

	a.Free(pa)
	assertInvariants(t, a)

	got := mustAlloc(t, a, 16)
	require.Equal(t, pa, got, "first fit must reuse A")
	// A's 16-byte surplus is below the minimum block and stays attached.
	assert.Equal(t, format.AdjustedSize(32)-format.Overhead, a.UsableSize(got))
	assert.Equal(t, 1, a.Stats().GrowCalls)

	a.Free(pb)
	assertInvariants(t, a)

	tail := 4096 - 2*format.AdjustedSize(32)
	u := a.Usage()
	assert.Equal(t, 1, u.FreeBlocks)
	assert.Equal(t, format.AdjustedSize(32)+tail, u.FreeBytes)

	a.Free(got)
	assertInvariants(t, a)
	u = a.Usage()
	assert.Equal(t, 1, u.FreeBlocks)
	assert.Equal(t, 4096, u.FreeBytes)
}

func TestScenario_ExhaustFixedHeap(t *testing.T) {
	a, err := New(heap.NewMem(4096))
	require.NoError(t, err)

	var live []Ptr
	for {
		p, err := a.Alloc(100)
		if err != nil {
			require.ErrorIs(t, err, ErrOutOfMemory)
			require.ErrorIs(t, err, heap.ErrOutOfMemory)
			assert.Equal(t, Nil, p)
			break
		}
		live = append(live, p)
		require.Less(t, len(live), 4096/32, "heap should have been exhausted")
	}
	require.NotEmpty(t, live)
	assert.LessOrEqual(t, heapSize(a), 4096)
	assert.Equal(t, 1, a.Stats().AllocFailures)
	assertInvariants(t, a)

	for _, p := range live {
		a.Free(p)
	}
	assertInvariants(t, a)
	assert.Equal(t, 1, a.Usage().FreeBlocks)

	mustAlloc(t, a, 100)
	assertInvariants(t, a)
}

func TestAlloc_OnGrowHook(t *testing.T) {
	a := newTestAllocator(t)
	var grows []int
	a.onGrow = func(n int) { grows = append(grows, n) }

	mustAlloc(t, a, 16)  // grows by one chunk
	mustAlloc(t, a, 16)  // fits in the chunk tail
	mustAlloc(t, a, 300) // tail too small: grows by the request

	assert.Equal(t, []int{format.ChunkSize, format.AdjustedSize(300)}, grows)
}

func TestAlloc_DebugLogging(t *testing.T) {
	var out bytes.Buffer
	l := logrus.New()
	l.SetOutput(&out)
	l.SetLevel(logrus.DebugLevel)

	a := newTestAllocator(t, WithLogger(l))
	p := mustAlloc(t, a, 64)
	a.Free(p)

	assert.Contains(t, out.String(), "heap initialized")
	assert.Contains(t, out.String(), "heap extended")
	assert.Contains(t, out.String(), "asize=80")
	assert.Contains(t, out.String(), "msg=free")
}

func TestAlloc_FailureLogging(t *testing.T) {
	var out bytes.Buffer
	l := logrus.New()
	l.SetOutput(&out)
	l.SetLevel(logrus.WarnLevel)

	a, err := New(heap.NewMem(256), WithLogger(l))
	require.NoError(t, err)

	_, err = a.Alloc(1000)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Empty(t, out.String(), "out of memory is a return value, not a warning")
	assert.Equal(t, 1, strings.Count(err.Error(), "extend by"), err.Error())

	l.SetLevel(logrus.DebugLevel)
	_, err = a.Alloc(1000)
	require.Error(t, err)
	assert.Contains(t, out.String(), "allocation failed")
}
