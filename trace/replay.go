package trace

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/joshuapare/mallockit/alloc"
	"github.com/joshuapare/mallockit/heap"
	"github.com/joshuapare/mallockit/internal/buf"
	"github.com/joshuapare/mallockit/internal/format"
	"github.com/joshuapare/mallockit/internal/idgen"
	"github.com/joshuapare/mallockit/internal/telemetry"
)

// Target is an allocator under test together with the heap it manages.
type Target interface {
	alloc.Allocator
	Heap() heap.Provider
}

// Checker is implemented by targets that can verify their own heap.
type Checker interface {
	CheckHeap() error
}

// Options configures Replay.
type Options struct {
	// CheckData fills every payload with an id-derived pattern and verifies
	// it on free and across resizes.
	CheckData bool

	// CheckHeap runs the target's own consistency check after every op when
	// the target implements Checker. The check always runs once at the end.
	CheckHeap bool

	// Tracer overrides the global module tracer.
	Tracer oteltrace.Tracer

	// Logger receives per-run summaries at Info and failures at Error.
	Logger *logrus.Logger
}

// Result summarizes one replay.
type Result struct {
	RunID       string        `json:"run_id"`
	Name        string        `json:"name"`
	Ops         int           `json:"ops"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	PeakPayload int           `json:"peak_payload"` // Largest sum of live requested sizes
	HeapSize    int           `json:"heap_size"`    // Heap high end after the last op
	Utilization float64       `json:"utilization"`  // PeakPayload / HeapSize
	Throughput  float64       `json:"throughput"`   // Ops per second
}

// block is a live payload range tracked by the driver.
type block struct {
	lo, hi int // [lo, lo+size)
	id     int
}

type replayer struct {
	target Target
	opts   Options
	ptrs   []alloc.Ptr
	sizes  []int
	ranges []block // sorted by lo
	cur    int
	peak   int
}

// Replay runs tr against target. It stops at the first failing operation
// and returns a *ReplayError wrapping the cause; correctness failures also
// wrap ErrCheck. The context is checked between operations.
func Replay(ctx context.Context, target Target, tr *Trace, opts Options) (*Result, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	res := &Result{RunID: idgen.New(), Name: tr.Name, Ops: len(tr.Ops)}
	ctx, span := tracer.Start(ctx, "trace.Replay", oteltrace.WithAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("trace.name", tr.Name),
		attribute.Int("trace.ops", len(tr.Ops)),
		attribute.Int("trace.ids", tr.NumIDs),
	))
	defer span.End()

	r := &replayer{
		target: target,
		opts:   opts,
		ptrs:   make([]alloc.Ptr, tr.NumIDs),
		sizes:  make([]int, tr.NumIDs),
	}

	start := time.Now()
	err := r.run(ctx, tr)
	res.Elapsed = time.Since(start)

	if err == nil {
		if c, ok := target.(Checker); ok {
			if cerr := c.CheckHeap(); cerr != nil {
				err = errors.Wrap(cerr, "final heap check")
			}
		}
	}

	_, res.HeapSize = target.Heap().Bounds()
	res.PeakPayload = r.peak
	if res.HeapSize > 0 {
		res.Utilization = float64(r.peak) / float64(res.HeapSize)
	}
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.Throughput = float64(len(tr.Ops)) / secs
	}

	span.SetAttributes(
		attribute.Int("heap.size", res.HeapSize),
		attribute.Int("payload.peak", res.PeakPayload),
		attribute.Float64("utilization", res.Utilization),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if opts.Logger != nil {
			opts.Logger.WithFields(logrus.Fields{
				"prefix": "trace",
				"run":    res.RunID,
				"trace":  tr.Name,
			}).WithError(err).Error("replay failed")
		}
		return res, err
	}

	span.SetStatus(codes.Ok, "")
	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"prefix": "trace",
			"run":    res.RunID,
			"trace":  tr.Name,
			"ops":    res.Ops,
			"util":   res.Utilization,
			"heap":   res.HeapSize,
		}).Info("replay complete")
	}
	return res, nil
}

func (r *replayer) run(ctx context.Context, tr *Trace) error {
	checker, _ := r.target.(Checker)

	for i, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return &ReplayError{Index: i, Op: op, Err: err}
		}
		if op.ID < 0 || op.ID >= len(r.ptrs) {
			return &ReplayError{Index: i, Op: op, Err: errors.Wrap(ErrInvalid, "id out of range")}
		}

		var err error
		switch op.Kind {
		case OpAlloc:
			err = r.alloc(op)
		case OpRealloc:
			err = r.realloc(op)
		case OpFree:
			err = r.free(op)
		default:
			err = errors.Wrapf(ErrInvalid, "unknown op %q", byte(op.Kind))
		}
		if err == nil && r.opts.CheckHeap && checker != nil {
			err = checker.CheckHeap()
		}
		if err != nil {
			return &ReplayError{Index: i, Op: op, Err: err}
		}
	}
	return nil
}

func (r *replayer) alloc(op Op) error {
	p, err := r.target.Alloc(op.Size)
	if err != nil {
		return err
	}
	if err := r.add(op.ID, p, op.Size); err != nil {
		return err
	}
	if r.opts.CheckData {
		fillID(r.target.Payload(p)[:op.Size], op.ID)
	}
	return nil
}

func (r *replayer) realloc(op Op) error {
	old, oldSize := r.ptrs[op.ID], r.sizes[op.ID]

	p, err := r.target.Realloc(old, op.Size)
	if err != nil {
		return err
	}
	r.remove(op.ID)
	if err := r.add(op.ID, p, op.Size); err != nil {
		return err
	}
	if r.opts.CheckData {
		payload := r.target.Payload(p)
		if err := verifyID(payload, min(oldSize, op.Size), op.ID); err != nil {
			return errors.Wrap(err, "resize lost data")
		}
		fillID(payload[:op.Size], op.ID)
	}
	return nil
}

func (r *replayer) free(op Op) error {
	p := r.ptrs[op.ID]
	if r.opts.CheckData && p != alloc.Nil {
		if err := verifyID(r.target.Payload(p), r.sizes[op.ID], op.ID); err != nil {
			return errors.Wrap(err, "payload clobbered")
		}
	}
	r.remove(op.ID)
	r.target.Free(p)
	return nil
}

// add records a new live range after checking alignment, bounds and overlap.
func (r *replayer) add(id int, p alloc.Ptr, size int) error {
	r.ptrs[id], r.sizes[id] = p, size
	if size == 0 {
		return nil
	}
	if p == alloc.Nil {
		return errors.Wrapf(ErrCheck, "nil payload for %d bytes", size)
	}
	if !format.IsAligned(p) {
		return errors.Wrapf(ErrCheck, "payload %d not %d-byte aligned", p, format.Alignment)
	}
	lo, hi := r.target.Heap().Bounds()
	if _, err := buf.CheckRange(lo, hi, p, size); err != nil {
		return errors.Wrapf(ErrCheck, "payload outside heap: %v", err)
	}
	if len(r.target.Payload(p)) < size {
		return errors.Wrapf(ErrCheck, "payload %d holds %d bytes, asked %d", p, len(r.target.Payload(p)), size)
	}

	b := block{lo: p, hi: p + size, id: id}
	i := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].lo >= b.lo })
	if i < len(r.ranges) && r.ranges[i].lo < b.hi {
		return errors.Wrapf(ErrCheck, "payload [%d, %d) overlaps id %d at [%d, %d)",
			b.lo, b.hi, r.ranges[i].id, r.ranges[i].lo, r.ranges[i].hi)
	}
	if i > 0 && r.ranges[i-1].hi > b.lo {
		return errors.Wrapf(ErrCheck, "payload [%d, %d) overlaps id %d at [%d, %d)",
			b.lo, b.hi, r.ranges[i-1].id, r.ranges[i-1].lo, r.ranges[i-1].hi)
	}
	r.ranges = append(r.ranges, block{})
	copy(r.ranges[i+1:], r.ranges[i:])
	r.ranges[i] = b

	r.cur += size
	r.peak = max(r.peak, r.cur)
	return nil
}

// remove forgets the live range of id.
func (r *replayer) remove(id int) {
	p, size := r.ptrs[id], r.sizes[id]
	r.ptrs[id], r.sizes[id] = alloc.Nil, 0
	if size == 0 {
		return
	}
	i := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].lo >= p })
	if i < len(r.ranges) && r.ranges[i].lo == p {
		r.ranges = append(r.ranges[:i], r.ranges[i+1:]...)
		r.cur -= size
	}
}

func patternByte(id, i int) byte {
	return byte(id*31 + i)
}

func fillID(b []byte, id int) {
	for i := range b {
		b[i] = patternByte(id, i)
	}
}

func verifyID(b []byte, n, id int) error {
	if len(b) < n {
		return errors.Wrapf(ErrCheck, "payload holds %d bytes, expected at least %d", len(b), n)
	}
	for i := range n {
		if b[i] != patternByte(id, i) {
			return errors.Wrapf(ErrCheck, "byte %d of id %d is %#x, want %#x", i, id, b[i], patternByte(id, i))
		}
	}
	return nil
}
