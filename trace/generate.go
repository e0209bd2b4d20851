package trace

import (
	"fmt"
	"math/rand"
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Ops          int     // Target operation count, final frees included
	MinSize      int     // Smallest request; default 1
	MaxSize      int     // Largest request; default 4096
	ReallocRatio float64 // Share of ops that resize a live block
	FreeRatio    float64 // Share of ops that free a live block
	Seed         int64
	Weight       int
}

func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.Ops <= 0 {
		o.Ops = 1000
	}
	if o.MinSize <= 0 {
		o.MinSize = 1
	}
	if o.MaxSize < o.MinSize {
		o.MaxSize = max(4096, o.MinSize)
	}
	if o.ReallocRatio < 0 {
		o.ReallocRatio = 0
	}
	if o.FreeRatio <= 0 {
		o.FreeRatio = 0.35
	}
	if o.Weight <= 0 {
		o.Weight = 1
	}
	return o
}

// Generate builds a random, valid trace. Every allocated id is freed by the
// end of the trace, and ids are never reused.
func Generate(opts GenerateOptions) *Trace {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	t := &Trace{
		Name:   fmt.Sprintf("random-seed%d", opts.Seed),
		Weight: opts.Weight,
		Ops:    make([]Op, 0, opts.Ops),
	}

	var live []int
	sizes := make(map[int]int)
	peak, cur := 0, 0
	nextID := 0

	size := func() int { return opts.MinSize + rng.Intn(opts.MaxSize-opts.MinSize+1) }

	// Leave room to free everything still live at the end.
loop:
	for len(t.Ops)+len(live) < opts.Ops {
		r := rng.Float64()
		switch {
		case len(live) > 0 && r < opts.FreeRatio:
			i := rng.Intn(len(live))
			id := live[i]
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			cur -= sizes[id]
			t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})

		case len(live) > 0 && r < opts.FreeRatio+opts.ReallocRatio:
			id := live[rng.Intn(len(live))]
			n := size()
			cur += n - sizes[id]
			sizes[id] = n
			t.Ops = append(t.Ops, Op{Kind: OpRealloc, ID: id, Size: n})

		case len(t.Ops)+len(live)+2 > opts.Ops:
			// No room for an alloc and its free.
			if len(live) == 0 {
				break loop
			}

		default:
			id := nextID
			nextID++
			n := size()
			sizes[id] = n
			cur += n
			live = append(live, id)
			t.Ops = append(t.Ops, Op{Kind: OpAlloc, ID: id, Size: n})
		}
		peak = max(peak, cur)
	}

	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})
	}

	t.NumIDs = nextID
	t.SuggestedHeapSize = peak
	return t
}
