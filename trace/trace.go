package trace

import (
	"fmt"

	"github.com/pkg/errors"
)

// OpKind is the operation letter of a trace line.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpRealloc OpKind = 'r'
	OpFree    OpKind = 'f'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpRealloc:
		return "realloc"
	case OpFree:
		return "free"
	default:
		return fmt.Sprintf("OpKind(%q)", byte(k))
	}
}

// Op is one trace operation. Size is unused for OpFree.
type Op struct {
	Kind OpKind
	ID   int
	Size int
}

func (o Op) String() string {
	if o.Kind == OpFree {
		return fmt.Sprintf("%c %d", byte(o.Kind), o.ID)
	}
	return fmt.Sprintf("%c %d %d", byte(o.Kind), o.ID, o.Size)
}

// Trace is a parsed allocation trace.
type Trace struct {
	Name              string // File name or generator label, informational
	SuggestedHeapSize int
	NumIDs            int
	Weight            int
	Ops               []Op
}

// Validate checks that every id is in range and that operations follow the
// lifecycle of a block: alloc on a dead id, realloc and free on a live one.
func (t *Trace) Validate() error {
	if t.NumIDs < 0 || t.SuggestedHeapSize < 0 || t.Weight < 0 {
		return errors.Wrap(ErrInvalid, "negative header field")
	}
	live := make([]bool, t.NumIDs)
	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return errors.Wrapf(ErrInvalid, "op %d (%s): id out of range [0, %d)", i, op, t.NumIDs)
		}
		if op.Size < 0 {
			return errors.Wrapf(ErrInvalid, "op %d (%s): negative size", i, op)
		}
		switch op.Kind {
		case OpAlloc:
			if live[op.ID] {
				return errors.Wrapf(ErrInvalid, "op %d (%s): id already allocated", i, op)
			}
			live[op.ID] = true
		case OpRealloc:
			if !live[op.ID] {
				return errors.Wrapf(ErrInvalid, "op %d (%s): id not allocated", i, op)
			}
		case OpFree:
			if !live[op.ID] {
				return errors.Wrapf(ErrInvalid, "op %d (%s): id not allocated", i, op)
			}
			live[op.ID] = false
		default:
			return errors.Wrapf(ErrInvalid, "op %d: unknown kind %q", i, byte(op.Kind))
		}
	}
	return nil
}

// Counts returns the number of operations of each kind.
func (t *Trace) Counts() (allocs, reallocs, frees int) {
	for _, op := range t.Ops {
		switch op.Kind {
		case OpAlloc:
			allocs++
		case OpRealloc:
			reallocs++
		case OpFree:
			frees++
		}
	}
	return allocs, reallocs, frees
}
