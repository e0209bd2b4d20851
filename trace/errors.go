package trace

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSyntax indicates a malformed trace file.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrInvalid indicates a well-formed trace whose operations are inconsistent.
	ErrInvalid = errors.New("trace: invalid trace")

	// ErrCheck indicates that the allocator under test returned a bad result.
	ErrCheck = errors.New("trace: correctness check failed")
)

// ReplayError reports the operation at which a replay stopped.
type ReplayError struct {
	Index int // Position in Trace.Ops
	Op    Op
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("trace: op %d (%s %d): %v", e.Index, e.Op.Kind, e.Op.ID, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }
