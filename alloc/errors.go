package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the heap provider could not grow far enough.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: bad request size")

	// ErrHeapNotEmpty indicates Init was given a provider with existing
	// content that it cannot reset.
	ErrHeapNotEmpty = errors.New("alloc: heap provider is not empty")

	// ErrBadConfig indicates an invalid option or size class table.
	ErrBadConfig = errors.New("alloc: bad configuration")

	// ErrCorrupt is wrapped by every *CheckError.
	ErrCorrupt = errors.New("alloc: heap corrupted")
)
