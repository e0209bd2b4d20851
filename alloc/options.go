package alloc

import (
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/mallockit/internal/format"
)

// Option configures a SegAllocator.
type Option func(*options)

type options struct {
	classes     SizeClassConfig
	chunkSize   int
	inPlaceGrow bool
	dt          DirtyTracker
	log         *logrus.Logger
}

func defaultOptions() options {
	return options{
		classes:     DefaultConfig,
		chunkSize:   format.ChunkSize,
		inPlaceGrow: true,
		log:         defaultLogger,
	}
}

// WithSizeClasses replaces the bucket layout.
func WithSizeClasses(c SizeClassConfig) Option {
	return func(o *options) { o.classes = c }
}

// WithChunkSize sets the minimum heap extension on a miss. It is rounded up
// to the alignment.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithInPlaceGrow controls whether Realloc may absorb a free successor (or
// extend the heap when the block is last) before moving the block.
func WithInPlaceGrow(enabled bool) Option {
	return func(o *options) { o.inPlaceGrow = enabled }
}

// WithDirtyTracker reports every tag and link write to dt.
func WithDirtyTracker(dt DirtyTracker) Option {
	return func(o *options) { o.dt = dt }
}

// WithLogger replaces the package logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
