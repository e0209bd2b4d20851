package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/mallockit/alloc"
	"github.com/joshuapare/mallockit/heap"
	"github.com/joshuapare/mallockit/internal/format"
)

// Backing kinds.
const (
	BackingMem  = "mem"
	BackingFile = "file"
)

var errConfig = errors.New("mallocctl: invalid config")

// Config is the mallocctl configuration file.
type Config struct {
	Heap      HeapConfig      `yaml:"heap"`
	Allocator AllocatorConfig `yaml:"allocator"`
}

// HeapConfig selects and sizes the heap provider.
type HeapConfig struct {
	Backing  string `yaml:"backing"`   // mem | file
	Path     string `yaml:"path"`      // file backing only
	MaxBytes int    `yaml:"max_bytes"` // capacity of the heap
}

// AllocatorConfig maps onto alloc options.
type AllocatorConfig struct {
	ChunkSize   int                   `yaml:"chunk_size"`
	InPlaceGrow *bool                 `yaml:"in_place_grow"`
	SizeClasses alloc.SizeClassConfig `yaml:"size_classes"`
}

func defaultConfig() Config {
	grow := true
	return Config{
		Heap: HeapConfig{
			Backing:  BackingMem,
			MaxBytes: heap.DefaultMaxBytes,
		},
		Allocator: AllocatorConfig{
			ChunkSize:   format.ChunkSize,
			InPlaceGrow: &grow,
			SizeClasses: alloc.DefaultConfig,
		},
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration before any heap is created.
func (c Config) Validate() error {
	switch c.Heap.Backing {
	case BackingMem:
	case BackingFile:
		if c.Heap.Path == "" {
			return errors.Wrap(errConfig, "heap.path is required for file backing")
		}
	default:
		return errors.Wrapf(errConfig, "heap.backing %q must be %q or %q", c.Heap.Backing, BackingMem, BackingFile)
	}
	if c.Heap.MaxBytes < format.InitialHeapSize {
		return errors.Wrapf(errConfig, "heap.max_bytes %d is below the initial heap size %d",
			c.Heap.MaxBytes, format.InitialHeapSize)
	}
	if c.Allocator.ChunkSize <= 0 {
		return errors.Wrapf(errConfig, "allocator.chunk_size %d must be positive", c.Allocator.ChunkSize)
	}
	if err := c.Allocator.SizeClasses.Validate(); err != nil {
		return errors.Wrap(err, "allocator.size_classes")
	}
	return nil
}

// options converts the allocator section.
func (c Config) options() []alloc.Option {
	opts := []alloc.Option{
		alloc.WithChunkSize(c.Allocator.ChunkSize),
		alloc.WithSizeClasses(c.Allocator.SizeClasses),
		alloc.WithLogger(logger),
	}
	if c.Allocator.InPlaceGrow != nil {
		opts = append(opts, alloc.WithInPlaceGrow(*c.Allocator.InPlaceGrow))
	}
	return opts
}

// session is an allocator bound to a freshly created heap.
type session struct {
	*alloc.SegAllocator
	file *heap.File
}

// newSession creates the configured heap and an allocator over it.
func newSession(cfg Config) (*session, error) {
	opts := cfg.options()

	if cfg.Heap.Backing == BackingFile {
		f, err := heap.OpenFile(cfg.Heap.Path, heap.FileOptions{MaxBytes: cfg.Heap.MaxBytes})
		if err != nil {
			return nil, err
		}
		a, err := alloc.New(f, append(opts, alloc.WithDirtyTracker(f.Tracker()))...)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &session{SegAllocator: a, file: f}, nil
	}

	a, err := alloc.New(heap.NewMem(cfg.Heap.MaxBytes), opts...)
	if err != nil {
		return nil, err
	}
	return &session{SegAllocator: a}, nil
}

// reset reinitializes the heap for the next trace.
func (s *session) reset() error {
	return s.Init()
}

// close flushes the whole heap, payloads included, and releases a
// file-backed heap.
func (s *session) close(ctx context.Context) error {
	if s.file == nil {
		return nil
	}
	if err := s.file.SyncAll(ctx); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
