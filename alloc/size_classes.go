package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/mallockit/internal/format"
)

// SizeClassConfig defines the bucket layout of the free-list index.
type SizeClassConfig struct {
	// Name for this configuration (reports, benchmarks)
	Name string `yaml:"name"`

	// Small block settings (linear increments)
	SmallMin       int `yaml:"small_min"`       // Lower bound of the first class
	SmallMax       int `yaml:"small_max"`       // End of the linear classes
	SmallIncrement int `yaml:"small_increment"` // Width of each linear class

	// Medium block settings (geometric growth); sizes >= MediumMax share the
	// final catch-all bucket.
	MediumMax    int     `yaml:"medium_max"`
	GrowthFactor float64 `yaml:"growth_factor"`
}

// Predefined configurations.
var (
	// ConfigDefault: 16-byte classes below 128, power-of-two classes up to
	// 32K, one bucket above. 8 + 8 + 1 = 17 buckets.
	ConfigDefault = SizeClassConfig{
		Name:           "Default",
		SmallMin:       0,
		SmallMax:       128,
		SmallIncrement: 16,
		MediumMax:      32768,
		GrowthFactor:   2.0,
	}

	// ConfigFineGrained: many small buckets for workloads dominated by small
	// objects. 32 linear classes + ~12 geometric classes.
	ConfigFineGrained = SizeClassConfig{
		Name:           "FineGrained",
		SmallMin:       0,
		SmallMax:       512,
		SmallIncrement: 16,
		MediumMax:      65536,
		GrowthFactor:   1.5,
	}

	// ConfigCoarse: few buckets, shorter scans, more internal fragmentation.
	ConfigCoarse = SizeClassConfig{
		Name:           "Coarse",
		SmallMin:       0,
		SmallMax:       128,
		SmallIncrement: 32,
		MediumMax:      16384,
		GrowthFactor:   4.0,
	}

	// DefaultConfig is used when no configuration is given.
	DefaultConfig = ConfigDefault
)

// Validate reports whether c describes a usable, 16-aligned table.
func (c SizeClassConfig) Validate() error {
	switch {
	case c.SmallIncrement <= 0 || c.SmallIncrement%format.Alignment != 0:
		return fmt.Errorf("%w: small_increment %d must be a positive multiple of %d",
			ErrBadConfig, c.SmallIncrement, format.Alignment)
	case c.SmallMin < 0 || c.SmallMin%format.Alignment != 0:
		return fmt.Errorf("%w: small_min %d must be a non-negative multiple of %d",
			ErrBadConfig, c.SmallMin, format.Alignment)
	case c.SmallMax <= c.SmallMin || (c.SmallMax-c.SmallMin)%c.SmallIncrement != 0:
		return fmt.Errorf("%w: small_max %d must exceed small_min by a multiple of small_increment",
			ErrBadConfig, c.SmallMax)
	case c.MediumMax < c.SmallMax || c.MediumMax%format.Alignment != 0:
		return fmt.Errorf("%w: medium_max %d must be a multiple of %d and >= small_max",
			ErrBadConfig, c.MediumMax, format.Alignment)
	case c.MediumMax > c.SmallMax && !(c.GrowthFactor > 1):
		return fmt.Errorf("%w: growth_factor %v must be > 1", ErrBadConfig, c.GrowthFactor)
	}
	return nil
}

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []int // Inclusive upper bound of each class
	numClasses int
}

// newSizeClassTable computes size class boundaries from config. The config
// must have passed Validate.
func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]int, 0, 32),
	}

	// Phase 1: small sizes, linear increments
	for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
		table.boundaries = append(table.boundaries, size+config.SmallIncrement-1)
	}

	// Phase 2: medium sizes, geometric growth rounded to the alignment
	size := config.SmallMax
	for size < config.MediumMax {
		next := format.AlignUp(int(math.Ceil(float64(size)*config.GrowthFactor)), format.Alignment)
		if next <= size {
			next = size + format.Alignment
		}
		next = min(next, config.MediumMax)
		table.boundaries = append(table.boundaries, next-1)
		size = next
	}

	table.numClasses = len(table.boundaries)
	return table
}

// getSizeClass returns the class index for a block size. Sizes above every
// boundary map to numClasses (the catch-all bucket).
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	return t.numClasses
}

// classRange returns the inclusive lower bound and exclusive upper bound of
// class i. The catch-all bucket reports an upper bound of 0.
func (t *sizeClassTable) classRange(i int) (lo, hi int) {
	switch {
	case i == 0:
		lo = t.config.SmallMin
	case i <= t.numClasses:
		lo = t.boundaries[i-1] + 1
	}
	if i < t.numClasses {
		hi = t.boundaries[i] + 1
	}
	return lo, hi
}

// String returns a human-readable description of the size class table.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes (excluding the catch-all).
func (t *sizeClassTable) NumClasses() int {
	return t.numClasses
}

// NumBuckets returns the total bucket count, catch-all included.
func (t *sizeClassTable) NumBuckets() int {
	return t.numClasses + 1
}
