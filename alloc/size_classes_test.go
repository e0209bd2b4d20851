package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_SeventeenBuckets(t *testing.T) {
	table := newSizeClassTable(DefaultConfig)
	require.Equal(t, 16, table.NumClasses())
	require.Equal(t, 17, table.NumBuckets())
	assert.Equal(t, "Default", table.String())
}

func TestDefaultConfig_BucketIndex(t *testing.T) {
	table := newSizeClassTable(DefaultConfig)

	cases := []struct {
		size int
		want int
	}{
		{32, 2},
		{47, 2},
		{48, 3},
		{112, 7},
		{127, 7},
		{128, 8},
		{255, 8},
		{256, 9},
		{4095, 12},
		{4096, 13},
		{16383, 14},
		{16384, 15},
		{32767, 15},
		{32768, 16},
		{1 << 30, 16},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, table.getSizeClass(c.size), "size %d", c.size)
	}
}

func TestSizeClassTable_Monotonic(t *testing.T) {
	for _, cfg := range []SizeClassConfig{ConfigDefault, ConfigFineGrained, ConfigCoarse} {
		t.Run(cfg.Name, func(t *testing.T) {
			require.NoError(t, cfg.Validate())
			table := newSizeClassTable(cfg)

			prev := 0
			for size := 32; size <= 2*cfg.MediumMax; size += 16 {
				got := table.getSizeClass(size)
				require.GreaterOrEqual(t, got, prev, "size %d", size)
				require.LessOrEqual(t, got, table.NumClasses())
				prev = got
			}

			for i := 1; i < len(table.boundaries); i++ {
				require.Greater(t, table.boundaries[i], table.boundaries[i-1])
				require.Zero(t, (table.boundaries[i]+1)%16, "boundary %d not aligned", i)
			}
		})
	}
}

func TestSizeClassTable_ClassRange(t *testing.T) {
	table := newSizeClassTable(DefaultConfig)

	lo, hi := table.classRange(0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 16, hi)

	lo, hi = table.classRange(8)
	assert.Equal(t, 128, lo)
	assert.Equal(t, 256, hi)

	lo, hi = table.classRange(16)
	assert.Equal(t, 32768, lo)
	assert.Equal(t, 0, hi)
}

func TestSizeClassConfig_Validate(t *testing.T) {
	bad := []struct {
		name   string
		mutate func(*SizeClassConfig)
	}{
		{"zero increment", func(c *SizeClassConfig) { c.SmallIncrement = 0 }},
		{"unaligned increment", func(c *SizeClassConfig) { c.SmallIncrement = 24 }},
		{"negative min", func(c *SizeClassConfig) { c.SmallMin = -16 }},
		{"max below min", func(c *SizeClassConfig) { c.SmallMax = 0 }},
		{"ragged small range", func(c *SizeClassConfig) { c.SmallMax = 120 }},
		{"medium below small", func(c *SizeClassConfig) { c.MediumMax = 64 }},
		{"flat growth", func(c *SizeClassConfig) { c.GrowthFactor = 1 }},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrBadConfig)
		})
	}

	require.NoError(t, DefaultConfig.Validate())
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(nil, WithChunkSize(0))
	require.ErrorIs(t, err, ErrBadConfig)

	cfg := DefaultConfig
	cfg.SmallIncrement = 0
	_, err = New(nil, WithSizeClasses(cfg))
	require.ErrorIs(t, err, ErrBadConfig)
}
