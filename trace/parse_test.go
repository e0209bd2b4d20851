package trace

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_Short(t *testing.T) {
	tr, err := ParseFile(filepath.Join("testdata", "short.rep"))
	require.NoError(t, err)

	assert.Equal(t, "short.rep", tr.Name)
	assert.Equal(t, 20000, tr.SuggestedHeapSize)
	assert.Equal(t, 6, tr.NumIDs)
	assert.Equal(t, 1, tr.Weight)
	require.Len(t, tr.Ops, 12)
	assert.Equal(t, Op{Kind: OpAlloc, ID: 0, Size: 2040}, tr.Ops[0])
	assert.Equal(t, Op{Kind: OpFree, ID: 1}, tr.Ops[2])

	allocs, reallocs, frees := tr.Counts()
	assert.Equal(t, 6, allocs)
	assert.Equal(t, 0, reallocs)
	assert.Equal(t, 6, frees)
}

func TestParseFile_Realloc(t *testing.T) {
	tr, err := ParseFile(filepath.Join("testdata", "realloc.rep"))
	require.NoError(t, err)

	_, reallocs, _ := tr.Counts()
	assert.Equal(t, 6, reallocs)
	assert.Equal(t, Op{Kind: OpRealloc, ID: 1, Size: 0}, tr.Ops[7])
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "double_free.rep"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = ParseFile(filepath.Join("testdata", "truncated.rep"))
	require.ErrorIs(t, err, ErrSyntax)

	_, err = ParseFile(filepath.Join("testdata", "missing.rep"))
	require.Error(t, err)
}

func TestParse_Syntax(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad header", "100\nx\n1\n1\na 0 8\n"},
		{"unknown op", "100\n1\n1\n1\nm 0 8\n"},
		{"long op", "100\n1\n1\n1\nalloc 0 8\n"},
		{"free with size", "100\n1\n2\n1\na 0 8\nf 0 8\n"},
		{"alloc without size", "100\n1\n1\n1\na 0\n"},
		{"bad id", "100\n1\n1\n1\na zero 8\n"},
		{"bad size", "100\n1\n1\n1\na 0 big\n"},
		{"count mismatch", "100\n1\n3\n1\na 0 8\nf 0\n"},
		{"negative count", "100\n1\n-1\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"id out of range", "100\n1\n1\n1\na 1 8\n"},
		{"realloc dead id", "100\n1\n1\n1\nr 0 8\n"},
		{"double alloc", "100\n1\n2\n1\na 0 8\na 0 8\n"},
		{"free dead id", "100\n2\n2\n1\na 0 8\nf 1\n"},
		{"negative size", "100\n1\n1\n1\na 0 -8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_CommentsAndBlankLines(t *testing.T) {
	input := "# header\n\n64\n  1\n2\n1\n\n# ops\na 0 8\n  f 0  \n"
	tr, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tr.Ops, 2)
	assert.Equal(t, OpFree, tr.Ops[1].Kind)
}

func TestWriteTo_RoundTrip(t *testing.T) {
	tr, err := ParseFile(filepath.Join("testdata", "realloc.rep"))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := tr.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(out.Len()), n)
	assert.True(t, strings.HasPrefix(out.String(), "# realloc.rep\n40000\n2\n10\n1\n"))

	back, err := Parse(&out)
	require.NoError(t, err)
	assert.Equal(t, tr.Ops, back.Ops)
	assert.Equal(t, tr.NumIDs, back.NumIDs)
	assert.Equal(t, tr.SuggestedHeapSize, back.SuggestedHeapSize)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "a 3 100", Op{Kind: OpAlloc, ID: 3, Size: 100}.String())
	assert.Equal(t, "r 1 0", Op{Kind: OpRealloc, ID: 1}.String())
	assert.Equal(t, "f 7", Op{Kind: OpFree, ID: 7, Size: 9}.String())
	assert.Equal(t, "realloc", OpRealloc.String())
	assert.Contains(t, OpKind('x').String(), "OpKind")
}
