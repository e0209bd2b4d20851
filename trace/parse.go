package trace

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse reads a trace. The result is validated.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		t       Trace
		header  []int
		numOps  int
		lineNum int
	)
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if len(header) < 4 {
			n, err := strconv.Atoi(line)
			if err != nil {
				return nil, errors.Wrapf(ErrSyntax, "line %d: header field %q", lineNum, line)
			}
			header = append(header, n)
			if len(header) == 4 {
				t.SuggestedHeapSize, t.NumIDs, numOps, t.Weight = header[0], header[1], header[2], header[3]
				if numOps < 0 {
					return nil, errors.Wrapf(ErrSyntax, "line %d: negative op count", lineNum)
				}
				t.Ops = make([]Op, 0, min(numOps, 1<<20))
			}
			continue
		}

		op, err := parseOp(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "trace: read")
	}

	if len(header) < 4 {
		return nil, errors.Wrapf(ErrSyntax, "truncated header: %d of 4 fields", len(header))
	}
	if len(t.Ops) != numOps {
		return nil, errors.Wrapf(ErrSyntax, "header declares %d ops, found %d", numOps, len(t.Ops))
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOp(line string) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, errors.Wrapf(ErrSyntax, "unknown op %q", fields[0])
	}

	op := Op{Kind: OpKind(fields[0][0])}
	want := 3
	switch op.Kind {
	case OpAlloc, OpRealloc:
	case OpFree:
		want = 2
	default:
		return Op{}, errors.Wrapf(ErrSyntax, "unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, errors.Wrapf(ErrSyntax, "%s takes %d fields, got %d", op.Kind, want-1, len(fields)-1)
	}

	var err error
	if op.ID, err = strconv.Atoi(fields[1]); err != nil {
		return Op{}, errors.Wrapf(ErrSyntax, "id %q", fields[1])
	}
	if want == 3 {
		if op.Size, err = strconv.Atoi(fields[2]); err != nil {
			return Op{}, errors.Wrapf(ErrSyntax, "size %q", fields[2])
		}
	}
	return op, nil
}

// ParseFile reads and validates the trace at path. The trace is named after
// the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "trace: open")
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "trace %s", filepath.Base(path))
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// WriteTo writes t in the trace format.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	write := func(s string) {
		m, _ := bw.WriteString(s)
		n += int64(m)
	}

	if t.Name != "" {
		write("# " + t.Name + "\n")
	}
	for _, v := range []int{t.SuggestedHeapSize, t.NumIDs, len(t.Ops), t.Weight} {
		write(strconv.Itoa(v) + "\n")
	}
	for _, op := range t.Ops {
		write(op.String() + "\n")
	}

	if err := bw.Flush(); err != nil {
		return n, errors.Wrap(err, "trace: write")
	}
	return n, nil
}
