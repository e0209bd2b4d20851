// Package trace reads, writes, generates and replays allocation traces.
//
// # Format
//
// A trace is a text file with a four-line header followed by one operation
// per line:
//
//	<suggested heap size>
//	<number of ids>
//	<number of ops>
//	<weight>
//	a <id> <bytes>    allocate
//	r <id> <bytes>    resize
//	f <id>            free
//
// Blank lines and lines starting with '#' are ignored. Ids are in
// [0, number of ids) and the op count must match the header.
//
// # Replay
//
// Replay drives an allocator through a trace and checks each result the way
// a malloc test driver does: payloads are 16-byte aligned, lie inside the
// heap, never overlap another live payload, and keep their contents across
// resizes. It reports peak utilization (peak live payload bytes over the
// final heap size) and throughput.
//
//	tr, err := trace.ParseFile("short1.rep")
//	if err != nil {
//	    return err
//	}
//	a, _ := alloc.New(heap.NewMem(0))
//	res, err := trace.Replay(ctx, a, tr, trace.Options{CheckData: true})
package trace
