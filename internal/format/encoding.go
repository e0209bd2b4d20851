package format

import "encoding/binary"

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+WordSize])
}

// Pack combines a block size and allocation flag into a boundary tag.
func Pack(size int, allocated bool) uint64 {
	w := uint64(size)
	if allocated {
		w |= allocatedBit
	}
	return w
}

// UnpackSize extracts the block size from a boundary tag.
func UnpackSize(w uint64) int {
	return int(w & sizeMask)
}

// UnpackAllocated extracts the allocation flag from a boundary tag.
func UnpackAllocated(w uint64) bool {
	return w&allocatedBit != 0
}
