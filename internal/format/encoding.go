package format

import "encoding/binary"

// Little-endian field helpers for block headers, trace records and workload
// node layouts. All arena metadata is stored little-endian regardless of the
// host byte order so that a dumped region decodes the same everywhere.

// PutU16 writes v at b[off:off+2].
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU32 writes v at b[off:off+4].
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutI32 writes v at b[off:off+4].
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
}

// PutU64 writes v at b[off:off+8].
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU16 reads the uint16 at b[off:off+2].
func ReadU16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// ReadU32 reads the uint32 at b[off:off+4].
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadI32 reads the int32 at b[off:off+4].
func ReadI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}

// ReadU64 reads the uint64 at b[off:off+8].
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
