// Package trace records the allocator calls a workload makes and replays
// them against another allocator.
//
// A trace file is a zstd stream holding an 8-byte header followed by
// fixed-size little-endian records:
//
//	header:  "HKTR" | version u16 | reserved u16
//	record:  op u8 | failed u8 | pad u16 | in u32 | size u64 | out u32 | pad u32
//
// Replay translates every recorded pointer to the pointer the replayed
// allocator returned for the same call, so a trace can be replayed against
// an engine with a different layout. Strict replay instead requires the
// replayed allocator to return exactly the recorded pointers.
package trace
