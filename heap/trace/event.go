package trace

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

const (
	magic   = "HKTR"
	version = 1

	headerSize = 8
	recordSize = 24
)

// Record field offsets.
const (
	recOp     = 0x00
	recFailed = 0x01
	recIn     = 0x04
	recSize   = 0x08
	recOut    = 0x10
)

// Op is a recorded allocator call.
type Op uint8

const (
	OpMalloc Op = iota + 1
	OpFree
	OpRealloc
)

func (o Op) String() string {
	switch o {
	case OpMalloc:
		return "malloc"
	case OpFree:
		return "free"
	case OpRealloc:
		return "realloc"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Event is one recorded call. In is the argument pointer of free and
// realloc; Out is the returned pointer of malloc and realloc.
type Event struct {
	Op     Op
	Failed bool
	In     alloc.Ptr
	Size   uint64
	Out    alloc.Ptr
}

func encodeHeader(b []byte) {
	copy(b, magic)
	format.PutU16(b, 4, version)
	format.PutU16(b, 6, 0)
}

func checkHeader(b []byte) error {
	if string(b[:4]) != magic {
		return fmt.Errorf("%w: %q", ErrBadMagic, b[:4])
	}
	if v := format.ReadU16(b, 4); v != version {
		return fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	return nil
}

func (ev Event) encode(b []byte) {
	clear(b[:recordSize])
	b[recOp] = byte(ev.Op)
	if ev.Failed {
		b[recFailed] = 1
	}
	format.PutU32(b, recIn, uint32(ev.In))
	format.PutU64(b, recSize, ev.Size)
	format.PutU32(b, recOut, uint32(ev.Out))
}

func decodeEvent(b []byte) (Event, error) {
	ev := Event{
		Op:     Op(b[recOp]),
		Failed: b[recFailed] != 0,
		In:     alloc.Ptr(format.ReadU32(b, recIn)),
		Size:   format.ReadU64(b, recSize),
		Out:    alloc.Ptr(format.ReadU32(b, recOut)),
	}
	switch ev.Op {
	case OpMalloc, OpFree, OpRealloc:
		return ev, nil
	}
	return ev, fmt.Errorf("%w: %d", ErrBadOp, b[recOp])
}
