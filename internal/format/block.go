package format

import "fmt"

// Block header layout (little-endian), stored in the arena immediately
// before the payload it describes:
//
//	Offset  Size  Description
//	0x00    4     Payload size in bytes, excluding this header.
//	0x04    4     Tag: BlockMagic<<8 | state (0 = free, 1 = allocated).
//	0x08    4     Free-index successor (header offset) or NoLink.
//	0x0C    4     Free-index predecessor (header offset) or NoLink.
//	0x10    4     Chain predecessor (header offset) or NoLink.
//	0x14    4     Chain successor (header offset) or NoLink.
//	0x18    ...   Payload.
const (
	BlockSizeOffset     = 0x00
	BlockTagOffset      = 0x04
	BlockNextFreeOffset = 0x08
	BlockPrevFreeOffset = 0x0C
	BlockPrevOffset     = 0x10
	BlockNextOffset     = 0x14

	// BlockHeaderSize is the fixed header size. It is a multiple of 8 so that
	// 8-aligned requests keep every payload 8-aligned relative to the base.
	BlockHeaderSize = 0x18

	// BlockMagic occupies the upper 24 bits of the tag word.
	BlockMagic = 0x6B6862 // "bhk"

	// NoLink marks an absent chain or free-index neighbour.
	NoLink = ^uint32(0)
)

// Block states stored in the low byte of the tag.
const (
	StateFree      = 0
	StateAllocated = 1
)

// Header is a decoded block header. Off is the header's own offset.
type Header struct {
	Off      uint32
	Size     uint32
	State    uint8
	Magic    uint32
	NextFree uint32
	PrevFree uint32
	Prev     uint32
	Next     uint32
}

// End returns the offset one past the block's payload.
func (h Header) End() uint32 {
	return h.Off + BlockHeaderSize + h.Size
}

// Tag encodes a tag word for the given state.
func Tag(state uint8) uint32 {
	return BlockMagic<<8 | uint32(state)
}

// DecodeHeader reads the header at off. It fails when the header does not fit
// inside b; it does not validate the magic (see CheckTag).
func DecodeHeader(b []byte, off uint32) (Header, error) {
	if int64(off)+BlockHeaderSize > int64(len(b)) {
		return Header{}, fmt.Errorf("block header at %d: %w", off, ErrTruncated)
	}
	o := int(off)
	tag := ReadU32(b, o+BlockTagOffset)
	return Header{
		Off:      off,
		Size:     ReadU32(b, o+BlockSizeOffset),
		State:    uint8(tag),
		Magic:    tag >> 8,
		NextFree: ReadU32(b, o+BlockNextFreeOffset),
		PrevFree: ReadU32(b, o+BlockPrevFreeOffset),
		Prev:     ReadU32(b, o+BlockPrevOffset),
		Next:     ReadU32(b, o+BlockNextOffset),
	}, nil
}

// EncodeHeader writes h at h.Off. The magic is always BlockMagic.
func EncodeHeader(b []byte, h Header) {
	o := int(h.Off)
	PutU32(b, o+BlockSizeOffset, h.Size)
	PutU32(b, o+BlockTagOffset, Tag(h.State))
	PutU32(b, o+BlockNextFreeOffset, h.NextFree)
	PutU32(b, o+BlockPrevFreeOffset, h.PrevFree)
	PutU32(b, o+BlockPrevOffset, h.Prev)
	PutU32(b, o+BlockNextOffset, h.Next)
}

// CheckTag reports an error when h was not written by EncodeHeader.
func CheckTag(h Header) error {
	if h.Magic != BlockMagic || h.State > StateAllocated {
		return fmt.Errorf("block header at %d: %w", h.Off, ErrBadTag)
	}
	return nil
}
