package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a block header whose tag does not carry the block magic.
	ErrBadTag = errors.New("format: bad block tag")
)
