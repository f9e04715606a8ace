package trace

import "errors"

var (
	// ErrBadMagic indicates a stream that does not start with a trace header.
	ErrBadMagic = errors.New("trace: bad magic")

	// ErrBadVersion indicates a trace written by an unsupported version.
	ErrBadVersion = errors.New("trace: unsupported version")

	// ErrTruncated indicates a stream that ends inside a header or record.
	ErrTruncated = errors.New("trace: truncated")

	// ErrBadOp indicates a record with an unknown operation.
	ErrBadOp = errors.New("trace: bad op")

	// ErrDiverged indicates a replay whose results differ from the recording.
	ErrDiverged = errors.New("trace: replay diverged")
)
