package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Reader decodes events from a compressed trace stream.
type Reader struct {
	dec *zstd.Decoder
	rec [recordSize]byte
	n   int
}

// NewReader reads and checks the trace header from r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("trace: create decompressor: %w", err)
	}

	var hdr [headerSize]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		dec.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header", ErrTruncated)
		}
		return nil, fmt.Errorf("trace: read header: %w", err)
	}
	if err := checkHeader(hdr[:]); err != nil {
		dec.Close()
		return nil, err
	}
	return &Reader{dec: dec}, nil
}

// Next returns the next event, or io.EOF after the last one.
func (r *Reader) Next() (Event, error) {
	_, err := io.ReadFull(r.dec, r.rec[:])
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Event{}, fmt.Errorf("%w: record %d", ErrTruncated, r.n)
	case err != nil:
		return Event{}, err
	}
	ev, err := decodeEvent(r.rec[:])
	if err != nil {
		return ev, fmt.Errorf("record %d: %w", r.n, err)
	}
	r.n++
	return ev, nil
}

// Close releases the decompressor.
func (r *Reader) Close() {
	r.dec.Close()
}

// ReadAll decodes every event of a trace stream.
func ReadAll(r io.Reader) ([]Event, error) {
	tr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	var out []Event
	for {
		ev, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
