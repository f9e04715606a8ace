package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Writer appends events to a compressed trace stream.
type Writer struct {
	enc *zstd.Encoder
	bw  *bufio.Writer
	rec [recordSize]byte
	n   int
}

// NewWriter writes a trace header to w and returns a Writer for the events.
// Close must be called to flush the stream; it does not close w.
func NewWriter(w io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("trace: create compressor: %w", err)
	}
	tw := &Writer{enc: enc, bw: bufio.NewWriter(enc)}

	var hdr [headerSize]byte
	encodeHeader(hdr[:])
	if _, err := tw.bw.Write(hdr[:]); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("trace: write header: %w", err)
	}
	return tw, nil
}

// Write appends one event.
func (w *Writer) Write(ev Event) error {
	ev.encode(w.rec[:])
	if _, err := w.bw.Write(w.rec[:]); err != nil {
		return fmt.Errorf("trace: write event %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Count returns the number of events written.
func (w *Writer) Count() int { return w.n }

// Close flushes buffered events and ends the compressed stream.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		_ = w.enc.Close()
		return fmt.Errorf("trace: flush: %w", err)
	}
	return w.enc.Close()
}
