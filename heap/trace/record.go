package trace

import (
	"io"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/workload"
)

var _ workload.Allocator = (*Recorder)(nil)

// Recorder forwards every call to an allocator and records it. Recording
// errors do not interrupt the calls; the first one is returned by Close.
type Recorder struct {
	a   workload.Allocator
	w   *Writer
	err error
}

// Record starts a trace on w that records every call made through the
// returned Recorder to a.
func Record(w io.Writer, a workload.Allocator) (*Recorder, error) {
	tw, err := NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &Recorder{a: a, w: tw}, nil
}

func (r *Recorder) emit(ev Event) {
	if r.err != nil {
		return
	}
	r.err = r.w.Write(ev)
}

func (r *Recorder) Malloc(size int) alloc.Ptr {
	p := r.a.Malloc(size)
	r.emit(Event{Op: OpMalloc, Failed: p == alloc.Nil, Size: uint64(size), Out: p})
	return p
}

func (r *Recorder) Free(p alloc.Ptr) {
	r.a.Free(p)
	r.emit(Event{Op: OpFree, In: p})
}

func (r *Recorder) Realloc(p alloc.Ptr, size int) alloc.Ptr {
	np := r.a.Realloc(p, size)
	r.emit(Event{Op: OpRealloc, Failed: np == alloc.Nil && size != 0, In: p, Size: uint64(size), Out: np})
	return np
}

func (r *Recorder) Bytes(p alloc.Ptr, n int) []byte {
	return r.a.Bytes(p, n)
}

// Count returns the number of recorded events.
func (r *Recorder) Count() int { return r.w.Count() }

// Close ends the trace and returns the first recording error.
func (r *Recorder) Close() error {
	err := r.w.Close()
	if r.err != nil {
		return r.err
	}
	return err
}
