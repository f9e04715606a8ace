package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/workload"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

// Summary counts what a replay did.
type Summary struct {
	Events   int
	Mallocs  int
	Frees    int
	Reallocs int
	Failed   int // Calls that failed on replay
	Skipped  int // Calls on pointers whose recorded allocation did not replay
}

// Replay re-executes the trace in r against a.
//
// Recorded pointers are translated to the pointers a returned for the same
// calls. When a call succeeds in the recording but fails on replay, later
// calls on its pointer are skipped. In strict mode every replayed call must
// return the recorded pointer and fail exactly when the recording failed;
// the first difference stops the replay with ErrDiverged.
func Replay(r io.Reader, a workload.Allocator, strict bool) (Summary, error) {
	tr, err := NewReader(r)
	if err != nil {
		return Summary{}, err
	}
	defer tr.Close()

	rp := replayer{a: a, strict: strict, ptrs: make(map[alloc.Ptr]alloc.Ptr)}
	for {
		ev, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rp.sum, err
		}
		if err := rp.apply(ev); err != nil {
			return rp.sum, fmt.Errorf("event %d: %w", rp.sum.Events, err)
		}
		rp.sum.Events++
	}

	logger.Debug("trace: replay done",
		"events", rp.sum.Events, "failed", rp.sum.Failed, "skipped", rp.sum.Skipped, "live", len(rp.ptrs))
	return rp.sum, nil
}

// ReplayFile replays the trace file at path.
func ReplayFile(path string, a workload.Allocator, strict bool) (Summary, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return Summary{}, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer func() { _ = release() }()

	return Replay(bytes.NewReader(data), a, strict)
}

type replayer struct {
	a      workload.Allocator
	strict bool
	ptrs   map[alloc.Ptr]alloc.Ptr // recorded -> replayed
	sum    Summary
}

func (rp *replayer) apply(ev Event) error {
	switch ev.Op {
	case OpMalloc:
		rp.sum.Mallocs++
		p := rp.a.Malloc(int(ev.Size))
		if err := rp.compare(ev, p); err != nil {
			return err
		}
		rp.bind(ev, p)

	case OpFree:
		rp.sum.Frees++
		p, ok := rp.translate(ev.In)
		if !ok {
			rp.sum.Skipped++
			return nil
		}
		rp.a.Free(p)
		delete(rp.ptrs, ev.In)

	case OpRealloc:
		rp.sum.Reallocs++
		p, ok := rp.translate(ev.In)
		if !ok {
			rp.sum.Skipped++
			return nil
		}
		np := rp.a.Realloc(p, int(ev.Size))
		if err := rp.compare(ev, np); err != nil {
			return err
		}
		if np != alloc.Nil || ev.Size == 0 {
			delete(rp.ptrs, ev.In)
		}
		rp.bind(ev, np)
	}
	return nil
}

// compare checks a replayed result against the recording in strict mode.
func (rp *replayer) compare(ev Event, got alloc.Ptr) error {
	failed := got == alloc.Nil && (ev.Op == OpMalloc || ev.Size != 0)
	if failed {
		rp.sum.Failed++
	}
	if !rp.strict {
		return nil
	}
	if failed != ev.Failed || got != ev.Out {
		return fmt.Errorf("%w: %s(%d) returned %#x, recorded %#x", ErrDiverged, ev.Op, ev.Size, got, ev.Out)
	}
	return nil
}

func (rp *replayer) bind(ev Event, got alloc.Ptr) {
	if ev.Failed || ev.Out == alloc.Nil || got == alloc.Nil {
		return
	}
	rp.ptrs[ev.Out] = got
}

func (rp *replayer) translate(p alloc.Ptr) (alloc.Ptr, bool) {
	if p == alloc.Nil {
		return alloc.Nil, true
	}
	np, ok := rp.ptrs[p]
	return np, ok
}
