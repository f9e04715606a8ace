package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/arena"
	"github.com/joshuapare/heapkit/heap/dirty"
)

// Heap is an allocator engine bound to its own region.
type Heap struct {
	*alloc.Engine

	region  *arena.Region
	tracker *dirty.Tracker
}

type config struct {
	engine   []alloc.Option
	track    bool
	pageSize int
	onHeap   bool
}

// Option configures a Heap.
type Option func(*config)

// WithChecks enables pointer validation in Release and Resize.
func WithChecks() Option {
	return func(c *config) { c.engine = append(c.engine, alloc.WithChecks()) }
}

// WithAlignment rounds requests up to a multiple of n (1, 2, 4 or 8).
func WithAlignment(n int) Option {
	return func(c *config) { c.engine = append(c.engine, alloc.WithAlignment(n)) }
}

// WithPageTracking records the pages the engine writes to. A pageSize <= 0
// selects 4KB pages.
func WithPageTracking(pageSize int) Option {
	return func(c *config) {
		c.track = true
		c.pageSize = pageSize
	}
}

// WithHeapMemory backs the region with a Go slice instead of a mapping.
func WithHeapMemory() Option {
	return func(c *config) { c.onHeap = true }
}

// New creates a heap over a fresh 2^bits byte region.
func New(bits int, opts ...Option) (*Heap, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	newRegion := arena.New
	if cfg.onHeap {
		newRegion = arena.NewHeap
	}
	region, err := newRegion(bits)
	if err != nil {
		return nil, err
	}

	h := &Heap{region: region}
	engineOpts := cfg.engine
	if cfg.track {
		h.tracker = dirty.NewTracker(cfg.pageSize)
		engineOpts = append(engineOpts, alloc.WithDirtyTracker(h.tracker))
	}

	h.Engine, err = alloc.New(region.Bytes(), engineOpts...)
	if err != nil {
		_ = region.Close()
		return nil, fmt.Errorf("heap: %w", err)
	}
	return h, nil
}

// Region returns the heap's region.
func (h *Heap) Region() *arena.Region { return h.region }

// Tracker returns the page tracker, or nil without WithPageTracking.
func (h *Heap) Tracker() *dirty.Tracker { return h.tracker }

// Reset forgets every block and clears page tracking. When poison is true the
// region is filled with fill first so stale payloads are not relied upon.
func (h *Heap) Reset(poison bool, fill byte) {
	if poison {
		h.region.Fill(fill)
	}
	h.Engine.Reset()
	if h.tracker != nil {
		h.tracker.Reset()
	}
}

// Close releases the region. The heap must not be used afterwards.
func (h *Heap) Close() error {
	return h.region.Close()
}
