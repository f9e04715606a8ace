package harness

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/arena"
	"github.com/joshuapare/heapkit/heap/workload"
	"github.com/joshuapare/heapkit/internal/logger"
)

const (
	// DefaultRuns is the number of repetitions per workload.
	DefaultRuns = 5

	// poisonStep advances the poison byte between repetitions.
	poisonStep = 97
)

// Config controls how workloads are run.
type Config struct {
	Bits      int  // Arena size exponent (default arena.DefaultBits)
	Runs      int  // Repetitions per workload (default DefaultRuns)
	Parallel  int  // Workloads run concurrently by RunAll (default 1)
	Alignment int  // Engine request alignment (0 or 1 = none)
	Checks    bool // Engine pointer validation
	NoPoison  bool // Skip poisoning the region between repetitions
	Pages     bool // Track pages touched during the checked repetition
}

func (c Config) withDefaults() Config {
	if c.Bits == 0 {
		c.Bits = arena.DefaultBits
	}
	if c.Runs <= 0 {
		c.Runs = DefaultRuns
	}
	if c.Parallel <= 0 {
		c.Parallel = 1
	}
	return c
}

// Result is the outcome of running one workload.
type Result struct {
	Workload string
	Err      error         // First failure; nil when every repetition passed
	Peak     uint64        // Highest payload end address of the checked repetition
	Best     time.Duration // Fastest repetition
	Runs     int           // Repetitions completed without error
	Stats    alloc.Stats   // Engine counters of the checked repetition
	Pages    uint64        // Pages touched in the checked repetition (Config.Pages)
}

// OK reports whether the workload passed.
func (r Result) OK() bool { return r.Err == nil }

// Runner runs workloads with a fixed configuration.
type Runner struct {
	cfg Config
}

// NewRunner creates a runner; zero Config fields take their defaults.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Run runs w on a fresh heap. Workload failures are reported in the Result;
// the error is non-nil only when the heap cannot be created or ctx ends.
func (r *Runner) Run(ctx context.Context, w workload.Workload) (Result, error) {
	res := Result{Workload: w.Name}

	h, err := heap.New(r.cfg.Bits, r.heapOptions()...)
	if err != nil {
		return res, fmt.Errorf("harness: %s: %w", w.Name, err)
	}
	defer h.Close()

	best := time.Duration(-1)
	for i := range r.cfg.Runs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		h.Reset(!r.cfg.NoPoison, byte(poisonStep*(i+1)))

		var (
			runErr error
			took   time.Duration
		)
		if i == 0 {
			c := newCheckingAllocator(h.Engine)
			took, runErr = timed(w, c)
			if c.err != nil {
				runErr = c.err
			}
			res.Peak = c.peak
			res.Stats = h.Stats()
			if t := h.Tracker(); t != nil {
				res.Pages = t.PageCount()
			}
		} else {
			f := &fastAllocator{e: h.Engine}
			took, runErr = timed(w, f)
		}

		if runErr != nil {
			res.Err = runErr
			logger.Debug("harness: run failed", "workload", w.Name, "run", i, "error", runErr)
			break
		}
		res.Runs++
		if best < 0 || took < best {
			best = took
		}
	}
	if best >= 0 {
		res.Best = best
	}

	logger.Info("harness: workload done",
		"workload", w.Name, "ok", res.OK(), "peak", res.Peak, "best", res.Best, "runs", res.Runs)
	return res, nil
}

// RunAll runs every workload, up to Config.Parallel at a time, and returns
// the results in input order.
func (r *Runner) RunAll(ctx context.Context, ws []workload.Workload) ([]Result, error) {
	results := make([]Result, len(ws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallel)
	for i, w := range ws {
		g.Go(func() error {
			res, err := r.Run(ctx, w)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) heapOptions() []heap.Option {
	var opts []heap.Option
	if r.cfg.Checks {
		opts = append(opts, heap.WithChecks())
	}
	if r.cfg.Alignment > 1 {
		opts = append(opts, heap.WithAlignment(r.cfg.Alignment))
	}
	if r.cfg.Pages {
		opts = append(opts, heap.WithPageTracking(0))
	}
	return opts
}

// timed runs w once and converts a panic into ErrFault.
func timed(w workload.Workload, a workload.Allocator) (took time.Duration, err error) {
	start := time.Now()
	defer func() {
		took = time.Since(start)
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrFault, p)
		}
	}()
	return 0, w.Run(a)
}
