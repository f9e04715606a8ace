package harness

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/heapkit/heap/workload"
)

//go:embed default_suite.toml
var defaultSuiteTOML string

// MaxStep is the highest step a check may name.
const MaxStep = 9

// Kind selects what a check measures.
type Kind string

const (
	KindMemory    Kind = "memory"     // peak bytes must not exceed the limit
	KindMinMemory Kind = "min-memory" // peak bytes must exceed the limit
	KindTime      Kind = "time"       // best nanoseconds must not exceed the limit
)

// Check ties a workload limit to a step.
type Check struct {
	Workload string `toml:"workload"`
	Kind     Kind   `toml:"kind"`
	Limit    int64  `toml:"limit"`
	Step     int    `toml:"step"`
}

// Suite is a scoring table. Workloads lists what to run, in order; when empty
// every registered workload runs.
type Suite struct {
	Name      string   `toml:"name"`
	Workloads []string `toml:"workloads,omitempty"`
	Checks    []Check  `toml:"check"`
}

// DefaultSuite returns the embedded default suite.
func DefaultSuite() (*Suite, error) {
	return ParseSuite(defaultSuiteTOML)
}

// ParseSuite decodes and validates a suite table.
func ParseSuite(data string) (*Suite, error) {
	var s Suite
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSuite, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrBadSuite, strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSuite reads a suite table from a file.
func LoadSuite(path string) (*Suite, error) {
	var s Suite
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadSuite, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s: unknown key %s", ErrBadSuite, path, undecoded[0])
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every check's kind, step and workload name.
func (s *Suite) Validate() error {
	for i, c := range s.Checks {
		switch c.Kind {
		case KindMemory, KindMinMemory, KindTime:
		default:
			return fmt.Errorf("%w: check %d: unknown kind %q", ErrBadSuite, i, c.Kind)
		}
		if c.Step < 1 || c.Step > MaxStep {
			return fmt.Errorf("%w: check %d: step %d not in [1, %d]", ErrBadSuite, i, c.Step, MaxStep)
		}
		if c.Limit < 0 {
			return fmt.Errorf("%w: check %d: negative limit", ErrBadSuite, i)
		}
		if _, ok := workload.Lookup(c.Workload); !ok {
			return fmt.Errorf("%w: check %d: %q", ErrUnknownWorkload, i, c.Workload)
		}
	}
	for _, name := range s.Workloads {
		if _, ok := workload.Lookup(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
		}
	}
	return nil
}

// Selected returns the workloads the suite runs.
func (s *Suite) Selected() []workload.Workload {
	if len(s.Workloads) == 0 {
		return workload.All()
	}
	ws := make([]workload.Workload, 0, len(s.Workloads))
	for _, name := range s.Workloads {
		w, _ := workload.Lookup(name)
		ws = append(ws, w)
	}
	return ws
}

// Encode writes the suite as TOML.
func (s *Suite) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Lookup resolves workload names, failing on the first unknown one.
func Lookup(names []string) ([]workload.Workload, error) {
	ws := make([]workload.Workload, 0, len(names))
	for _, name := range names {
		w, ok := workload.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
		}
		ws = append(ws, w)
	}
	return ws, nil
}
