package harness

// StepNames names the steps a suite can score, indexed by step number.
var StepNames = [MaxStep + 1]string{
	"",
	"metadata",
	"shrink efficiently",
	"grow at end of heap",
	"shrink at end of heap",
	"reuse free memory",
	"free list",
	"block merging",
	"block splitting",
	"size-aware free list",
}

const (
	functionalPoints  = 10
	stepPoints        = 15
	lastScoredStep    = 6
	perfectScore      = 100
	extraCreditPoints = 5
)

// Score is the outcome of scoring a set of results against a suite.
type Score struct {
	Failed int // Workloads that did not pass
	Points int

	// Passed reports, per step, whether every check of that step held.
	// Steps without checks pass.
	Passed [MaxStep + 1]bool

	// Earned reports the steps that contributed points.
	Earned [MaxStep + 1]bool

	// ExtraCredit is set once the score reached 100 and steps 7 and 8 were
	// evaluated.
	ExtraCredit bool
}

// Functional reports whether every workload passed.
func (s Score) Functional() bool { return s.Failed == 0 }

// Score evaluates results against the suite's checks.
//
// Every failed workload fails its checks. A functional run earns 10 points
// plus 15 for each passed step 1 through 6; step 6 also needs step 5. A run
// at 100 earns 5 more for steps 7 and 8 together, and then 5 for step 9.
func (s *Suite) Score(results []Result) Score {
	var sc Score
	for i := range sc.Passed {
		sc.Passed[i] = true
	}

	for _, r := range results {
		if !r.OK() {
			sc.Failed++
		}
		for _, c := range s.Checks {
			if c.Workload == r.Workload && !c.holds(r) {
				sc.Passed[c.Step] = false
			}
		}
	}

	if !sc.Functional() {
		return sc
	}
	sc.Points = functionalPoints
	for step := 1; step <= lastScoredStep; step++ {
		if sc.Passed[step] && (step != lastScoredStep || sc.Passed[step-1]) {
			sc.Earned[step] = true
			sc.Points += stepPoints
		}
	}
	if sc.Points == perfectScore {
		sc.ExtraCredit = true
		if sc.Passed[7] && sc.Passed[8] {
			sc.Earned[7], sc.Earned[8] = true, true
			sc.Points += extraCreditPoints
			if sc.Passed[9] {
				sc.Earned[9] = true
				sc.Points += extraCreditPoints
			}
		}
	}
	return sc
}

func (c Check) holds(r Result) bool {
	if !r.OK() {
		return false
	}
	switch c.Kind {
	case KindMinMemory:
		return r.Peak > uint64(c.Limit)
	case KindTime:
		return r.Best.Nanoseconds() <= c.Limit
	default:
		return r.Peak <= uint64(c.Limit)
	}
}
