package harness

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits for the report columns.
var printer = message.NewPrinter(language.English)

// FormatBytes renders n with digit grouping, e.g. "1,048,576 B".
func FormatBytes(n uint64) string {
	return printer.Sprintf("%d B", n)
}

// FormatNanos renders d in nanoseconds with digit grouping.
func FormatNanos(d time.Duration) string {
	return printer.Sprintf("%d ns", d.Nanoseconds())
}

// Line renders a result the way the text report prints it.
func (r Result) Line() string {
	if !r.OK() {
		return fmt.Sprintf("%-24s %v", r.Workload, r.Err)
	}
	return fmt.Sprintf("%-24s %16s %16s", r.Workload, FormatBytes(r.Peak), FormatNanos(r.Best))
}

// Lines renders the score as report lines, each with its pass state.
func (s Score) Lines() []ScoreLine {
	if !s.Functional() {
		return []ScoreLine{{
			Text: fmt.Sprintf("functional allocator (incorrect results on %d workloads)", s.Failed),
		}}
	}
	lines := []ScoreLine{{Text: "functional allocator", OK: true}}
	for step := 1; step <= lastScoredStep; step++ {
		lines = append(lines, ScoreLine{
			Text: fmt.Sprintf("step %d: %s", step, StepNames[step]),
			OK:   s.Earned[step],
		})
	}
	if s.ExtraCredit {
		lines = append(lines, ScoreLine{
			Text: fmt.Sprintf("steps 7 and 8: %s and %s", StepNames[7], StepNames[8]),
			OK:   s.Earned[7],
		})
		if s.Earned[7] {
			lines = append(lines, ScoreLine{
				Text: fmt.Sprintf("step 9: %s", StepNames[9]),
				OK:   s.Earned[9],
			})
		}
	}
	return append(lines, ScoreLine{Text: fmt.Sprintf("SCORE: %d / 100", s.Points), OK: true})
}

// ScoreLine is one line of the score report.
type ScoreLine struct {
	Text string
	OK   bool
}
