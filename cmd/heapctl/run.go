package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/arena"
	"github.com/joshuapare/heapkit/heap/harness"
	"github.com/joshuapare/heapkit/heap/workload"
)

var (
	runBits      int
	runRuns      int
	runParallel  int
	runAlign     int
	runChecks    bool
	runNoPoison  bool
	runSuitePath string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runBits, "bits", arena.DefaultBits, "Arena size as a power of two")
	cmd.Flags().IntVar(&runRuns, "runs", harness.DefaultRuns, "Repetitions per workload")
	cmd.Flags().IntVar(&runParallel, "parallel", 1, "Workloads to run concurrently")
	cmd.Flags().IntVar(&runAlign, "align", 1, "Round requests up to this alignment (1, 2, 4 or 8)")
	cmd.Flags().BoolVar(&runChecks, "checks", false, "Validate pointers passed to free and realloc")
	cmd.Flags().BoolVar(&runNoPoison, "no-poison", false, "Do not poison the arena between runs")
	cmd.Flags().StringVar(&runSuitePath, "suite", "", "Suite table (TOML); defaults to the built-in suite")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [workload...]",
		Short: "Run workloads and print the score",
		Long: `The run command runs every workload of the suite, or only the named
workloads, validating each allocation on the first repetition and timing the
rest. It prints peak memory, best time and the suite score.

Example:
  heapctl run
  heapctl run linked_list backstep --runs 10
  heapctl run --suite quick.toml --parallel 4 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

// runReport is the JSON form of a run.
type runReport struct {
	Suite   string      `json:"suite"`
	Bits    int         `json:"bits"`
	Results []resultRow `json:"results"`
	Score   int         `json:"score"`
	Steps   []stepRow   `json:"steps"`
}

type resultRow struct {
	Workload string `json:"workload"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Peak     uint64 `json:"peak_bytes"`
	BestNs   int64  `json:"best_ns"`
	Runs     int    `json:"runs"`
}

type stepRow struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

func loadSuite(path string) (*harness.Suite, error) {
	if path == "" {
		return harness.DefaultSuite()
	}
	return harness.LoadSuite(path)
}

func runRun(ctx context.Context, args []string) error {
	suite, err := loadSuite(runSuitePath)
	if err != nil {
		return err
	}

	var ws []workload.Workload
	if len(args) > 0 {
		if ws, err = harness.Lookup(args); err != nil {
			return err
		}
	} else {
		ws = suite.Selected()
	}

	runner := harness.NewRunner(harness.Config{
		Bits:      runBits,
		Runs:      runRuns,
		Parallel:  runParallel,
		Alignment: runAlign,
		Checks:    runChecks,
		NoPoison:  runNoPoison,
	})
	printVerbose("Running %d workloads on a 2^%d byte arena (%d runs each)\n", len(ws), runBits, runRuns)

	results, err := runner.RunAll(ctx, ws)
	if err != nil {
		return err
	}
	score := suite.Score(results)

	if jsonOut {
		return printJSON(newRunReport(suite, results, score))
	}
	if !quiet {
		printResults(results)
		printInfo("\n")
		for _, l := range score.Lines() {
			printInfo("%s %s\n", mark(l.OK), l.Text)
		}
	}
	if !score.Functional() {
		return fmt.Errorf("%d of %d workloads failed", score.Failed, len(results))
	}
	return nil
}

func newRunReport(suite *harness.Suite, results []harness.Result, score harness.Score) runReport {
	rep := runReport{Suite: suite.Name, Bits: runBits, Score: score.Points}
	for _, r := range results {
		row := resultRow{
			Workload: r.Workload,
			OK:       r.OK(),
			Peak:     r.Peak,
			BestNs:   r.Best.Nanoseconds(),
			Runs:     r.Runs,
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		rep.Results = append(rep.Results, row)
	}
	for _, l := range score.Lines() {
		rep.Steps = append(rep.Steps, stepRow{Text: l.Text, OK: l.OK})
	}
	return rep
}

func printResults(results []harness.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"", "Workload", "Peak", "Best", "Runs", "Error"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		table.Append([]string{
			mark(r.OK()),
			r.Workload,
			harness.FormatBytes(r.Peak),
			harness.FormatNanos(r.Best),
			strconv.Itoa(r.Runs),
			errText,
		})
	}
	table.Render()
}
