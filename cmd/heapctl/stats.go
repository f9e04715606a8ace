package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/arena"
	"github.com/joshuapare/heapkit/heap/harness"
	"github.com/joshuapare/heapkit/heap/workload"
)

var (
	statsBits  int
	statsAlign int
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsBits, "bits", arena.DefaultBits, "Arena size as a power of two")
	cmd.Flags().IntVar(&statsAlign, "align", 1, "Round requests up to this alignment (1, 2, 4 or 8)")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <workload>",
		Short: "Show allocator counters for one workload",
		Long: `The stats command runs a workload once under full validation and
prints the allocator's counters: calls by kind, which resize path each
realloc took, splits, merges, tail retractions, and pages touched.

Example:
  heapctl stats chaos_reuse_2
  heapctl stats realloc_works --bits 29 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args)
		},
	}
	return cmd
}

type statsReport struct {
	Workload string      `json:"workload"`
	OK       bool        `json:"ok"`
	Error    string      `json:"error,omitempty"`
	Peak     uint64      `json:"peak_bytes"`
	Pages    uint64      `json:"pages"`
	Stats    alloc.Stats `json:"stats"`
}

func runStats(ctx context.Context, args []string) error {
	w, ok := workload.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", harness.ErrUnknownWorkload, args[0])
	}

	runner := harness.NewRunner(harness.Config{
		Bits:      statsBits,
		Runs:      1,
		Alignment: statsAlign,
		Checks:    true,
		Pages:     true,
	})
	res, err := runner.Run(ctx, w)
	if err != nil {
		return err
	}

	if jsonOut {
		rep := statsReport{Workload: w.Name, OK: res.OK(), Peak: res.Peak, Pages: res.Pages, Stats: res.Stats}
		if res.Err != nil {
			rep.Error = res.Err.Error()
		}
		return printJSON(rep)
	}

	printInfo("%s %s\n", mark(res.OK()), w.Name)
	if res.Err != nil {
		printInfo("  %v\n", res.Err)
	}
	printInfo("  Peak: %s\n", harness.FormatBytes(res.Peak))
	printInfo("  Pages touched: %d\n\n", res.Pages)

	if !quiet {
		printCounters(res.Stats)
	}
	return nil
}

func printCounters(s alloc.Stats) {
	rows := []struct {
		name string
		v    int
	}{
		{"allocate calls", s.AllocCalls},
		{"allocate failed", s.AllocFailed},
		{"  reused free block", s.AllocReused},
		{"  carved at tail", s.AllocCarved},
		{"release calls", s.ReleaseCalls},
		{"resize calls", s.ResizeCalls},
		{"resize failed", s.ResizeFailed},
		{"  shrunk in place", s.ResizeShrink},
		{"  absorbed next block", s.ResizeAbsorb},
		{"  grew at tail", s.ResizeGrowTail},
		{"  moved", s.ResizeMove},
		{"splits", s.Splits},
		{"forward merges", s.MergeForward},
		{"backward merges", s.MergeBackward},
		{"tail retractions", s.TailRetracts},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Counter", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rows {
		table.Append([]string{r.name, strconv.Itoa(r.v)})
	}
	table.Append([]string{"peak used", harness.FormatBytes(s.PeakUsed)})
	table.Render()
}
