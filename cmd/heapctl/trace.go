package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/arena"
	"github.com/joshuapare/heapkit/heap/harness"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/heap/workload"
	"github.com/joshuapare/heapkit/internal/writer"
)

var (
	traceBits   int
	traceOutput string
	traceStrict bool
)

func init() {
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Record and replay allocation traces",
	}
	traceCmd.PersistentFlags().IntVar(&traceBits, "bits", arena.DefaultBits, "Arena size as a power of two")

	record := newTraceRecordCmd()
	record.Flags().StringVarP(&traceOutput, "output", "o", "", "Trace file to write (required)")
	_ = record.MarkFlagRequired("output")

	replay := newTraceReplayCmd()
	replay.Flags().BoolVar(&traceStrict, "strict", false, "Require the replay to return the recorded pointers")

	traceCmd.AddCommand(record, replay)
	rootCmd.AddCommand(traceCmd)
}

func newTraceRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <workload>",
		Short: "Run a workload and record its allocator calls",
		Long: `The record command runs a workload once and writes every malloc, free
and realloc it makes to a compressed trace file.

Example:
  heapctl trace record chaos_reuse_2 -o chaos.hktr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceRecord(args)
		},
	}
}

func newTraceReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a trace against a fresh heap",
		Long: `The replay command re-executes a recorded trace against a fresh heap
and verifies the heap afterwards. With --strict the replay must reproduce the
recorded pointers exactly.

Example:
  heapctl trace replay chaos.hktr --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceReplay(args)
		},
	}
}

type traceReport struct {
	File    string        `json:"file"`
	Summary trace.Summary `json:"summary"`
	Used    int           `json:"used_bytes"`
	Stats   alloc.Stats   `json:"stats"`
}

func runTraceRecord(args []string) error {
	w, ok := workload.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", harness.ErrUnknownWorkload, args[0])
	}

	h, err := heap.New(traceBits, heap.WithChecks())
	if err != nil {
		return err
	}
	defer h.Close()

	var buf bytes.Buffer
	rec, err := trace.Record(&buf, h)
	if err != nil {
		return err
	}
	runErr := w.Run(rec)
	if err := rec.Close(); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", w.Name, runErr)
	}

	sink := &writer.FileWriter{Path: traceOutput}
	if err := sink.Commit(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write trace file: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]any{"workload": w.Name, "file": traceOutput, "events": rec.Count()})
	}
	printInfo("Recorded %d events from %s to %s (%s)\n",
		rec.Count(), w.Name, traceOutput, harness.FormatBytes(uint64(buf.Len())))
	return nil
}

func runTraceReplay(args []string) error {
	h, err := heap.New(traceBits, heap.WithChecks())
	if err != nil {
		return err
	}
	defer h.Close()

	sum, err := trace.ReplayFile(args[0], h, traceStrict)
	if err != nil {
		return err
	}
	if err := h.Check(); err != nil {
		return errors.Join(errors.New("heap corrupt after replay"), err)
	}

	if jsonOut {
		return printJSON(traceReport{File: args[0], Summary: sum, Used: h.Used(), Stats: h.Stats()})
	}
	printInfo("%s replayed %s\n", mark(true), args[0])
	printInfo("  Events: %d (%d malloc, %d free, %d realloc)\n", sum.Events, sum.Mallocs, sum.Frees, sum.Reallocs)
	printInfo("  Failed: %d  Skipped: %d\n", sum.Failed, sum.Skipped)
	printInfo("  Heap in use: %s\n", harness.FormatBytes(uint64(h.Used())))
	return nil
}
