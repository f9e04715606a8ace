package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
	logDir  string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Run and score allocation workloads against the heapkit allocator",
	Long: `heapctl drives the heapkit first-fit allocator with a fixed set of
allocation workloads. It validates every block the allocator hands out,
measures peak memory and time, scores the results against a suite table,
and records or replays allocation traces.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return initLogging()
	},
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		StringVar(&logDir, "log-dir", "", "Write debug logs to a dated file in this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging enables the library logger for --verbose or --log-dir.
func initLogging() error {
	if !verbose && logDir == "" {
		return logger.Init(logger.Options{})
	}
	return logger.Init(logger.Options{
		Enabled: true,
		Level:   slog.LevelDebug,
		LogDir:  logDir,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgHiRed).SprintFunc()
)

// mark renders a pass/fail tick.
func mark(ok bool) string {
	if ok {
		return passMark("✓")
	}
	return failMark("✗")
}
