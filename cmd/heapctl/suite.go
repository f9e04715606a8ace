package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/writer"
)

var (
	suiteFile   string
	suiteOutput string
)

func init() {
	cmd := newSuiteCmd()
	cmd.Flags().StringVar(&suiteFile, "suite", "", "Suite table to validate and print instead of the built-in one")
	cmd.Flags().StringVarP(&suiteOutput, "output", "o", "", "Write the table to a file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newSuiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suite",
		Short: "Print the scoring suite as TOML",
		Long: `The suite command prints the scoring table used by run. Write it to
a file to start a custom suite.

Example:
  heapctl suite -o quick.toml
  heapctl run --suite quick.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite()
		},
	}
}

func runSuite() error {
	s, err := loadSuite(suiteFile)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(s)
	}
	if suiteOutput == "" {
		return s.Encode(os.Stdout)
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	sink := &writer.FileWriter{Path: suiteOutput}
	if err := sink.Commit(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write suite: %w", err)
	}
	printInfo("Wrote suite %q (%d checks) to %s\n", s.Name, len(s.Checks), suiteOutput)
	return nil
}
