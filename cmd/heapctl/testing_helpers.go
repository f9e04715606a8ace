package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs do not fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// resetFlags restores every global flag to its default.
func resetFlags() {
	verbose, quiet, jsonOut, noColor = false, false, false, true
	logDir = ""
	runBits, runRuns, runParallel, runAlign = 22, 1, 1, 1
	runChecks, runNoPoison = false, false
	runSuitePath = ""
	statsBits, statsAlign = 22, 1
	suiteFile, suiteOutput = "", ""
	traceBits, traceOutput, traceStrict = 22, "", false
}

// assertJSON checks that output is valid JSON and decodes it into v
func assertJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
