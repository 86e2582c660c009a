// Package store persists authentication attempts, exam results, attempt
// eligibility and per-user time limits. The logs are append-only text files;
// existing lines are never rewritten or removed.
package store

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

// timestampLayout matches the line format consumed by external reporting.
const timestampLayout = "2006-01-02 15:04:05"

// UnknownUser is logged when an authentication attempt cannot be tied to a
// registered username.
const UnknownUser = "Unknown"

// Outcome is the result of a single authentication attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFail    Outcome = "FAIL"
)

// appendLine writes a single line to an append-only file. The caller is
// responsible for serializing calls per file.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// readLines returns every non-empty line of the file. A missing file is not
// an error; it reads as an empty log.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// tail returns the last n elements of lines (all of them when n <= 0 or
// exceeds the length).
func tail(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.Local)
}

// fileLock guards a single on-disk file so concurrent appends cannot
// interleave partial records.
type fileLock struct {
	mu   sync.Mutex
	path string
}
