package store

import (
	"fmt"
	"strings"
	"time"
)

// Ledger records administrative reset grants as an append-only file, one
// line per grant: "<timestamp> - <username> - RESET". A user is eligible
// for an exam attempt while their result count does not exceed their grant
// count. Replaces in-place edits of the result log, which must stay
// immutable.
type Ledger struct {
	fileLock
}

// NewLedger creates a reset ledger backed by the given file path.
func NewLedger(path string) *Ledger {
	return &Ledger{fileLock{path: path}}
}

// Grant records one additional attempt for the username.
func (l *Ledger) Grant(at time.Time, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s - %s - RESET", formatTimestamp(at), username)
	return appendLine(l.path, line)
}

// Grants returns how many resets have been granted to a username.
func (l *Ledger) Grants(username string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := readLines(l.path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, line := range lines {
		parts := strings.SplitN(line, " - ", 3)
		if len(parts) != 3 || parts[2] != "RESET" {
			continue
		}
		if parts[1] == username {
			count++
		}
	}
	return count, nil
}
