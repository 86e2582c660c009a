package store

import (
	"fmt"
	"strings"
	"time"
)

// AuthAttempt is one recorded authentication attempt.
type AuthAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"` // registered username or UnknownUser
	Outcome   Outcome   `json:"outcome"`
}

// AuthLog is an append-only log of authentication attempts, one line per
// attempt: "<timestamp> - <username> - <SUCCESS|FAIL>".
type AuthLog struct {
	fileLock
}

// NewAuthLog creates an auth log backed by the given file path.
func NewAuthLog(path string) *AuthLog {
	return &AuthLog{fileLock{path: path}}
}

// Append records a single attempt. Exactly one line is written per call;
// failures are returned to the caller since audit integrity depends on
// every attempt being durably recorded.
func (l *AuthLog) Append(at time.Time, username string, outcome Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s - %s - %s", formatTimestamp(at), username, outcome)
	return appendLine(l.path, line)
}

// ReadRecent returns the last n attempts in chronological order. Lines that
// do not parse are skipped.
func (l *AuthLog) ReadRecent(n int) ([]AuthAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := readLines(l.path)
	if err != nil {
		return nil, err
	}

	var attempts []AuthAttempt
	for _, line := range lines {
		attempt, ok := parseAuthLine(line)
		if ok {
			attempts = append(attempts, attempt)
		}
	}

	if n > 0 && n < len(attempts) {
		attempts = attempts[len(attempts)-n:]
	}
	return attempts, nil
}

func parseAuthLine(line string) (AuthAttempt, bool) {
	parts := strings.SplitN(line, " - ", 3)
	if len(parts) != 3 {
		return AuthAttempt{}, false
	}

	ts, err := parseTimestamp(parts[0])
	if err != nil {
		return AuthAttempt{}, false
	}

	outcome := Outcome(parts[2])
	if outcome != OutcomeSuccess && outcome != OutcomeFail {
		return AuthAttempt{}, false
	}

	return AuthAttempt{Timestamp: ts, Username: parts[1], Outcome: outcome}, true
}
