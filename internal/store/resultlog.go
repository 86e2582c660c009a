package store

import (
	"fmt"
	"strings"
	"time"
)

// ResultRecord is one completed exam, appended exactly once per submission.
type ResultRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
}

// ResultLog is an append-only log of exam results, one line per completed
// session: "<timestamp> - <username> - Score: <score>/<total>".
type ResultLog struct {
	fileLock
}

// NewResultLog creates a result log backed by the given file path.
func NewResultLog(path string) *ResultLog {
	return &ResultLog{fileLock{path: path}}
}

// Append records a completed exam.
func (l *ResultLog) Append(at time.Time, username string, score, total int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s - %s - Score: %d/%d", formatTimestamp(at), username, score, total)
	return appendLine(l.path, line)
}

// ReadRecent returns the last n results in chronological order.
func (l *ResultLog) ReadRecent(n int) ([]ResultRecord, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(records) {
		records = records[len(records)-n:]
	}
	return records, nil
}

// CountForUser returns how many results have been recorded for a username.
// Used together with the reset ledger to decide attempt eligibility.
func (l *ResultLog) CountForUser(username string) (int, error) {
	records, err := l.readAll()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range records {
		if r.Username == username {
			count++
		}
	}
	return count, nil
}

func (l *ResultLog) readAll() ([]ResultRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := readLines(l.path)
	if err != nil {
		return nil, err
	}

	var records []ResultRecord
	for _, line := range lines {
		record, ok := parseResultLine(line)
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func parseResultLine(line string) (ResultRecord, bool) {
	parts := strings.SplitN(line, " - ", 3)
	if len(parts) != 3 {
		return ResultRecord{}, false
	}

	ts, err := parseTimestamp(parts[0])
	if err != nil {
		return ResultRecord{}, false
	}

	var score, total int
	if _, err := fmt.Sscanf(parts[2], "Score: %d/%d", &score, &total); err != nil {
		return ResultRecord{}, false
	}

	return ResultRecord{Timestamp: ts, Username: parts[1], Score: score, Total: total}, true
}
