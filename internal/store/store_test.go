package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func testTime(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(timestampLayout, "2025-06-01 12:00:00", time.Local)
	if err != nil {
		t.Fatalf("failed to parse test timestamp: %v", err)
	}
	return ts
}

func TestAuthLogAppendAndRead(t *testing.T) {
	log := NewAuthLog(filepath.Join(t.TempDir(), "auth_log.txt"))
	at := testTime(t)

	if err := log.Append(at, "alice", OutcomeSuccess); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := log.Append(at.Add(time.Minute), UnknownUser, OutcomeFail); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	attempts, err := log.ReadRecent(0)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Username != "alice" || attempts[0].Outcome != OutcomeSuccess {
		t.Errorf("unexpected first attempt: %+v", attempts[0])
	}
	if attempts[1].Username != UnknownUser || attempts[1].Outcome != OutcomeFail {
		t.Errorf("unexpected second attempt: %+v", attempts[1])
	}
}

func TestAuthLogLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth_log.txt")
	log := NewAuthLog(path)

	if err := log.Append(testTime(t), "bob", OutcomeFail); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	want := "2025-06-01 12:00:00 - bob - FAIL\n"
	if string(data) != want {
		t.Errorf("expected line %q, got %q", want, string(data))
	}
}

func TestAuthLogReadRecentLimit(t *testing.T) {
	log := NewAuthLog(filepath.Join(t.TempDir(), "auth_log.txt"))
	at := testTime(t)

	for i := 0; i < 5; i++ {
		if err := log.Append(at.Add(time.Duration(i)*time.Minute), "alice", OutcomeSuccess); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	attempts, err := log.ReadRecent(2)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if got := attempts[1].Timestamp.Sub(attempts[0].Timestamp); got != time.Minute {
		t.Errorf("expected chronological order with 1m gap, got %v", got)
	}
}

func TestAuthLogMissingFile(t *testing.T) {
	log := NewAuthLog(filepath.Join(t.TempDir(), "does_not_exist.txt"))

	attempts, err := log.ReadRecent(10)
	if err != nil {
		t.Fatalf("expected missing file to read as empty, got %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("expected 0 attempts, got %d", len(attempts))
	}
}

func TestAuthLogConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth_log.txt")
	log := NewAuthLog(path)
	at := testTime(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append(at, "alice", OutcomeSuccess); err != nil {
				t.Errorf("append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line != "2025-06-01 12:00:00 - alice - SUCCESS" {
			t.Fatalf("interleaved or corrupt line: %q", line)
		}
	}
}

func TestResultLogAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbt_results.txt")
	log := NewResultLog(path)
	at := testTime(t)

	if err := log.Append(at, "alice", 8, 10); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	want := "2025-06-01 12:00:00 - alice - Score: 8/10\n"
	if string(data) != want {
		t.Errorf("expected line %q, got %q", want, string(data))
	}

	records, err := log.ReadRecent(0)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Score != 8 || records[0].Total != 10 {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestResultLogCountForUser(t *testing.T) {
	log := NewResultLog(filepath.Join(t.TempDir(), "cbt_results.txt"))
	at := testTime(t)

	if err := log.Append(at, "alice", 8, 10); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := log.Append(at, "bob", 5, 10); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := log.Append(at, "alice", 9, 10); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	count, err := log.CountForUser("alice")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 results for alice, got %d", count)
	}

	count, err = log.CountForUser("carol")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 results for carol, got %d", count)
	}
}

func TestLedgerGrants(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "reset_ledger.txt"))
	at := testTime(t)

	count, err := ledger.Grants("alice")
	if err != nil {
		t.Fatalf("failed to count grants: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 grants, got %d", count)
	}

	if err := ledger.Grant(at, "alice"); err != nil {
		t.Fatalf("failed to grant: %v", err)
	}
	if err := ledger.Grant(at, "alice"); err != nil {
		t.Fatalf("failed to grant: %v", err)
	}
	if err := ledger.Grant(at, "bob"); err != nil {
		t.Fatalf("failed to grant: %v", err)
	}

	count, err = ledger.Grants("alice")
	if err != nil {
		t.Fatalf("failed to count grants: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 grants for alice, got %d", count)
	}
}

func TestTimeLimitsGetDefault(t *testing.T) {
	limits := NewTimeLimits(filepath.Join(t.TempDir(), "user_time_limits.json"))

	seconds, err := limits.Get("alice", 120)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if seconds != 120 {
		t.Errorf("expected default 120, got %d", seconds)
	}
}

func TestTimeLimitsSetAndGet(t *testing.T) {
	limits := NewTimeLimits(filepath.Join(t.TempDir(), "user_time_limits.json"))

	if err := limits.Set("alice", 300); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	seconds, err := limits.Get("alice", 120)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if seconds != 300 {
		t.Errorf("expected 300, got %d", seconds)
	}

	// Other users still get the default.
	seconds, err = limits.Get("bob", 120)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if seconds != 120 {
		t.Errorf("expected default 120 for bob, got %d", seconds)
	}
}

func TestTimeLimitsRejectsNonPositive(t *testing.T) {
	limits := NewTimeLimits(filepath.Join(t.TempDir(), "user_time_limits.json"))

	if err := limits.Set("alice", 0); err == nil {
		t.Error("expected error for zero time limit")
	}
	if err := limits.Set("alice", -10); err == nil {
		t.Error("expected error for negative time limit")
	}
}

func TestTimeLimitsConcurrentUpdates(t *testing.T) {
	limits := NewTimeLimits(filepath.Join(t.TempDir(), "user_time_limits.json"))

	var wg sync.WaitGroup
	users := []string{"alice", "bob", "carol", "dave"}
	for i, user := range users {
		wg.Add(1)
		go func(user string, seconds int) {
			defer wg.Done()
			if err := limits.Set(user, seconds); err != nil {
				t.Errorf("set failed: %v", err)
			}
		}(user, (i+1)*60)
	}
	wg.Wait()

	all, err := limits.All()
	if err != nil {
		t.Fatalf("failed to read all: %v", err)
	}
	if len(all) != len(users) {
		t.Fatalf("lost updates: expected %d entries, got %d", len(users), len(all))
	}
	for i, user := range users {
		if all[user] != (i+1)*60 {
			t.Errorf("expected %d for %s, got %d", (i+1)*60, user, all[user])
		}
	}
}
