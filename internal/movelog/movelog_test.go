package movelog_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jamb-online/internal/movelog"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoggerPreservesSubmissionOrder(t *testing.T) {
	dir := t.TempDir()
	logger, err := movelog.New("order", dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}

	const n = 25
	for i := 0; i < n; i++ {
		logger.LogMove(movelog.NewRecord("Alice", movelog.KindRoll, fmt.Sprintf("roll %d", i)))
	}
	logger.Close()

	records, err := movelog.ReadRecords(logger.Path())
	if err != nil {
		t.Fatalf("read records failed: %v", err)
	}
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
	for i, r := range records {
		if r.Detail != fmt.Sprintf("roll %d", i) {
			t.Errorf("record %d out of order: %q", i, r.Detail)
		}
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	records, err := movelog.ReadRecords(t.TempDir() + "/absent.json")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestLogMoveDoesNotBlockAfterClose(t *testing.T) {
	logger, err := movelog.New("closed", t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	logger.Close()

	done := make(chan struct{})
	go func() {
		logger.LogMove(movelog.NewRecord("Alice", movelog.KindScore, "late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("LogMove blocked after Close")
	}
}

func TestTailerPublishesLastRecord(t *testing.T) {
	dir := t.TempDir()
	logger, err := movelog.New("tail", dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	defer logger.Close()

	tailer := movelog.NewTailer(logger, 50*time.Millisecond, nil, zerolog.Nop())
	defer tailer.Close()

	// Empty file: defined "no moves yet" state, not an error.
	if _, ok := tailer.Last(); ok {
		t.Error("expected no last record before any move")
	}

	logger.LogMove(movelog.NewRecord("Alice", movelog.KindRoll, "dice: 1, 2, 3, 4, 5"))
	logger.LogMove(movelog.NewRecord("Alice", movelog.KindScore, "chance (15 points)"))

	waitFor(t, "tailer to observe the last record", func() bool {
		last, ok := tailer.Last()
		return ok && last.Kind == movelog.KindScore
	})

	last, _ := tailer.Last()
	if last.Player != "Alice" || last.Detail != "chance (15 points)" {
		t.Errorf("unexpected last record: %+v", last)
	}
}

func TestTailerClosesPromptly(t *testing.T) {
	logger, err := movelog.New("stop", t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	defer logger.Close()

	tailer := movelog.NewTailer(logger, time.Hour, nil, zerolog.Nop())
	start := time.Now()
	tailer.Close()
	if time.Since(start) > time.Second {
		t.Error("tailer close took too long")
	}
}
