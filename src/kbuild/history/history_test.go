package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestRecordAssignsID(t *testing.T) {
	ledger := openTestLedger(t)

	run := Run{
		Stream:   "c9s",
		Arch:     "x86_64",
		Success:  true,
		Duration: 95 * time.Second,
		LogPath:  "/tmp/build/logs/build-c9s-20260203-1430.log",
	}
	if err := ledger.Record(&run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if run.ID == "" {
		t.Error("Record should assign a run ID")
	}
	if run.Created.IsZero() {
		t.Error("Record should assign a creation time")
	}
}

func TestRecentRoundTrip(t *testing.T) {
	ledger := openTestLedger(t)

	older := Run{
		ID: "run-1", Stream: "c9s", Arch: "aarch64",
		Success: false, Duration: 30 * time.Second,
		Created: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := Run{
		ID: "run-2", Stream: "c10s", Arch: "x86_64",
		Success: true, Duration: 2 * time.Minute,
		LogPath: "/tmp/b/logs/build-c10s-20260202-0900.log",
		Created: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
	}
	for _, run := range []Run{older, newer} {
		run := run
		if err := ledger.Record(&run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := ledger.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("runs not ordered newest first: %v, %v", runs[0].ID, runs[1].ID)
	}

	got := runs[0]
	if got.Stream != "c10s" || got.Arch != "x86_64" || !got.Success {
		t.Errorf("run fields lost in round trip: %+v", got)
	}
	if got.Duration != 2*time.Minute {
		t.Errorf("Duration = %v, want 2m", got.Duration)
	}
	if got.LogPath != newer.LogPath {
		t.Errorf("LogPath = %q, want %q", got.LogPath, newer.LogPath)
	}
}

func TestRecentLimit(t *testing.T) {
	ledger := openTestLedger(t)

	for i := 0; i < 5; i++ {
		run := Run{
			Stream: "c9s", Arch: "x86_64",
			Created: time.Date(2026, 2, 1, i, 0, 0, 0, time.UTC),
		}
		if err := ledger.Record(&run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := ledger.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
}
