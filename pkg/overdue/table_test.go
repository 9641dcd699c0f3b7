package overdue

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTrackAndSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overdue.json")
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	table.Track(Entry{TaskID: "a", EventID: "e1", Summary: "Report", Due: now.Add(time.Hour)}, now)
	table.Track(Entry{TaskID: "b", EventID: "e2", Summary: "Late", Due: now.Add(-time.Hour)}, now)
	if len(table.Entries) != 1 {
		t.Fatalf("Expected only the future task to be tracked, got %v", table.Entries)
	}
	if err := table.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if swept := reopened.Sweep(now); len(swept) != 0 {
		t.Errorf("Expected nothing overdue yet, got %v", swept)
	}
	swept := reopened.Sweep(now.Add(2 * time.Hour))
	if len(swept) != 1 || swept[0].EventID != "e1" {
		t.Fatalf("Expected e1 to be swept, got %v", swept)
	}
	if len(reopened.Entries) != 0 {
		t.Errorf("Expected swept entries to be removed")
	}
}
