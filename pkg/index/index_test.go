package index

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestIndexPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evertask", "events.json")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	idx.Link("task-b", "evt-2")
	idx.Link("task-a", "evt-1")
	if err := idx.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if got := reopened.Lookup("task-a"); got != "evt-1" {
		t.Errorf("Expected evt-1, got %q", got)
	}
	if got := reopened.TaskIDs(); !reflect.DeepEqual(got, []string{"task-a", "task-b"}) {
		t.Errorf("Expected sorted ids, got %v", got)
	}

	reopened.Unlink("task-a")
	if reopened.Lookup("task-a") != "" {
		t.Errorf("Expected task-a removed")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("Expected decode error")
	}
}
