package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

func TestRoundTripPerUser(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "tasks.json")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := st.CreateTask(ctx, model.Task{ID: "1", OwnerID: "alice", Title: "Buy milk", DueDate: "2025-05-10", Priority: 1, Category: "Home"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := st.CreateTask(ctx, model.Task{ID: "2", OwnerID: "bob", Title: "Ship it", DueDate: "2025-05-11", Priority: 5, Category: "Work"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected file to be written: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	tasks, err := reopened.ListTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].OwnerID != "alice" {
		t.Fatalf("Expected alice's single task, got %+v", tasks)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	st, err := Open(filepath.Join(t.TempDir(), "tasks.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	task := model.Task{ID: "1", OwnerID: "alice", Title: "Buy milk", DueDate: "2025-05-10", Priority: 1}
	if _, err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := st.CreateTask(ctx, task); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate id, got %v", err)
	}

	task.Completed = true
	if _, err := st.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	tasks, _ := st.ListTasks(ctx, "alice")
	if !tasks[0].Completed {
		t.Errorf("Expected task completed")
	}

	if err := st.DeleteTask(ctx, "1"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := st.DeleteTask(ctx, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := st.UpdateTask(ctx, task); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateWithoutOwner(t *testing.T) {
	st, _ := Open(filepath.Join(t.TempDir(), "tasks.json"))
	_, err := st.CreateTask(context.Background(), model.Task{ID: "1", Title: "x"})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Expected decode error")
	}
}
