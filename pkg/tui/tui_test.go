package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
	"github.com/harrisonrobin/evertask/pkg/view"
)

type fakeStore struct {
	tasks    []model.Task
	failWith error
}

func (f *fakeStore) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	return append([]model.Task(nil), f.tasks...), nil
}

func (f *fakeStore) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if f.failWith != nil {
		return model.Task{}, f.failWith
	}
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return t, nil
		}
	}
	return model.Task{}, store.NotFound("update task", nil)
}

func (f *fakeStore) DeleteTask(ctx context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return store.NotFound("delete task", nil)
}

func (f *fakeStore) Close() error { return nil }

func keys(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func loaded(t *testing.T) (Model, *fakeStore) {
	t.Helper()
	st := &fakeStore{tasks: []model.Task{
		{ID: "1", OwnerID: "u", Title: "Report", DueDate: "2025-05-10", DueTime: "00:00", Priority: 2, Category: "Work"},
		{ID: "2", OwnerID: "u", Title: "Groceries", DueDate: "2025-05-09", DueTime: "00:00", Priority: 4, Category: "Home"},
	}}
	m := New(context.Background(), view.NewEngine(st, "u"), st)
	m, _ = send(t, m, m.Init()())
	if len(m.rows) != 2 {
		t.Fatalf("Expected 2 rows after load, got %d", len(m.rows))
	}
	return m, st
}

func TestToggleAppliesResultInUpdate(t *testing.T) {
	m, _ := loaded(t)

	m, cmd := send(t, m, keys(" "))
	if cmd == nil || !m.pending["1"] {
		t.Fatalf("Expected an in-flight toggle for task 1")
	}
	if m.rows[0].Completed {
		t.Errorf("Local state must not change before the store answers")
	}

	// A second toggle on the same task is refused while the first is pending.
	m, again := send(t, m, keys(" "))
	if again != nil {
		t.Errorf("Expected no command while a mutation is in flight")
	}

	m, _ = send(t, m, cmd())
	if m.pending["1"] {
		t.Errorf("Expected pending flag cleared")
	}
	if got, _ := m.engine.Task("1"); !got.Completed {
		t.Errorf("Expected task 1 completed after update")
	}
}

func TestToggleFailureLeavesStateUnchanged(t *testing.T) {
	m, st := loaded(t)
	st.failWith = store.Unavailable("update task", errors.New("db down"))

	m, cmd := send(t, m, keys(" "))
	m, _ = send(t, m, cmd())
	if got, _ := m.engine.Task("1"); got.Completed {
		t.Errorf("Expected task 1 to stay incomplete")
	}
	if !errors.Is(m.err, store.ErrUnavailable) {
		t.Errorf("Expected unavailable error, got %v", m.err)
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("Expected error line in view")
	}
}

func TestToggleRacingReloadIsReported(t *testing.T) {
	m, st := loaded(t)

	m, cmd := send(t, m, keys(" "))
	// A reload lands before the store answers and no longer holds task 1.
	m, _ = send(t, m, loadedMsg{tasks: append([]model.Task(nil), st.tasks[1:]...)})
	m, _ = send(t, m, cmd())

	if !errors.Is(m.err, store.ErrNotFound) {
		t.Errorf("Expected not found after the task vanished, got %v", m.err)
	}
	if strings.HasPrefix(m.status, "Saved") {
		t.Errorf("Status must not claim the toggle was saved: %q", m.status)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, st := loaded(t)

	m, cmd := send(t, m, keys("d"))
	if cmd != nil || m.confirm != "1" {
		t.Fatalf("Expected a confirmation prompt, got cmd=%v confirm=%q", cmd != nil, m.confirm)
	}
	m, cmd = send(t, m, keys("n"))
	if cmd != nil || m.engine.Len() != 2 {
		t.Fatalf("Expected delete to be cancelled")
	}

	m, _ = send(t, m, keys("d"))
	m, cmd = send(t, m, keys("y"))
	if cmd == nil {
		t.Fatalf("Expected delete command after confirmation")
	}
	m, _ = send(t, m, cmd())
	if m.engine.Len() != 1 || len(st.tasks) != 1 {
		t.Errorf("Expected task removed locally and in store")
	}
	if m.rows[0].ID != "2" {
		t.Errorf("Expected task 2 to remain, got %s", m.rows[0].ID)
	}
}

func TestSortAndFilterKeys(t *testing.T) {
	m, _ := loaded(t)

	m, _ = send(t, m, keys("3"))
	if col, dir := m.engine.Sort(); col != view.ColumnDueDate || dir != view.Ascending {
		t.Fatalf("Expected due date ascending, got %v %v", col, dir)
	}
	if m.rows[0].ID != "2" {
		t.Errorf("Expected earliest due first, got %s", m.rows[0].ID)
	}

	m, _ = send(t, m, keys("f"))
	if m.engine.Filter() != "Home" || len(m.rows) != 1 {
		t.Errorf("Expected Home filter with one row, got %q with %d", m.engine.Filter(), len(m.rows))
	}
	m, _ = send(t, m, keys("f"))
	m, _ = send(t, m, keys("f"))
	if m.engine.Filter() != view.FilterAll {
		t.Errorf("Expected filter to cycle back to All, got %q", m.engine.Filter())
	}
}

func TestNextFilter(t *testing.T) {
	cats := []string{"Work", "Home"}
	tests := map[string]string{"All": "Work", "Work": "Home", "Home": "All", "Gone": "All"}
	for in, want := range tests {
		if got := nextFilter(in, cats); got != want {
			t.Errorf("nextFilter(%q) = %q, want %q", in, got, want)
		}
	}
}
