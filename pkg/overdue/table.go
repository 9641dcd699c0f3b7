package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry is an incomplete task whose calendar event should turn overdue once
// Due passes.
type Entry struct {
	TaskID  string    `json:"task_id"`
	EventID string    `json:"event_id"`
	Summary string    `json:"summary"`
	Due     time.Time `json:"due"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// Open loads the table stored at path; a missing file is an empty table.
func Open(path string) (*Table, error) {
	t := &Table{
		Path:    path,
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Track records a task that is due at a future instant. A zero due time
// or one that has already passed drops the task from the table.
func (t *Table) Track(e Entry, now time.Time) {
	if e.Due.IsZero() || !e.Due.After(now) {
		t.Remove(e.TaskID)
		return
	}
	old, exists := t.Entries[e.TaskID]
	if !exists || old != e {
		t.Entries[e.TaskID] = e
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep returns the entries whose due instant is before now and removes them.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.Due.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
