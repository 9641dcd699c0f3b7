// Package index persists which calendar event mirrors which task.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// EventIndex maps task ids to calendar event ids so a sync can fetch an
// event directly instead of searching the calendar for it.
type EventIndex struct {
	path   string
	mu     sync.RWMutex
	events map[string]string
	dirty  bool
}

// Open reads the index stored at path. A missing file is an empty index.
func Open(path string) (*EventIndex, error) {
	idx := &EventIndex{path: path, events: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &idx.events); err != nil {
		return nil, fmt.Errorf("failed to decode event index %s: %w", path, err)
	}
	if idx.events == nil {
		idx.events = make(map[string]string)
	}
	return idx, nil
}

// Lookup returns the event id linked to taskID, or "" when there is none.
func (idx *EventIndex) Lookup(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.events[taskID]
}

func (idx *EventIndex) Link(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.events[taskID] != eventID {
		idx.events[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Unlink(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.events[taskID]; ok {
		delete(idx.events, taskID)
		idx.dirty = true
	}
}

// TaskIDs lists every linked task, sorted.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.events))
	for id := range idx.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the index if it changed since it was opened or last saved.
// The file is replaced atomically.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	data, err := json.MarshalIndent(idx.events, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}
