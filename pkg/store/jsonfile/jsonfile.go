package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

// Store keeps every user's tasks in one JSON document keyed by owner:
//
//	{"users": {"alice": [{...task...}]}}
//
// The document is rewritten after each mutation.
type Store struct {
	Users map[string][]model.Task `json:"users"`
	Path  string                  `json:"-"`
	mu    sync.RWMutex
	dirty bool
}

var _ store.TaskStore = (*Store)(nil)

// Open loads the document at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		Users: make(map[string][]model.Task),
		Path:  path,
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return store.Unavailable("load", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(s); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	if s.Users == nil {
		s.Users = make(map[string][]model.Task)
	}
	return nil
}

// save writes the document if it changed. Callers hold mu.
func (s *Store) save() error {
	if !s.dirty {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return store.Unavailable("save", err)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return store.Unavailable("save", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return store.Unavailable("save", err)
	}
	s.dirty = false
	return nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]model.Task, 0, len(s.Users[ownerID]))
	for _, t := range s.Users[ownerID] {
		t.OwnerID = ownerID
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.OwnerID == "" {
		return model.Task{}, &model.ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if owner, _ := s.find(t.ID); owner != "" {
		return model.Task{}, store.Conflict("create task", fmt.Errorf("task %s exists", t.ID))
	}
	s.Users[t.OwnerID] = append(s.Users[t.OwnerID], t)
	s.dirty = true
	return t, s.saveOrRevert(func() {
		list := s.Users[t.OwnerID]
		s.Users[t.OwnerID] = list[:len(list)-1]
	})
}

func (s *Store) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, i := s.find(t.ID)
	if owner == "" {
		return model.Task{}, store.NotFound("update task", fmt.Errorf("task %s", t.ID))
	}
	prev := s.Users[owner][i]
	t.OwnerID = owner
	t.CreatedAt = prev.CreatedAt
	s.Users[owner][i] = t
	s.dirty = true
	return t, s.saveOrRevert(func() { s.Users[owner][i] = prev })
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, i := s.find(id)
	if owner == "" {
		return store.NotFound("delete task", fmt.Errorf("task %s", id))
	}
	prev := s.Users[owner]
	s.Users[owner] = append(prev[:i:i], prev[i+1:]...)
	s.dirty = true
	return s.saveOrRevert(func() { s.Users[owner] = prev })
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// saveOrRevert persists the document, undoing the in-memory change when the
// write fails so memory never runs ahead of disk.
func (s *Store) saveOrRevert(undo func()) error {
	if err := s.save(); err != nil {
		undo()
		s.dirty = false
		return err
	}
	return nil
}

func (s *Store) find(id string) (string, int) {
	for owner, tasks := range s.Users {
		for i, t := range tasks {
			if t.ID == id {
				return owner, i
			}
		}
	}
	return "", -1
}
