package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrisonrobin/evertask/pkg/colors"
	"github.com/harrisonrobin/evertask/pkg/index"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/overdue"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// Files kept per owner under the sync state directory.
const (
	EventIndexFile = "events.json"
	OverdueFile    = "pending_tasks.json"
	ColorCacheFile = "category_colors.json"
)

// Mirror keeps a calendar in step with one user's task list. Its tables
// must belong to that user alone: any indexed task missing from the list
// passed to Sync has its event deleted.
type Mirror struct {
	Calendar Calendar
	Index    *index.EventIndex
	Overdue  *overdue.Table
	Colors   *colors.ColorCache
	Location *time.Location
	Now      func() time.Time
}

// OpenMirror opens owner's index, overdue table and color cache under
// dir/owner.
func OpenMirror(cal Calendar, dir, owner string) (*Mirror, error) {
	if owner == "" || owner == "." || owner == ".." || strings.ContainsAny(owner, `/\`) {
		return nil, fmt.Errorf("invalid owner %q for sync state", owner)
	}
	dir = filepath.Join(dir, owner)
	idx, err := index.Open(filepath.Join(dir, EventIndexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event index: %w", err)
	}
	table, err := overdue.Open(filepath.Join(dir, OverdueFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize overdue sweep table: %w", err)
	}
	cache, err := colors.Open(filepath.Join(dir, ColorCacheFile))
	if err != nil {
		return nil, fmt.Errorf("could not load color cache: %w", err)
	}
	return &Mirror{Calendar: cal, Index: idx, Overdue: table, Colors: cache}, nil
}

// SyncResult counts what a Sync did.
type SyncResult struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Swept     int
	Skipped   int
}

func (r SyncResult) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d deleted, %d marked overdue, %d skipped",
		r.Created, r.Updated, r.Unchanged, r.Deleted, r.Swept, r.Skipped)
}

// Sync mirrors every task, marking newly overdue ones, and removes events
// whose task no longer exists. Failures on single tasks are logged and
// returned together; the rest of the tasks are still synced.
func (m *Mirror) Sync(ctx context.Context, tasks []model.Task) (SyncResult, error) {
	var (
		res  SyncResult
		errs []error
	)
	now := m.now()

	// Events past due since the last run get their prefix from syncTask.
	swept := make(map[string]bool)
	for _, e := range m.Overdue.Sweep(now) {
		swept[e.TaskID] = true
	}

	live := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		live[t.ID] = true
		outcome, err := m.syncTask(ctx, t, now)
		if err != nil {
			var ferr *model.FormatError
			if errors.As(err, &ferr) {
				log.Printf("Skipping task %s: %v", t.ID, err)
				res.Skipped++
				continue
			}
			log.Printf("Error syncing task %s: %v", t.ID, err)
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			continue
		}
		switch {
		case outcome == outcomeCreated:
			res.Created++
		case outcome == outcomeUpdated && swept[t.ID] && !t.Completed:
			res.Swept++
		case outcome == outcomeUpdated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}

	for _, id := range m.Index.TaskIDs() {
		if live[id] {
			continue
		}
		eventID := m.Index.Lookup(id)
		if err := m.Calendar.DeleteEvent(ctx, eventID); err != nil && !isGone(err) {
			log.Printf("Error deleting event %s: %v", eventID, err)
			errs = append(errs, fmt.Errorf("delete event %s: %w", eventID, err))
			continue
		}
		m.Index.Unlink(id)
		m.Overdue.Remove(id)
		res.Deleted++
	}

	for _, save := range []func() error{m.Index.Save, m.Overdue.Save, m.Colors.Save} {
		if err := save(); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (m *Mirror) syncTask(ctx context.Context, t model.Task, now time.Time) (outcome, error) {
	target, err := ConvertTaskToEvent(t, m.Colors.ColorID(t.Category), now, m.location())
	if err != nil {
		return outcomeUnchanged, err
	}

	existing, err := m.lookup(ctx, t.ID)
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("error searching for event: %w", err)
	}

	var (
		event  *calendar.Event
		result = outcomeUnchanged
	)
	if existing == nil {
		event, err = m.Calendar.InsertEvent(ctx, target)
		if err != nil {
			return outcomeUnchanged, err
		}
		result = outcomeCreated
	} else {
		patch, err := EventNeedsUpdate(existing, target)
		if err != nil {
			return outcomeUnchanged, fmt.Errorf("could not compare task with its calendar event: %w", err)
		}
		event = existing
		if patch != nil {
			event, err = m.Calendar.PatchEvent(ctx, existing.Id, patch)
			if err != nil {
				return outcomeUnchanged, err
			}
			result = outcomeUpdated
		}
	}

	m.Index.Link(t.ID, event.Id)
	if t.Completed {
		m.Overdue.Remove(t.ID)
	} else {
		due, _ := t.DueAt(m.location())
		m.Overdue.Track(overdue.Entry{TaskID: t.ID, EventID: event.Id, Summary: t.Title, Due: due}, now)
	}
	return result, nil
}

// lookup finds a task's event through the index, falling back to a search
// by extended property when the index is stale.
func (m *Mirror) lookup(ctx context.Context, taskID string) (*calendar.Event, error) {
	if eventID := m.Index.Lookup(taskID); eventID != "" {
		event, err := m.Calendar.GetEvent(ctx, eventID)
		if err == nil && event.Status != "cancelled" {
			return event, nil
		}
	}
	return m.Calendar.GetEventByTaskID(ctx, taskID)
}

func (m *Mirror) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Mirror) location() *time.Location {
	if m.Location != nil {
		return m.Location
	}
	return time.Local
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}
