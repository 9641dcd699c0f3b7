package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/evertask/pkg/colors"
	"github.com/harrisonrobin/evertask/pkg/model"
	"google.golang.org/api/calendar/v3"
)

const (
	// TaskIDProperty is the private extended property linking an event to its task.
	TaskIDProperty = "evertask_id"
	EventDuration  = 30 * time.Minute

	completedPrefix = "✓"
	overduePrefix   = "!"
)

// Summary is the event title for a task at the given instant.
func Summary(task model.Task, due, now time.Time) string {
	switch {
	case task.Completed:
		return completedPrefix + " " + task.Title
	case due.Before(now):
		return overduePrefix + " " + task.Title
	}
	return task.Title
}

// ConvertTaskToEvent builds the calendar event mirroring a task. The event
// starts at the task's due instant in loc.
func ConvertTaskToEvent(task model.Task, colorID string, now time.Time, loc *time.Location) (*calendar.Event, error) {
	due, err := task.DueAt(loc)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		colorID = colors.CompletedColorID
	}

	var desc strings.Builder
	if task.Category != "" {
		fmt.Fprintf(&desc, "#%s\n\n", task.Category)
	}
	fmt.Fprintf(&desc, "Priority: %d\n", task.Priority)
	fmt.Fprintf(&desc, "ID: %s\n", task.ID)
	if task.Description != "" {
		desc.WriteString("\nNotes:\n")
		desc.WriteString(task.Description)
		desc.WriteString("\n")
	}

	return &calendar.Event{
		Summary:     Summary(task, due, now),
		ColorId:     colorID,
		Description: desc.String(),
		Start: &calendar.EventDateTime{
			DateTime: due.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: due.Add(EventDuration).UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is already up to date.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameInstant(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameInstant(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameInstant(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil || a.DateTime == "" || b.DateTime == "" {
		return a == nil && b == nil, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}
