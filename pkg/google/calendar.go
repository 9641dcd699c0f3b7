package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
)

// Calendar is the set of event operations the mirror needs.
type Calendar interface {
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error)
	InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// CalendarClient is a Google Calendar API client bound to one calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
}

var _ Calendar = (*CalendarClient)(nil)

func NewCalendarClient(srv *calendar.Service, calendarID string) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID}
}

func (c *CalendarClient) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	return c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
}

func (c *CalendarClient) InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// GetEventByTaskID searches for the event carrying the task id in its
// private extended properties. It returns nil when there is none.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
