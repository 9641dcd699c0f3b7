package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/evertask/pkg/auth"
)

// NewClient authorizes with Google and binds a client to the calendar whose
// name is calendarName.
func NewClient(ctx context.Context, calendarName string) (*CalendarClient, error) {
	srv, err := auth.CalendarService(ctx)
	if err != nil {
		return nil, err
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	return NewCalendarClient(srv, calendarID), nil
}
