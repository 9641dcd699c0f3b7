package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultCategory = "General"
	DefaultDueTime  = "00:00"
	DefaultPriority = 3

	MinPriority = 1
	MaxPriority = 5
)

// Task is a single to-do item owned by one user.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"due_date"` // YYYY-MM-DD
	DueTime     string    `json:"due_time"` // HH:MM, 24 hour
	Priority    int       `json:"priority"`
	Category    string    `json:"category"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Due parses the task's due date as a calendar date.
func (t Task) Due() (time.Time, error) {
	d, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, &FormatError{Field: "due_date", Value: t.DueDate, Err: err}
	}
	return d, nil
}

// DueAt combines the due date and due time into an instant in loc.
func (t Task) DueAt(loc *time.Location) (time.Time, error) {
	clock := t.DueTime
	if clock == "" {
		clock = DefaultDueTime
	}
	at, err := time.ParseInLocation(DateLayout+" "+TimeLayout, t.DueDate+" "+clock, loc)
	if err != nil {
		return time.Time{}, &FormatError{Field: "due", Value: t.DueDate + " " + clock, Err: err}
	}
	return at, nil
}

// Normalize trims free-text fields and fills in defaults for blank ones.
func Normalize(t Task) Task {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.DueDate = strings.TrimSpace(t.DueDate)
	t.DueTime = strings.TrimSpace(t.DueTime)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.DueTime == "" {
		t.DueTime = DefaultDueTime
	}
	return t
}

// Validate reports the first field of t that a store must not accept.
// It expects a normalized task.
func Validate(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
		return &ValidationError{Field: "due_date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", t.DueDate)}
	}
	if t.DueTime != "" {
		if _, err := time.Parse(TimeLayout, t.DueTime); err != nil {
			return &ValidationError{Field: "due_time", Reason: fmt.Sprintf("%q is not a HH:MM time", t.DueTime)}
		}
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("%d is outside %d-%d", t.Priority, MinPriority, MaxPriority)}
	}
	return nil
}

// User is an account that owns tasks. PasswordHash is empty for accounts
// that only sign in through GitHub.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	GitHubID     string
}
