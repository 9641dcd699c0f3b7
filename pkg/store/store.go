package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrisonrobin/evertask/pkg/model"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("store unavailable")
)

// Error carries the failing operation and one of the sentinel kinds above.
// errors.Is(err, ErrNotFound) and friends match on Kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// NotFound, Conflict and Unavailable build an *Error of the matching kind.
func NotFound(op string, err error) error    { return &Error{Op: op, Kind: ErrNotFound, Err: err} }
func Conflict(op string, err error) error    { return &Error{Op: op, Kind: ErrConflict, Err: err} }
func Unavailable(op string, err error) error { return &Error{Op: op, Kind: ErrUnavailable, Err: err} }

// TaskStore persists tasks per owner. It is the source of truth the view
// engine resynchronizes from.
type TaskStore interface {
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Close() error
}

// UserStore persists accounts for the auth package.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	UserByName(ctx context.Context, username string) (model.User, error)
	UserByGitHubID(ctx context.Context, githubID string) (model.User, error)
}
