package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/evertask/pkg/config"
	"github.com/harrisonrobin/evertask/pkg/store"
	"github.com/harrisonrobin/evertask/pkg/store/jsonfile"
	"github.com/harrisonrobin/evertask/pkg/store/sqlstore"
	"github.com/harrisonrobin/evertask/pkg/view"
)

const driverJSON = "json"

var errNotLoggedIn = errors.New("not logged in; run 'evertask login USER' first")

// backend is the opened task store plus, for SQL drivers, the user store.
type backend struct {
	tasks store.TaskStore
	users store.UserStore
}

func (b *backend) Close() error { return b.tasks.Close() }

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Store.Driver == driverJSON {
		st, err := jsonfile.Open(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{tasks: st}, nil
	}
	st, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	return &backend{tasks: st, users: st}, nil
}

// usersOf returns the user store, which only the SQL drivers provide.
func (b *backend) usersOf() (store.UserStore, error) {
	if b.users == nil {
		return nil, errors.New("user accounts need the sqlite3 or mysql store driver")
	}
	return b.users, nil
}

// session is an open store with an engine loaded for the signed-in user.
type session struct {
	cfg     *config.Config
	backend *backend
	engine  *view.Engine
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if cfg.User == "" {
		return nil, errNotLoggedIn
	}
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	owner := cfg.User
	if b.users != nil {
		u, err := b.users.UserByName(ctx, cfg.User)
		if err != nil {
			b.Close()
			if errors.Is(err, store.ErrNotFound) {
				return nil, errNotLoggedIn
			}
			return nil, err
		}
		owner = u.ID
	}

	engine := view.NewEngine(b.tasks, owner)
	if err := engine.Refresh(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("error loading tasks: %w", err)
	}
	return &session{cfg: cfg, backend: b, engine: engine}, nil
}

func (s *session) Close() error { return s.backend.Close() }

// resolveID matches a full task id or a unique prefix of one, as shown by
// list.
func (s *session) resolveID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if _, ok := s.engine.Task(ref); ok {
		return ref, nil
	}
	var matches []string
	for _, t := range s.engine.Tasks() {
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", store.NotFound("find task", fmt.Errorf("no task matches %q", ref))
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous: it matches %d tasks", ref, len(matches))
	}
}
