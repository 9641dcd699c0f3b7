package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Store keeps users and tasks in a SQL database.
type Store struct {
	db     *sql.DB
	driver string
}

var (
	_ store.TaskStore = (*Store)(nil)
	_ store.UserStore = (*Store)(nil)
)

// Open connects to the database and creates the tables if needed. For
// sqlite3 the dsn is a file path; a leading ~ is expanded and the parent
// directory created.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		path, err := expandHome(dsn)
		if err != nil {
			return nil, err
		}
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path
	case DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, store.Unavailable("open", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; background store calls would otherwise hit SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.Unavailable("open", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s store: %w", driver, err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	for _, ddl := range schema[s.driver] {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			if s.driver == DriverMySQL && isDuplicateIndex(err) {
				continue
			}
			return err
		}
	}
	return nil
}

var schema = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	github_id TEXT UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL,
	due_time TEXT NOT NULL DEFAULT '00:00',
	priority INTEGER NOT NULL DEFAULT 3,
	category TEXT NOT NULL DEFAULT 'General',
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(64) PRIMARY KEY,
	username VARCHAR(150) NOT NULL,
	password_hash VARCHAR(100) NOT NULL DEFAULT '',
	github_id VARCHAR(100) NULL,
	UNIQUE KEY uniq_username (username),
	UNIQUE KEY uniq_github (github_id)
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
	seq BIGINT PRIMARY KEY AUTO_INCREMENT,
	id VARCHAR(64) NOT NULL,
	owner_id VARCHAR(64) NOT NULL,
	title VARCHAR(150) NOT NULL,
	description TEXT,
	due_date VARCHAR(10) NOT NULL,
	due_time VARCHAR(5) NOT NULL DEFAULT '00:00',
	priority INT NOT NULL DEFAULT 3,
	category VARCHAR(50) NOT NULL DEFAULT 'General',
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at VARCHAR(40) NOT NULL DEFAULT '',
	UNIQUE KEY uniq_task (id)
)`,
		// MySQL has no CREATE INDEX IF NOT EXISTS; duplicates are ignored in migrate.
		`CREATE INDEX idx_tasks_owner ON tasks(owner_id)`,
	},
}

const taskColumns = `id, owner_id, title, description, due_date, due_time, priority, category, completed, created_at`

// ListTasks returns the owner's tasks in insertion order.
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY seq`, ownerID)
	if err != nil {
		return nil, s.wrap("list tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, s.wrap("list tasks", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list tasks", err)
	}
	return tasks, nil
}

// GetTask loads a single task by id.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return model.Task{}, s.wrap("get task", err)
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Title, t.Description, t.DueDate, t.DueTime, t.Priority, t.Category, t.Completed,
		t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.Task{}, s.wrap("create task", err)
	}
	return t, nil
}

// UpdateTask overwrites the editable fields of an existing task. Owner and
// creation time are not changed.
func (s *Store) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, due_time = ?, priority = ?, category = ?, completed = ? WHERE id = ?`,
		t.Title, t.Description, t.DueDate, t.DueTime, t.Priority, t.Category, t.Completed, t.ID)
	if err != nil {
		return model.Task{}, s.wrap("update task", err)
	}
	// MySQL reports 0 affected rows for a match that did not change, so a
	// missing task is detected by reading it back.
	return s.GetTask(ctx, t.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return s.wrap("delete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrap("delete task", err)
	}
	if n == 0 {
		return store.NotFound("delete task", fmt.Errorf("task %s", id))
	}
	return nil
}

// CreateUser inserts a new account. A taken username or GitHub id is a
// conflict.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Username = strings.TrimSpace(u.Username)
	var github sql.NullString
	if u.GitHubID != "" {
		github = sql.NullString{String: u.GitHubID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, github)
	if err != nil {
		return model.User{}, s.wrap("create user", err)
	}
	return u, nil
}

func (s *Store) UserByName(ctx context.Context, username string) (model.User, error) {
	return s.userWhere(ctx, "user by name", `username = ?`, strings.TrimSpace(username))
}

func (s *Store) UserByGitHubID(ctx context.Context, githubID string) (model.User, error) {
	return s.userWhere(ctx, "user by github id", `github_id = ?`, githubID)
}

func (s *Store) userWhere(ctx context.Context, op, cond string, arg any) (model.User, error) {
	var (
		u      model.User
		github sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, github_id FROM users WHERE `+cond, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &github)
	if err != nil {
		return model.User{}, s.wrap(op, err)
	}
	u.GitHubID = github.String
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (model.Task, error) {
	var (
		t       model.Task
		desc    sql.NullString
		created string
	)
	if err := sc.Scan(&t.ID, &t.OwnerID, &t.Title, &desc, &t.DueDate, &t.DueTime, &t.Priority, &t.Category, &t.Completed, &created); err != nil {
		return model.Task{}, err
	}
	t.Description = desc.String
	if created != "" {
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			t.CreatedAt = ts
		}
	}
	return t, nil
}

// wrap maps driver errors onto the store error kinds.
func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.NotFound(op, nil)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return store.Conflict(op, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return store.Conflict(op, err)
	}
	return store.Unavailable(op, err)
}

func isDuplicateIndex(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1061
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
