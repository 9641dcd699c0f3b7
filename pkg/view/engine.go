package view

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

const (
	// FilterAll is the filter value that matches every category.
	FilterAll = "All"
	// CompleteBucket is the report bucket for completed tasks.
	CompleteBucket = "Complete"

	previewLimit = 45
	previewKeep  = 42
)

// Engine holds one user's task list together with the active category
// filter and sort state. It derives the rows to display and the report
// aggregation, and routes mutations through the task store.
//
// An Engine is owned by a single control flow and is not safe for
// concurrent use.
type Engine struct {
	store   store.TaskStore
	owner   string
	tasks   []model.Task
	filter  string
	sortCol Column
	sortDir Direction
	last    []model.Task
}

// NewEngine creates an empty engine for ownerID backed by st.
func NewEngine(st store.TaskStore, ownerID string) *Engine {
	return &Engine{store: st, owner: ownerID, filter: FilterAll}
}

func (e *Engine) Owner() string { return e.owner }

// Load replaces the local task set.
func (e *Engine) Load(tasks []model.Task) {
	e.tasks = append([]model.Task(nil), tasks...)
}

// Refresh queries the store for the owner's tasks and loads them. On error
// the local state is left as it was.
func (e *Engine) Refresh(ctx context.Context) error {
	tasks, err := e.store.ListTasks(ctx, e.owner)
	return e.ApplyLoad(tasks, err)
}

// ApplyLoad loads the result of a ListTasks call unless it failed.
func (e *Engine) ApplyLoad(tasks []model.Task, err error) error {
	if err != nil {
		return err
	}
	e.Load(tasks)
	return nil
}

func (e *Engine) Len() int { return len(e.tasks) }

// Tasks returns a copy of the unfiltered task set in store order.
func (e *Engine) Tasks() []model.Task {
	return append([]model.Task(nil), e.tasks...)
}

// Task looks up a loaded task by id.
func (e *Engine) Task(id string) (model.Task, bool) {
	if i := e.indexOf(id); i >= 0 {
		return e.tasks[i], true
	}
	return model.Task{}, false
}

// Categories returns the distinct categories of tasks in ascending order.
func Categories(tasks []model.Task) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, t := range tasks {
		if !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// SetFilter sets the category filter. Values that match no task are allowed
// and simply produce an empty projection.
func (e *Engine) SetFilter(category string) { e.filter = category }

func (e *Engine) Filter() string { return e.filter }

// RequestSort applies a header click: the active column flips direction, any
// other column becomes active in ascending order.
func (e *Engine) RequestSort(col Column) {
	if col == e.sortCol {
		if e.sortDir == Ascending {
			e.sortDir = Descending
		} else {
			e.sortDir = Ascending
		}
		return
	}
	e.sortCol = col
	e.sortDir = Ascending
}

// Sort returns the active sort column and direction.
func (e *Engine) Sort() (Column, Direction) { return e.sortCol, e.sortDir }

// Projection returns the filtered, sorted rows to display. If the sort
// cannot be performed the previous projection is returned with the error.
func (e *Engine) Projection() ([]model.Task, error) {
	rows := make([]model.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if e.filter == FilterAll || t.Category == e.filter {
			rows = append(rows, t)
		}
	}
	if err := sortTasks(rows, e.sortCol, e.sortDir); err != nil {
		return append([]model.Task(nil), e.last...), err
	}
	e.last = rows
	return append([]model.Task(nil), rows...), nil
}

func sortTasks(rows []model.Task, col Column, dir Direction) error {
	if col == ColumnNone {
		return nil
	}

	var cmp func(a, b int) int
	switch col {
	case ColumnTitle:
		cmp = func(a, b int) int { return strings.Compare(rows[a].Title, rows[b].Title) }
	case ColumnCategory:
		cmp = func(a, b int) int { return strings.Compare(rows[a].Category, rows[b].Category) }
	case ColumnDescription:
		cmp = func(a, b int) int { return strings.Compare(Preview(rows[a].Description), Preview(rows[b].Description)) }
	case ColumnPriority:
		cmp = func(a, b int) int { return rows[a].Priority - rows[b].Priority }
	case ColumnCompleted:
		cmp = func(a, b int) int { return boolRank(rows[a].Completed) - boolRank(rows[b].Completed) }
	case ColumnDueDate:
		// Dates are parsed up front so a bad value aborts before anything moves.
		// They are swapped alongside rows to stay aligned.
		dates := make([]time.Time, len(rows))
		for i, t := range rows {
			d, err := t.Due()
			if err != nil {
				return err
			}
			dates[i] = d
		}
		sort.Stable(&dateSorter{rows: rows, dates: dates, desc: dir == Descending})
		return nil
	default:
		return fmt.Errorf("unknown sort column %d", col)
	}

	if dir == Descending {
		sort.SliceStable(rows, func(i, j int) bool { return cmp(j, i) < 0 })
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return cmp(i, j) < 0 })
	}
	return nil
}

type dateSorter struct {
	rows  []model.Task
	dates []time.Time
	desc  bool
}

func (s *dateSorter) Len() int { return len(s.rows) }

func (s *dateSorter) Less(i, j int) bool {
	if s.desc {
		return s.dates[j].Before(s.dates[i])
	}
	return s.dates[i].Before(s.dates[j])
}

func (s *dateSorter) Swap(i, j int) {
	s.rows[i], s.rows[j] = s.rows[j], s.rows[i]
	s.dates[i], s.dates[j] = s.dates[j], s.dates[i]
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Preview is the description as shown in the table. Sorting by the
// Description column compares previews, not full text.
func Preview(desc string) string {
	if utf8.RuneCountInString(desc) <= previewLimit {
		return desc
	}
	r := []rune(desc)
	return string(r[:previewKeep]) + "..."
}

// ToggleCompletion flips the completed flag of the task and saves it. When
// the store rejects the update the flag is restored and the store error is
// returned unchanged.
func (e *Engine) ToggleCompletion(ctx context.Context, id string) (model.Task, error) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Task{}, store.NotFound("toggle completion", fmt.Errorf("task %s", id))
	}
	prev := e.tasks[i]
	e.tasks[i].Completed = !prev.Completed

	updated, err := e.store.UpdateTask(ctx, e.tasks[i])
	if err != nil {
		e.tasks[i] = prev
		log.Printf("toggle of task %s rolled back: %v", id, err)
		return prev, err
	}
	e.tasks[i] = updated
	return updated, nil
}

// BeginToggle returns the task as it should be saved after a completion
// toggle, without changing local state. Pair it with ApplyUpdate once the
// store call finishes.
func (e *Engine) BeginToggle(id string) (model.Task, error) {
	t, ok := e.Task(id)
	if !ok {
		return model.Task{}, store.NotFound("toggle completion", fmt.Errorf("task %s", id))
	}
	t.Completed = !t.Completed
	return t, nil
}

// ApplyUpdate records the outcome of an UpdateTask call. Local state only
// changes on success. A task dropped locally while the call was in flight
// (by a reload or delete) is reported as not found.
func (e *Engine) ApplyUpdate(t model.Task, err error) error {
	if err != nil {
		return err
	}
	i := e.indexOf(t.ID)
	if i < 0 {
		return store.NotFound("update task", fmt.Errorf("task %s is no longer loaded", t.ID))
	}
	e.tasks[i] = t
	return nil
}

// DeleteTask deletes the task in the store and then drops it locally,
// returning the removed task.
func (e *Engine) DeleteTask(ctx context.Context, id string) (model.Task, error) {
	if e.indexOf(id) < 0 {
		return model.Task{}, store.NotFound("delete task", fmt.Errorf("task %s", id))
	}
	return e.ApplyDelete(id, e.store.DeleteTask(ctx, id))
}

// ApplyDelete records the outcome of a DeleteTask call.
func (e *Engine) ApplyDelete(id string, err error) (model.Task, error) {
	if err != nil {
		return model.Task{}, err
	}
	i := e.indexOf(id)
	if i < 0 {
		return model.Task{}, store.NotFound("delete task", fmt.Errorf("task %s", id))
	}
	removed := e.tasks[i]
	e.tasks = append(e.tasks[:i:i], e.tasks[i+1:]...)
	return removed, nil
}

// CreateTask validates t, saves it for the engine's owner and appends the
// stored copy locally.
func (e *Engine) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t = model.Normalize(t)
	if err := model.Validate(t); err != nil {
		return model.Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.OwnerID = e.owner

	created, err := e.store.CreateTask(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	e.tasks = append(e.tasks, created)
	return created, nil
}

// UpdateTask validates an edited task and saves it. The task must already be
// loaded; ownership and creation time are kept from the loaded copy.
func (e *Engine) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t = model.Normalize(t)
	if err := model.Validate(t); err != nil {
		return model.Task{}, err
	}
	cur, ok := e.Task(t.ID)
	if !ok {
		return model.Task{}, store.NotFound("update task", fmt.Errorf("task %s", t.ID))
	}
	t.OwnerID = cur.OwnerID
	t.CreatedAt = cur.CreatedAt

	updated, err := e.store.UpdateTask(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	return updated, e.ApplyUpdate(updated, nil)
}

// Bucket is one slice of the completion report.
type Bucket struct {
	Name  string
	Count int
}

// Report holds buckets in order of first occurrence.
type Report struct {
	Buckets []Bucket
}

// Counts returns the report as a map from bucket name to count.
func (r Report) Counts() map[string]int {
	m := make(map[string]int, len(r.Buckets))
	for _, b := range r.Buckets {
		m[b.Name] = b.Count
	}
	return m
}

func (r Report) Total() int {
	n := 0
	for _, b := range r.Buckets {
		n += b.Count
	}
	return n
}

// ReportCounts aggregates the unfiltered task set: completed tasks count
// towards CompleteBucket, the rest towards their category.
func (e *Engine) ReportCounts() Report {
	var r Report
	pos := make(map[string]int)
	for _, t := range e.tasks {
		key := t.Category
		if t.Completed {
			key = CompleteBucket
		}
		i, ok := pos[key]
		if !ok {
			i = len(r.Buckets)
			pos[key] = i
			r.Buckets = append(r.Buckets, Bucket{Name: key})
		}
		r.Buckets[i].Count++
	}
	return r
}

func (e *Engine) indexOf(id string) int {
	for i, t := range e.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
