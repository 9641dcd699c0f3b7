package view

import (
	"fmt"
	"strings"
)

// Column identifies a sortable column of the task table.
type Column int

const (
	ColumnNone Column = iota
	ColumnCompleted
	ColumnTitle
	ColumnDueDate
	ColumnDescription
	ColumnPriority
	ColumnCategory
)

// Columns lists the table columns in display order.
var Columns = []Column{ColumnCompleted, ColumnTitle, ColumnDueDate, ColumnDescription, ColumnPriority, ColumnCategory}

func (c Column) String() string {
	switch c {
	case ColumnCompleted:
		return "Completed"
	case ColumnTitle:
		return "Title"
	case ColumnDueDate:
		return "DueDate"
	case ColumnDescription:
		return "Description"
	case ColumnPriority:
		return "Priority"
	case ColumnCategory:
		return "Category"
	default:
		return "none"
	}
}

// Header is the label shown above the column.
func (c Column) Header() string {
	switch c {
	case ColumnCompleted:
		return "✓/x"
	case ColumnDueDate:
		return "Due Date"
	default:
		return c.String()
	}
}

// ParseColumn accepts a column name or header label, ignoring case, spaces
// and underscores.
func ParseColumn(s string) (Column, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "", "none":
		return ColumnNone, nil
	case "completed", "complete", "done", "✓/x":
		return ColumnCompleted, nil
	case "title":
		return ColumnTitle, nil
	case "duedate", "due", "date":
		return ColumnDueDate, nil
	case "description", "desc":
		return ColumnDescription, nil
	case "priority", "prio":
		return ColumnPriority, nil
	case "category", "cat":
		return ColumnCategory, nil
	}
	return ColumnNone, fmt.Errorf("unknown column %q", s)
}

// Direction is the sort order of the active column.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}
