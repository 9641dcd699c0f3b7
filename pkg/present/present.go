// Package present turns engine output into something a person can read and
// collects their confirmations.
package present

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harrisonrobin/evertask/pkg/auth"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/report"
	"github.com/harrisonrobin/evertask/pkg/store"
	"github.com/harrisonrobin/evertask/pkg/view"
)

// Presenter is the capability set a UI provides to the engine's callers.
type Presenter interface {
	RenderRows(rows []model.Task) error
	RenderChart(r view.Report) error
	PromptConfirm(msg string) bool
	ShowError(err error)
}

// Terminal is a line-oriented Presenter for the command line.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

var _ Presenter = (*Terminal)(nil)

func NewTerminal(in io.Reader, out, errOut io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, errOut: errOut}
}

// Row returns the display cells for a task, in view.Columns order.
func Row(t model.Task) []string {
	marker := "x"
	if t.Completed {
		marker = "✓"
	}
	due := t.DueDate
	if t.DueTime != "" && t.DueTime != model.DefaultDueTime {
		due += " " + t.DueTime
	}
	return []string{marker, t.Title, due, view.Preview(t.Description), fmt.Sprint(t.Priority), t.Category}
}

func (p *Terminal) RenderRows(rows []model.Task) error {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	headers := []string{"ID"}
	for _, c := range view.Columns {
		headers = append(headers, c.Header())
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, t := range rows {
		fmt.Fprintln(tw, shortID(t.ID)+"\t"+strings.Join(Row(t), "\t"))
	}
	return tw.Flush()
}

// RenderChart prints the report as a horizontal bar per bucket.
func (p *Terminal) RenderChart(r view.Report) error {
	slices := report.Slices(r)
	if len(slices) == 0 {
		_, err := fmt.Fprintln(p.out, "No tasks to report.")
		return err
	}
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for _, s := range slices {
		bar := strings.Repeat("█", int(s.Percent/100*40+0.5))
		fmt.Fprintf(tw, "%s\t%d\t%5.1f%%\t%s\n", s.Label, s.Count, s.Percent, bar)
	}
	return tw.Flush()
}

// PromptConfirm asks a yes/no question; anything but y or yes is no.
func (p *Terminal) PromptConfirm(msg string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", msg)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (p *Terminal) ShowError(err error) {
	fmt.Fprintln(p.errOut, "Error:", Message(err))
}

// Message maps an error to the text shown to the user.
func Message(err error) string {
	var (
		verr *model.ValidationError
		ferr *model.FormatError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &ferr):
		return "cannot sort: " + ferr.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "no such task or user"
	case errors.Is(err, store.ErrConflict):
		return "that already exists"
	case errors.Is(err, store.ErrUnavailable):
		return "the task store is unavailable, try again later (" + err.Error() + ")"
	default:
		return err.Error()
	}
}

// shortID trims uuids to their first block for display; ids are matched by
// prefix on input.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
