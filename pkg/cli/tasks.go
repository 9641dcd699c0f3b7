package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/view"
)

// taskFlags are the editable task fields shared by add and edit.
type taskFlags struct {
	title    string
	desc     string
	due      string
	clock    string
	priority int
	category string
}

func (f *taskFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.title, "title", "t", "", "Task title")
	fs.StringVarP(&f.desc, "desc", "d", "", "Description")
	fs.StringVar(&f.due, "due", "", "Due date, YYYY-MM-DD (default today)")
	fs.StringVar(&f.clock, "time", "", "Due time, HH:MM (default 00:00)")
	fs.IntVarP(&f.priority, "priority", "p", model.DefaultPriority, "Priority, 1 (highest) to 5")
	fs.StringVarP(&f.category, "category", "c", "", "Category (default General)")
}

// apply copies the flags that were set on the command line onto t.
func (f *taskFlags) apply(fs *pflag.FlagSet, t *model.Task) {
	if fs.Changed("title") {
		t.Title = f.title
	}
	if fs.Changed("desc") {
		t.Description = f.desc
	}
	if fs.Changed("due") {
		t.DueDate = f.due
	}
	if fs.Changed("time") {
		t.DueTime = f.clock
	}
	if fs.Changed("priority") {
		t.Priority = f.priority
	}
	if fs.Changed("category") {
		t.Category = f.category
	}
}

func newAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add [TITLE...]",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			t := model.Task{
				Title:    strings.Join(args, " "),
				DueDate:  time.Now().Format(model.DateLayout),
				Priority: model.DefaultPriority,
			}
			f.apply(cmd.Flags(), &t)
			created, err := s.engine.CreateTask(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", created.ID, created.Title)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newEditCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			t, _ := s.engine.Task(id)
			f.apply(cmd.Flags(), &t)
			updated, err := s.engine.UpdateTask(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", updated.ID, updated.Title)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		filter string
		sorts  []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List the signed-in user's tasks.

Each --sort acts like a click on that column header: the first click sorts
ascending, a second click on the same column reverses it.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			s.engine.SetFilter(filter)
			for _, name := range sorts {
				col, err := view.ParseColumn(name)
				if err != nil {
					return err
				}
				s.engine.RequestSort(col)
			}
			rows, err := s.engine.Projection()
			if err != nil {
				return err
			}
			return terminal(cmd).RenderRows(rows)
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", view.FilterAll, "Only show this category")
	cmd.Flags().StringArrayVarP(&sorts, "sort", "s", nil, "Sort by column; repeat to reverse")
	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Mark a task complete or incomplete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			t, err := s.engine.ToggleCompletion(ctx, id)
			if err != nil {
				return err
			}
			state := "incomplete"
			if t.Completed {
				state = "complete"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %q %s\n", t.Title, state)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm ID",
		Short:   "Delete a task",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			t, _ := s.engine.Task(id)
			if !yes && !terminal(cmd).PromptConfirm(fmt.Sprintf("Delete %q?", t.Title)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if _, err := s.engine.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", t.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
