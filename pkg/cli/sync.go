package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/evertask/pkg/auth"
	"github.com/harrisonrobin/evertask/pkg/config"
	"github.com/harrisonrobin/evertask/pkg/google"
)

func newSyncCmd() *cobra.Command {
	var (
		calendarName string
		save         bool
		reauth       bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror tasks to a Google Calendar",
		Long: `Mirror the signed-in user's tasks to a Google Calendar.

Each task becomes a 30 minute event at its due time. Completed tasks are
prefixed with ✓ and overdue ones with !. Events of deleted tasks are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			name := s.cfg.Calendar
			if calendarName != "" {
				name = calendarName
			}
			if save {
				if err := config.Update(func(c *config.Config) { c.Calendar = name }); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", name)
			}
			if reauth {
				if err := auth.RemoveGoogleToken(); err != nil {
					return err
				}
			}

			dir, err := config.GetXdgHome()
			if err != nil {
				return err
			}
			client, err := google.NewClient(ctx, name)
			if err != nil {
				return err
			}
			mirror, err := google.OpenMirror(client, dir, s.engine.Owner())
			if err != nil {
				return err
			}
			mirror.Location = time.Local
			res, err := mirror.Sync(ctx, s.engine.Tasks())
			fmt.Fprintf(cmd.OutOrStdout(), "Synced with %q: %s\n", name, res)
			return err
		},
	}
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Google Calendar name to sync with (overrides config)")
	cmd.Flags().BoolVar(&save, "save", false, "Remember the calendar name as the default")
	cmd.Flags().BoolVar(&reauth, "reauth", false, "Forget the Google token and authorize again")
	return cmd
}
