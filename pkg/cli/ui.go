package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/evertask/pkg/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit tasks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			return tui.Run(ctx, s.engine, s.backend.tasks)
		},
	}
}
