// Package cli wires the evertask commands.
package cli

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/evertask/pkg/present"
)

// NewRootCmd builds the full command tree.
func NewRootCmd(version string) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "evertask",
		Short: "evertask - a personal task manager",
		Long: `evertask keeps your tasks in a local or shared database.

List, sort and filter them from the command line or the interactive view,
see where your time goes with a category report, import Org-mode files and
mirror everything to a Google Calendar.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newAddCmd(),
		newEditCmd(),
		newListCmd(),
		newToggleCmd(),
		newRemoveCmd(),
		newReportCmd(),
		newImportCmd(),
		newSyncCmd(),
		newTUICmd(),
	)
	return root
}

// Execute runs the command line and reports a failure on stderr.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd(version)
	if err := root.ExecuteContext(ctx); err != nil {
		present.NewTerminal(os.Stdin, os.Stdout, os.Stderr).ShowError(err)
		return err
	}
	return nil
}

func terminal(cmd *cobra.Command) *present.Terminal {
	return present.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}
