package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/evertask/pkg/orgmode"
	"github.com/harrisonrobin/evertask/pkg/present"
	"github.com/harrisonrobin/evertask/pkg/report"
)

func newReportCmd() *cobra.Command {
	var pdfPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show incomplete tasks per category and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r := s.engine.ReportCounts()
			if err := terminal(cmd).RenderChart(r); err != nil {
				return err
			}
			if pdfPath == "" {
				return nil
			}

			f, err := os.Create(pdfPath)
			if err != nil {
				return fmt.Errorf("could not create %s: %w", pdfPath, err)
			}
			if err := report.WritePDF(f, r, "Tasks for "+s.cfg.User); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", pdfPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also write the chart as a PDF to this file")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.org...",
		Short: "Import TODO and DONE headings from Org-mode files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var imported, skipped int
			for _, path := range args {
				tasks, err := orgmode.ParseFile(path)
				if err != nil {
					return fmt.Errorf("could not read %s: %w", path, err)
				}
				for _, t := range tasks {
					if _, err := s.engine.CreateTask(ctx, t); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %q: %s\n", t.Title, present.Message(err))
						skipped++
						continue
					}
					imported++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks, skipped %d\n", imported, skipped)
			return nil
		},
	}
}
