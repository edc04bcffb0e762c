package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runsLimit int

var errNoDatabase = errors.New("run history needs a database; set DB_ENABLED=true")

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored build runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent build runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.runs == nil {
			return errNoDatabase
		}

		runs, err := app.runs.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tCREATED\tSTATUS\tFILES\tFAILED\tRECORDS\tDIRECTORY")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Status,
				r.TotalFiles, r.TotalFiles-r.ParsedFiles, r.TotalRecords, r.Directory)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its failed files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.runs == nil {
			return errNoDatabase
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}

		run, err := app.runs.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s (%s) on %s\n", run.ID, run.Status, run.Directory)
		fmt.Fprintf(out, "  files: %d total, %d parsed\n", run.TotalFiles, run.ParsedFiles)
		fmt.Fprintf(out, "  records: %d (%d critical, %d error, %d warning)\n",
			run.TotalRecords, run.CriticalCount, run.ErrorCount, run.WarningCount)

		failed, err := app.runs.ListFailedFiles(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, f := range failed {
			fmt.Fprintf(out, "  - %s [%s] %s\n", f.Path, f.Code, f.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")
}
