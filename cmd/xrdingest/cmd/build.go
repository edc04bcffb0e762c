package cmd

import (
	"fmt"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/ingest"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	buildStrict  bool
	buildFormats []string
	buildSave    bool
	buildDedup   bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "Parse every pattern under a directory",
	Long: `Walk a directory tree, parse every supported file and print a
database report. Failed files are listed in the report and do not stop the
build unless --strict is given.

Example:
  xrdingest build data/
  xrdingest build --format cif,csv --dedup --save data/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := uuid.New()

		records, report, buildErr := app.assembler.Build(ctx, args[0], ingest.BuildOptions{
			Formats:     buildFormats,
			Strict:      buildStrict || app.cfg.Parsing.Strict,
			Deduplicate: buildDedup,
			RunID:       runID,
		})

		status := "completed"
		switch {
		case buildErr != nil:
			status = "aborted"
		case len(report.FailedFiles) > 0:
			status = "completed_with_failures"
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, report.String())

		if buildSave {
			for _, record := range records {
				if _, err := app.storage.SaveRecord(ctx, record); err != nil {
					return err
				}
			}
			dir, err := app.storage.SaveReport(ctx, runID, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSaved %d record(s) and report to %s\n", len(records), dir)
		}

		if app.runs != nil {
			if _, err := app.runs.SaveRun(ctx, runID, report, status); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "\nRun %s %s: %s\n", runID, status, ingest.Summary(report))
		return buildErr
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "Abort on the first failed file")
	buildCmd.Flags().StringSliceVar(&buildFormats, "format", nil, "Only parse these formats (names or suffixes)")
	buildCmd.Flags().BoolVar(&buildSave, "save", false, "Store records and the report under the output directory")
	buildCmd.Flags().BoolVar(&buildDedup, "dedup", false, "Drop records whose series repeats an earlier one")
}
