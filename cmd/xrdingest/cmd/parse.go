package cmd

import (
	"fmt"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/ingest"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	parseJSON bool
	parseSave bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a single pattern file",
	Long: `Parse one file and print its records with their quality findings.

Example:
  xrdingest parse data/quartz.raw
  xrdingest parse --json data/scan.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome := app.orchestrator.ParseFile(cmd.Context(), args[0])
		if !outcome.Succeeded() {
			return apperrors.New(outcome.Failure.Code, outcome.Failure.Message).
				WithDetails("path", outcome.Path)
		}

		out := cmd.OutOrStdout()
		for _, record := range outcome.Records {
			if parseSave {
				if _, err := app.storage.SaveRecord(cmd.Context(), record); err != nil {
					return err
				}
			}

			if parseJSON {
				data, err := record.MarshalCanonical()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				continue
			}
			printRecord(cmd, record)
		}

		if !parseJSON {
			fmt.Fprintf(out, "%d record(s) from %s (%s)\n", len(outcome.Records), outcome.Path, outcome.Format)
		}
		return nil
	},
}

func printRecord(cmd *cobra.Command, record domain.ParsedRecord) {
	out := cmd.OutOrStdout()
	lo, hi := record.Series.Range()
	fmt.Fprintf(out, "%s  %d points  2θ %.3f..%.3f\n", record.ID, record.Series.Len(), lo, hi)
	for _, f := range ingest.Classify(record) {
		fmt.Fprintf(out, "    [%s] %s\n", f.Severity, f.Message)
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print records in canonical JSON")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "Store records under the output directory")
}
