package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	standardizeSave   bool
	standardizeStored bool
)

type standardizedOutput struct {
	ID         string                    `json:"id"`
	SourceFile string                    `json:"source_file"`
	Series     domain.StandardizedSeries `json:"series"`
}

// standardizeCmd represents the standardize command
var standardizeCmd = &cobra.Command{
	Use:   "standardize [file]",
	Short: "Resample patterns onto the canonical grid",
	Long: `Parse a file and print each record resampled onto the configured
two-theta grid with intensities normalized to [0,1]. With --stored, every
record previously saved under the output directory is standardized instead.

Example:
  xrdingest standardize data/scan.xrdml
  XRD_POINT_COUNT=4096 xrdingest standardize --stored`,
	Args: func(cmd *cobra.Command, args []string) error {
		if standardizeStored {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var records []domain.ParsedRecord
		if standardizeStored {
			ids, err := app.storage.ListRecords(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				record, err := app.storage.LoadRecord(ctx, id)
				if err != nil {
					return err
				}
				records = append(records, record)
			}
		} else {
			outcome := app.orchestrator.ParseFile(ctx, args[0])
			if !outcome.Succeeded() {
				return apperrors.New(outcome.Failure.Code, outcome.Failure.Message).
					WithDetails("path", outcome.Path)
			}
			records = outcome.Records
		}

		results := make([]standardizedOutput, 0, len(records))
		for _, record := range records {
			series, err := app.standardizer.Record(record)
			if err != nil {
				return fmt.Errorf("%s: %w", record.SourceFile, err)
			}
			if standardizeSave || standardizeStored {
				if !standardizeStored {
					if _, err := app.storage.SaveRecord(ctx, record); err != nil {
						return err
					}
				}
				if _, err := app.storage.SaveStandardized(ctx, record, series); err != nil {
					return err
				}
			}
			results = append(results, standardizedOutput{
				ID:         record.ID.String(),
				SourceFile: record.SourceFile,
				Series:     series,
			})
		}

		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(standardizeCmd)
	standardizeCmd.Flags().BoolVar(&standardizeSave, "save", false, "Store the record and its standardized series")
	standardizeCmd.Flags().BoolVar(&standardizeStored, "stored", false, "Standardize every stored record")
}
