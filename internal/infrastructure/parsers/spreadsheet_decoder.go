package parsers

import (
	"context"
	"fmt"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetDecoder parses Excel workbooks through the tabular pipeline
type SpreadsheetDecoder struct {
	config *ParserConfig
}

// NewSpreadsheetDecoder creates a new spreadsheet decoder
func NewSpreadsheetDecoder(config *ParserConfig) *SpreadsheetDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &SpreadsheetDecoder{
		config: config,
	}
}

// Extract reads the first sheet and returns one record per intensity series
func (d *SpreadsheetDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	if err := checkSize(path, d.config.MaxFileSize); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.FileParseError(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, sheet, err := firstSheetRows(f)
	if err != nil {
		return nil, err
	}

	records, err := extractTable(ctx, d.config, rows, path, format, opts)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Metadata.SetRaw("sheet", sheet)
	}
	return records, nil
}

// firstSheetRows extracts all rows from the first sheet of a workbook
func firstSheetRows(f *excelize.File) ([][]string, string, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, "", apperrors.NoNumericData("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, "", apperrors.FileParseError(err, fmt.Sprintf("failed to get rows from sheet %s", sheetName))
	}
	if len(rows) == 0 {
		return nil, "", apperrors.NoNumericData("sheet is empty").WithDetails("sheet", sheetName)
	}
	return rows, sheetName, nil
}

// Formats returns the format names this decoder handles
func (d *SpreadsheetDecoder) Formats() []string {
	return []string{domain.FormatXLSX.Name, domain.FormatXLS.Name}
}
