package parsers

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/table"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

const maxPlausibleTwoTheta = 180.0

// qHeader matches x-axis headers that name a momentum-transfer axis
var qHeader = regexp.MustCompile(`(?i)(^|[^a-z])q([^a-z]|$)|1/a|a\^-1|å\^-1|å-1|1/å|nm\^-1|1/nm`)

// twoThetaHeader matches x-axis headers that name a two-theta axis
var twoThetaHeader = regexp.MustCompile(`2\s*-?\s*(θ|theta|th)|two\s*-?\s*theta|tth|angle|deg|°`)

// TabularDecoder parses delimited text tables of one x axis and one or more
// intensity series
type TabularDecoder struct {
	config *ParserConfig
}

// NewTabularDecoder creates a new tabular decoder
func NewTabularDecoder(config *ParserConfig) *TabularDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &TabularDecoder{
		config: config,
	}
}

// Extract reads a CSV-like file and returns one record per intensity series
func (d *TabularDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	text, err := readText(path, d.config.MaxFileSize)
	if err != nil {
		return nil, err
	}

	rows, err := readDelimited(ctx, strings.NewReader(text), sniffDelimiter(text))
	if err != nil {
		return nil, err
	}

	return extractTable(ctx, d.config, rows, path, format, opts)
}

// Formats returns the format names this decoder handles
func (d *TabularDecoder) Formats() []string {
	return []string{domain.FormatCSV.Name}
}

// sniffDelimiter picks the separator that occurs most in the first lines
func sniffDelimiter(text string) rune {
	candidates := []rune{',', ';', '\t'}
	counts := make(map[rune]int, len(candidates))

	lines := strings.SplitN(text, "\n", 21)
	if len(lines) > 20 {
		lines = lines[:20]
	}
	for _, line := range lines {
		for _, c := range candidates {
			counts[c] += strings.Count(line, string(c))
		}
	}

	best := ','
	for _, c := range candidates {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// readDelimited reads every record, tolerating ragged rows and stray quotes
func readDelimited(ctx context.Context, r io.Reader, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields per record
	csvReader.LazyQuotes = true

	var rows [][]string
	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.FileParseError(err, "failed to read delimited row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rectangular pads ragged rows, drops blank rows and trims trailing empty
// columns so the result can back a TextTable
func rectangular(rows [][]string, skipEmptyRows bool) [][]string {
	kept := make([][]string, 0, len(rows))
	width := 0
	for _, row := range rows {
		if isEmptyRow(row) {
			if skipEmptyRows {
				continue
			}
		}
		trimmed := make([]string, len(row))
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
		}
		kept = append(kept, trimmed)
	}

	// Trailing blank rows never carry data.
	for len(kept) > 0 && isEmptyRow(kept[len(kept)-1]) {
		kept = kept[:len(kept)-1]
	}

	for _, row := range kept {
		w := len(row)
		for w > 0 && row[w-1] == "" {
			w--
		}
		if w > width {
			width = w
		}
	}

	out := make([][]string, len(kept))
	for i, row := range kept {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// isEmptyRow checks if a row contains only empty strings
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// extractTable runs region selection and orientation detection over raw
// rows and builds one record per intensity series
func extractTable(ctx context.Context, config *ParserConfig, rows [][]string, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	tbl, err := table.NewTextTable(rectangular(rows, config.SkipEmptyRows))
	if err != nil {
		return nil, err
	}

	region, err := table.SelectNumericRegion(tbl, table.IsNumeric)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns, err := table.Split(tbl, region, table.Vertical)
	if err != nil {
		return nil, err
	}

	orientation, err := detectOrientation(region, columns, opts.Orientation)
	if err != nil {
		return nil, err
	}

	nt := columns
	if orientation == table.Horizontal {
		if nt, err = table.Split(tbl, region, table.Horizontal); err != nil {
			return nil, err
		}
	}

	if len(nt.Data) < 2 {
		return nil, apperrors.NoNumericData("table needs an x axis and at least one intensity series").
			WithDetails("series", len(nt.Data))
	}

	x := nt.Data[0]
	q := isQAxis(nt.Headers[0], opts.XUnit)
	if q {
		if x, err = qToTwoTheta(x, config.ReferenceWavelength); err != nil {
			return nil, err
		}
	}
	// Neither the header nor the caller named the unit.
	assumed := !q && opts.XUnit == XUnitAuto &&
		!twoThetaHeader.MatchString(normalizeHeader(nt.Headers[0]))

	records := make([]domain.ParsedRecord, 0, len(nt.Data)-1)
	for i := 1; i < len(nt.Data); i++ {
		series, err := domain.NewRawSeries(append([]float64(nil), x...), nt.Data[i])
		if err != nil {
			return nil, err
		}

		var meta domain.Metadata
		if nt.Headers[i] != "" {
			meta.SetRaw("column", nt.Headers[i])
		}
		if nt.Headers[0] != "" {
			meta.SetRaw("x_header", nt.Headers[0])
		}
		if nt.Preamble != "" {
			meta.SetRaw("preamble", nt.Preamble)
		}
		meta.SetRaw("orientation", orientation.String())
		if assumed {
			meta.SetRaw("x_unit_assumed", XUnitTwoTheta.String())
		}

		records = append(records, domain.NewParsedRecord(series, path, format, meta))
	}

	return records, nil
}

// detectOrientation decides whether series run down columns or along rows.
// A two-wide region is vertical and a two-high region horizontal; otherwise
// the caller's choice applies, and failing that the axis candidate that
// looks like a two-theta ramp wins.
func detectOrientation(region table.Region, columns table.NumericalTable, requested table.Orientation) (table.Orientation, error) {
	switch {
	case region.Cols() == 2:
		return table.Vertical, nil
	case region.Rows() == 2:
		return table.Horizontal, nil
	case requested != table.OrientationUnknown:
		return requested, nil
	}

	firstColumn := columns.Data[0]
	firstRow := make([]float64, len(columns.Data))
	for i, col := range columns.Data {
		firstRow[i] = col[0]
	}

	vertical := plausibleAxis(firstColumn)
	horizontal := plausibleAxis(firstRow)

	switch {
	case vertical && !horizontal:
		return table.Vertical, nil
	case horizontal && !vertical:
		return table.Horizontal, nil
	default:
		return table.OrientationUnknown, apperrors.AmbiguousOrientation("cannot infer whether series run along rows or columns").
			WithDetails("rows", region.Rows()).
			WithDetails("cols", region.Cols())
	}
}

// plausibleAxis accepts strictly increasing values no larger than 180
func plausibleAxis(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return values[len(values)-1] <= maxPlausibleTwoTheta
}

func isQAxis(header string, unit XUnit) bool {
	switch unit {
	case XUnitQ:
		return true
	case XUnitTwoTheta:
		return false
	default:
		return qHeader.MatchString(normalizeHeader(header))
	}
}

// qToTwoTheta converts momentum transfer in 1/angstrom to two-theta degrees
// using 2θ = 2·asin(Q·λ/4π)
func qToTwoTheta(q []float64, wavelength float64) ([]float64, error) {
	out := make([]float64, len(q))
	for i, v := range q {
		s := v * wavelength / (4 * math.Pi)
		if s < 0 || s > 1 {
			return nil, apperrors.InvalidSeries("Q value is out of range for the reference wavelength").
				WithDetails("q", v).
				WithDetails("wavelength", wavelength)
		}
		out[i] = 2 * math.Asin(s) * 180 / math.Pi
	}
	return out, nil
}
