package table

import (
	"strings"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// Orientation says whether series run down columns or along rows
type Orientation int

const (
	OrientationUnknown Orientation = iota
	Vertical
	Horizontal
)

func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "unknown"
	}
}

// ParseOrientation reads an orientation name; "" and "auto" mean unknown
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "unknown":
		return OrientationUnknown, nil
	case "vertical", "columns":
		return Vertical, nil
	case "horizontal", "rows":
		return Horizontal, nil
	default:
		return OrientationUnknown, apperrors.Newf(apperrors.ErrCodeInvalidTable, "unknown orientation %q", s)
	}
}

// NumericalTable is a table split into preamble text, one header per series
// and the numeric series themselves.
type NumericalTable struct {
	Preamble string
	Headers  []string
	Data     [][]float64
}

// SelectNumericRegion finds the numeric block anchored at the lower-right
// cell. A square seed is grown up and to the left, then the region is
// extended upward over the seed's columns and finally leftward over the
// resulting rows. Upward expansion runs first, so a stray token can cut the
// region short on one axis.
func SelectNumericRegion(t TextTable, isNumeric Discriminator) (Region, error) {
	if isNumeric == nil {
		isNumeric = IsNumeric
	}
	if t.Empty() {
		return Region{}, apperrors.NoNumericData("table is empty")
	}

	bottom, right := t.Rows()-1, t.Cols()-1
	if !isNumeric(t.At(bottom, right)) {
		return Region{}, apperrors.NoNumericData("lower-right cell is not numeric")
	}

	top, left := bottom, right
	for top > 0 && left > 0 {
		if !rowPasses(t, isNumeric, top-1, left-1, right) ||
			!colPasses(t, isNumeric, left-1, top-1, bottom) {
			break
		}
		top--
		left--
	}

	for top > 0 && rowPasses(t, isNumeric, top-1, left, right) {
		top--
	}
	for left > 0 && colPasses(t, isNumeric, left-1, top, bottom) {
		left--
	}

	return NewRegion(Index{Row: top, Col: left}, Index{Row: bottom, Col: right})
}

func rowPasses(t TextTable, isNumeric Discriminator, row, fromCol, toCol int) bool {
	for c := fromCol; c <= toCol; c++ {
		if !isNumeric(t.At(row, c)) {
			return false
		}
	}
	return true
}

func colPasses(t TextTable, isNumeric Discriminator, col, fromRow, toRow int) bool {
	for r := fromRow; r <= toRow; r++ {
		if !isNumeric(t.At(r, col)) {
			return false
		}
	}
	return true
}

// Split cuts the table at region. Vertical tables produce one series per
// column with headers from the row above the region; horizontal tables one
// series per row with headers from the column left of it. The preamble is
// every row above the header row.
func Split(t TextTable, region Region, orientation Orientation) (NumericalTable, error) {
	if region.LowerRight.Row >= t.Rows() || region.LowerRight.Col >= t.Cols() {
		return NumericalTable{}, apperrors.Newf(apperrors.ErrCodeInvalidRegion,
			"region exceeds %dx%d table", t.Rows(), t.Cols())
	}

	ul, lr := region.UpperLeft, region.LowerRight
	var out NumericalTable

	preambleEnd := ul.Row
	switch orientation {
	case Horizontal:
		for r := ul.Row; r <= lr.Row; r++ {
			series := make([]float64, 0, region.Cols())
			for c := ul.Col; c <= lr.Col; c++ {
				v, err := cellValue(t, r, c)
				if err != nil {
					return NumericalTable{}, err
				}
				series = append(series, v)
			}
			header := ""
			if ul.Col > 0 {
				header = strings.TrimSpace(t.At(r, ul.Col-1))
			}
			out.Headers = append(out.Headers, header)
			out.Data = append(out.Data, series)
		}
	default:
		for c := ul.Col; c <= lr.Col; c++ {
			series := make([]float64, 0, region.Rows())
			for r := ul.Row; r <= lr.Row; r++ {
				v, err := cellValue(t, r, c)
				if err != nil {
					return NumericalTable{}, err
				}
				series = append(series, v)
			}
			header := ""
			if ul.Row > 0 {
				header = strings.TrimSpace(t.At(ul.Row-1, c))
			}
			out.Headers = append(out.Headers, header)
			out.Data = append(out.Data, series)
		}
		if preambleEnd > 0 {
			preambleEnd--
		}
	}

	lines := make([]string, 0, preambleEnd)
	for r := 0; r < preambleEnd; r++ {
		line := strings.TrimSpace(strings.Join(t.rows[r], " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	out.Preamble = strings.Join(lines, "\n")

	return out, nil
}

func cellValue(t TextTable, row, col int) (float64, error) {
	v, ok := parseFloat(t.At(row, col))
	if !ok {
		return 0, apperrors.NoNumericData("selected region holds a non-float token").
			WithDetails("row", row).
			WithDetails("col", col)
	}
	return v, nil
}

// Parse selects the numeric region with the default discriminator and splits
// the table.
func Parse(t TextTable, orientation Orientation) (NumericalTable, Region, error) {
	region, err := SelectNumericRegion(t, IsNumeric)
	if err != nil {
		return NumericalTable{}, Region{}, err
	}
	nt, err := Split(t, region, orientation)
	if err != nil {
		return NumericalTable{}, Region{}, err
	}
	return nt, region, nil
}
