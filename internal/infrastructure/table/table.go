// Package table models rectangular grids of text tokens and finds the numeric
// block inside them.
package table

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// TextTable is a rectangular grid of string tokens. It is immutable after
// construction.
type TextTable struct {
	rows [][]string
	cols int
}

// NewTextTable copies rows into a table. Rows of unequal length are
// rejected.
func NewTextTable(rows [][]string) (TextTable, error) {
	t := TextTable{rows: make([][]string, len(rows))}
	for i, row := range rows {
		if i == 0 {
			t.cols = len(row)
		} else if len(row) != t.cols {
			return TextTable{}, apperrors.Newf(apperrors.ErrCodeInvalidTable,
				"row %d has %d columns, expected %d", i, len(row), t.cols).
				WithDetails("row", i)
		}
		t.rows[i] = append([]string(nil), row...)
	}
	return t, nil
}

// Rows returns the number of rows
func (t TextTable) Rows() int {
	return len(t.rows)
}

// Cols returns the number of columns
func (t TextTable) Cols() int {
	return t.cols
}

// Empty reports whether the table has no cells
func (t TextTable) Empty() bool {
	return len(t.rows) == 0 || t.cols == 0
}

// At returns the token at row, col
func (t TextTable) At(row, col int) string {
	return t.rows[row][col]
}

// Row returns a copy of one row
func (t TextTable) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Index addresses a single cell
type Index struct {
	Row int
	Col int
}

// Region is an inclusive bounding box over a table
type Region struct {
	UpperLeft  Index
	LowerRight Index
}

// NewRegion rejects inverted or negative bounds
func NewRegion(upperLeft, lowerRight Index) (Region, error) {
	if upperLeft.Row < 0 || upperLeft.Col < 0 ||
		upperLeft.Row > lowerRight.Row || upperLeft.Col > lowerRight.Col {
		return Region{}, apperrors.Newf(apperrors.ErrCodeInvalidRegion,
			"invalid region (%d,%d)-(%d,%d)",
			upperLeft.Row, upperLeft.Col, lowerRight.Row, lowerRight.Col)
	}
	return Region{UpperLeft: upperLeft, LowerRight: lowerRight}, nil
}

// Rows returns the number of rows the region spans
func (r Region) Rows() int {
	return r.LowerRight.Row - r.UpperLeft.Row + 1
}

// Cols returns the number of columns the region spans
func (r Region) Cols() int {
	return r.LowerRight.Col - r.UpperLeft.Col + 1
}

// Contains reports whether the cell lies inside the region
func (r Region) Contains(idx Index) bool {
	return idx.Row >= r.UpperLeft.Row && idx.Row <= r.LowerRight.Row &&
		idx.Col >= r.UpperLeft.Col && idx.Col <= r.LowerRight.Col
}

// Discriminator decides whether a token counts as numeric
type Discriminator func(string) bool

// IsNumeric accepts tokens that parse as a finite float after trimming
func IsNumeric(token string) bool {
	_, ok := parseFloat(token)
	return ok
}

func parseFloat(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
