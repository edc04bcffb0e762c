package table

import (
	"errors"
	"testing"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, rows [][]string) TextTable {
	t.Helper()
	tbl, err := NewTextTable(rows)
	require.NoError(t, err)
	return tbl
}

func TestNewTextTable_RejectsRagged(t *testing.T) {
	_, err := NewTextTable([][]string{{"a", "b"}, {"c"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTable))
}

func TestNewTextTable_CopiesInput(t *testing.T) {
	rows := [][]string{{"1", "2"}}
	tbl := mustTable(t, rows)
	rows[0][0] = "changed"
	assert.Equal(t, "1", tbl.At(0, 0))
}

func TestNewRegion(t *testing.T) {
	r, err := NewRegion(Index{Row: 1, Col: 2}, Index{Row: 3, Col: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rows())
	assert.Equal(t, 3, r.Cols())
	assert.True(t, r.Contains(Index{Row: 2, Col: 3}))
	assert.False(t, r.Contains(Index{Row: 0, Col: 3}))

	_, err = NewRegion(Index{Row: 3, Col: 0}, Index{Row: 1, Col: 0})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRegion))

	_, err = NewRegion(Index{Row: 0, Col: 2}, Index{Row: 1, Col: 1})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRegion))
}

func TestSelectNumericRegion_CustomDiscriminator(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"1", "1", "0", "0", "0"},
		{"1", "1", "1", "0x0", "0"},
		{"0", "1", "1", "1", "1"},
		{"0", "1", "1", "1", "1"},
		{"0", "1", "1", "1", "1"},
	})

	region, err := SelectNumericRegion(tbl, func(s string) bool { return s == "1" })
	require.NoError(t, err)
	assert.Equal(t, Index{Row: 2, Col: 1}, region.UpperLeft)
	assert.Equal(t, Index{Row: 4, Col: 4}, region.LowerRight)
}

func TestSelectNumericRegion(t *testing.T) {
	tests := []struct {
		name  string
		rows  [][]string
		upper Index
		lower Index
	}{
		{
			name: "header row and label column",
			rows: [][]string{
				{"sample", "2theta", "I"},
				{"a", "10", "100"},
				{"b", "11", "120"},
				{"c", "12", "90"},
			},
			upper: Index{Row: 1, Col: 1},
			lower: Index{Row: 3, Col: 2},
		},
		{
			name: "preamble above two columns",
			rows: [][]string{
				{"Instrument X", ""},
				{"angle", "counts"},
				{"10.0", "5"},
				{"10.5", "6"},
				{"11.0", "7"},
				{"11.5", "8"},
			},
			upper: Index{Row: 2, Col: 0},
			lower: Index{Row: 5, Col: 1},
		},
		{
			name: "fully numeric",
			rows: [][]string{
				{"1", "2"},
				{"3", "4"},
			},
			upper: Index{Row: 0, Col: 0},
			lower: Index{Row: 1, Col: 1},
		},
		{
			name: "wide horizontal table",
			rows: [][]string{
				{"x", "10", "20", "30", "40", "50"},
				{"y", "1", "2", "3", "4", "5"},
			},
			upper: Index{Row: 0, Col: 1},
			lower: Index{Row: 1, Col: 5},
		},
		{
			name: "single cell",
			rows: [][]string{
				{"a", "b"},
				{"c", " 4.5 "},
			},
			upper: Index{Row: 1, Col: 1},
			lower: Index{Row: 1, Col: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, err := SelectNumericRegion(mustTable(t, tt.rows), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.upper, region.UpperLeft)
			assert.Equal(t, tt.lower, region.LowerRight)
		})
	}
}

func TestSelectNumericRegion_NoNumericData(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"empty", nil},
		{"text only", [][]string{{"a", "b"}, {"c", "d"}}},
		{"lower right text", [][]string{{"1", "2"}, {"3", "end"}}},
		{"nan token", [][]string{{"NaN"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectNumericRegion(mustTable(t, tt.rows), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))
		})
	}
}

func TestSplit_Vertical(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"Instrument X", "", ""},
		{"run 7", "", ""},
		{"2theta", "sample A", "sample B"},
		{"10", "1", "4"},
		{"20", "2", "5"},
		{"30", "3", "6"},
	})

	nt, region, err := Parse(tbl, Vertical)
	require.NoError(t, err)
	assert.Equal(t, Index{Row: 3, Col: 0}, region.UpperLeft)
	assert.Equal(t, "Instrument X\nrun 7", nt.Preamble)
	assert.Equal(t, []string{"2theta", "sample A", "sample B"}, nt.Headers)
	assert.Equal(t, [][]float64{{10, 20, 30}, {1, 2, 3}, {4, 5, 6}}, nt.Data)
	assert.Len(t, nt.Headers, len(nt.Data))
}

func TestSplit_Horizontal(t *testing.T) {
	tbl := mustTable(t, [][]string{
		{"header line", "", "", ""},
		{"x", "10", "20", "30"},
		{"y", "5", "6", "7"},
	})

	nt, _, err := Parse(tbl, Horizontal)
	require.NoError(t, err)
	assert.Equal(t, "header line", nt.Preamble)
	assert.Equal(t, []string{"x", "y"}, nt.Headers)
	assert.Equal(t, [][]float64{{10, 20, 30}, {5, 6, 7}}, nt.Data)
}

func TestSplit_NoHeaders(t *testing.T) {
	tbl := mustTable(t, [][]string{{"1", "2"}, {"3", "4"}})
	nt, _, err := Parse(tbl, Vertical)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, nt.Headers)
	assert.Empty(t, nt.Preamble)
}

func TestSplit_DiscriminatorMismatch(t *testing.T) {
	tbl := mustTable(t, [][]string{{"a", "b"}, {"c", "d"}})
	region, err := SelectNumericRegion(tbl, func(string) bool { return true })
	require.NoError(t, err)

	_, err = Split(tbl, region, Vertical)
	assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))
}

func TestOrientation_String(t *testing.T) {
	assert.Equal(t, "vertical", Vertical.String())
	assert.Equal(t, "horizontal", Horizontal.String())
	assert.Equal(t, "unknown", OrientationUnknown.String())
}

func TestParseOrientation(t *testing.T) {
	for in, want := range map[string]Orientation{
		"":           OrientationUnknown,
		"auto":       OrientationUnknown,
		"Vertical":   Vertical,
		" rows ":     Horizontal,
		"horizontal": Horizontal,
	} {
		got, err := ParseOrientation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOrientation("diagonal")
	assert.Error(t, err)
}
