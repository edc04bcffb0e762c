package parsers

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/table"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractCSV(t *testing.T, content string, opts Options) ([]domain.ParsedRecord, error) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "pattern.csv", []byte(content))
	return NewTabularDecoder(nil).Extract(context.Background(), path, domain.FormatCSV, opts)
}

func TestTabularDecoder_TwoColumnsWithPreamble(t *testing.T) {
	content := `Sample: quartz
Instrument: X
2theta,Intensity
10,1
20,2
30,3
`
	records, err := extractCSV(t, content, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, []float64{10, 20, 30}, r.Series.X)
	assert.Equal(t, []float64{1, 2, 3}, r.Series.Y)
	assert.Equal(t, "Intensity", r.Metadata.Raw["column"])
	assert.Equal(t, "Sample: quartz\nInstrument: X", r.Metadata.Raw["preamble"])
	assert.Equal(t, "vertical", r.Metadata.Raw["orientation"])
}

func TestTabularDecoder_MultipleSeries(t *testing.T) {
	content := "angle;A;B\n10;1;4\n20;2;5\n30;3;6\n40;4;7\n"

	records, err := extractCSV(t, content, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Metadata.Raw["column"])
	assert.Equal(t, "B", records[1].Metadata.Raw["column"])
	assert.Equal(t, []float64{10, 20, 30, 40}, records[1].Series.X)
	assert.Equal(t, []float64{4, 5, 6, 7}, records[1].Series.Y)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestTabularDecoder_Horizontal(t *testing.T) {
	records, err := extractCSV(t, "x,10,20,30,40\ny,1,2,3,4\n", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{10, 20, 30, 40}, records[0].Series.X)
	assert.Equal(t, "y", records[0].Metadata.Raw["column"])
	assert.Equal(t, "horizontal", records[0].Metadata.Raw["orientation"])
}

func TestTabularDecoder_RaggedRowsAndTrailingDelimiters(t *testing.T) {
	content := "comment only\n2theta,I,\n10,1,\n20,2,\n\n30,3,\n\n\n"

	records, err := extractCSV(t, content, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{10, 20, 30}, records[0].Series.X)
}

func TestTabularDecoder_Orientation(t *testing.T) {
	ambiguous := "5,3,1\n4,2,9\n7,8,6\n"

	_, err := extractCSV(t, ambiguous, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAmbiguousOrientation))

	records, err := extractCSV(t, ambiguous, Options{Orientation: table.Vertical})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{5, 4, 7}, records[0].Series.X)

	records, err = extractCSV(t, ambiguous, Options{Orientation: table.Horizontal})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{5, 3, 1}, records[0].Series.X)
}

func TestTabularDecoder_OrientationHeuristic(t *testing.T) {
	// First row is a two-theta ramp, first column is not monotonic.
	content := "10,20,30,40\n5,9,2,1\n4,3,8,6\n"

	records, err := extractCSV(t, content, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{10, 20, 30, 40}, records[0].Series.X)
	assert.Equal(t, []float64{4, 3, 8, 6}, records[1].Series.Y)
}

func TestTabularDecoder_QSpace(t *testing.T) {
	records, err := extractCSV(t, "q (1/A),I\n1.0,5\n2.0,6\n3.0,7\n", Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	wavelength := DefaultParserConfig().ReferenceWavelength
	for i, q := range []float64{1, 2, 3} {
		expected := 2 * math.Asin(q*wavelength/(4*math.Pi)) * 180 / math.Pi
		assert.InDelta(t, expected, records[0].Series.X[i], 1e-9)
	}

	_, err = extractCSV(t, "x,I\n10,5\n20,6\n", Options{XUnit: XUnitQ})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSeries))

	records, err = extractCSV(t, "q,I\n1,5\n2,6\n", Options{XUnit: XUnitTwoTheta})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, records[0].Series.X)
}

func TestTabularDecoder_AssumedUnit(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
		assumed bool
	}{
		{name: "two-theta header", content: "2theta,I\n10,1\n20,2\n"},
		{name: "theta symbol", content: "2θ (°),I\n10,1\n20,2\n"},
		{name: "angle header", content: "Angle,I\n10,1\n20,2\n"},
		{name: "q header", content: "q,I\n1,1\n2,2\n"},
		{name: "unnamed axis", content: "x,I\n0.5,1\n8,2\n", assumed: true},
		{name: "headerless", content: "0.5,1\n4,2\n8,3\n", assumed: true},
		{name: "caller override", content: "x,I\n0.5,1\n8,2\n", opts: Options{XUnit: XUnitTwoTheta}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := extractCSV(t, tt.content, tt.opts)
			require.NoError(t, err)
			require.Len(t, records, 1)

			unit, ok := records[0].Metadata.Raw["x_unit_assumed"]
			assert.Equal(t, tt.assumed, ok)
			if tt.assumed {
				assert.Equal(t, "2theta", unit)
			}
		})
	}
}

func TestTabularDecoder_NoNumericData(t *testing.T) {
	_, err := extractCSV(t, "a,b\nc,d\n", Options{})
	assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))

	_, err = extractCSV(t, "header\n1\n2\n3\n", Options{})
	assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))
}

func TestTabularDecoder_WindowsEncodedHeader(t *testing.T) {
	records, err := extractCSV(t, "2theta,Intensit\xe4t\n10,1\n20,2\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Intensität", records[0].Metadata.Raw["column"])
}

func TestContext_Cancellation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pattern.csv", []byte("2theta,I\n10,1\n20,2\n"))

	// Create a context that's already cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTabularDecoder(nil).Extract(ctx, path, domain.FormatCSV, Options{})
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter("a,b\n1,2"))
	assert.Equal(t, ';', sniffDelimiter("a;b;c\n1,5;2,5;3"))
	assert.Equal(t, '\t', sniffDelimiter("a\tb\n1\t2"))
}
