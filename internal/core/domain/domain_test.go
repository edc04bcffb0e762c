package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		series  RawSeries
		wantErr bool
	}{
		{"valid", RawSeries{X: []float64{10, 20}, Y: []float64{1, 2}}, false},
		{"length mismatch", RawSeries{X: []float64{10, 20}, Y: []float64{1}}, true},
		{"empty", RawSeries{}, true},
		{"nan", RawSeries{X: []float64{math.NaN()}, Y: []float64{1}}, true},
		{"inf intensity", RawSeries{X: []float64{1}, Y: []float64{math.Inf(1)}}, true},
		{"all zero", RawSeries{X: []float64{1, 2}, Y: []float64{0, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidSeries))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRawSeries_Range(t *testing.T) {
	s := RawSeries{X: []float64{30, 10, 50}, Y: []float64{1, 1, 1}}
	lo, hi := s.Range()
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 50.0, hi)
}

func sampleRecord() ParsedRecord {
	date := time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)
	return NewParsedRecord(
		RawSeries{X: []float64{10, 10.02, 10.04}, Y: []float64{100.5, 0.1, 1e-7}},
		"data/scan.raw",
		FormatStoeRaw,
		Metadata{
			PrimaryWavelength:   Float64Ptr(1.54056),
			SecondaryWavelength: Float64Ptr(1.54439),
			AnodeMaterial:       StringPtr("Cu"),
			MeasurementDate:     &date,
			Crystal: &CrystalInfo{
				SpaceGroup:    225,
				CrystalSystem: "cubic",
				Lengths:       []float64{4.05, 4.05, 4.05},
			},
			Raw: map[string]string{"ratio": "0.5", "anode": "Cu"},
		},
	)
}

func TestCanonical_RoundTrip(t *testing.T) {
	record := sampleRecord()

	data, err := record.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"two_theta_values"`)
	assert.Contains(t, string(data), `"intensities"`)

	loaded, err := UnmarshalCanonical(data)
	require.NoError(t, err)

	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, record.Series.X, loaded.Series.X)
	assert.Equal(t, record.Series.Y, loaded.Series.Y)
	assert.Equal(t, record.Format, loaded.Format)
	assert.Equal(t, *record.Metadata.PrimaryWavelength, *loaded.Metadata.PrimaryWavelength)
	assert.Equal(t, *record.Metadata.AnodeMaterial, *loaded.Metadata.AnodeMaterial)
	assert.True(t, record.Metadata.MeasurementDate.Equal(*loaded.Metadata.MeasurementDate))
	assert.Equal(t, record.Metadata.Crystal, loaded.Metadata.Crystal)
	assert.Equal(t, record.Metadata.Raw, loaded.Metadata.Raw)

	again, err := loaded.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestCanonical_MissingOptionalFields(t *testing.T) {
	record := NewParsedRecord(RawSeries{X: []float64{1}, Y: []float64{2}}, "a.csv", FormatCSV, Metadata{})

	data, err := record.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"primary_wavelength": null`)

	loaded, err := UnmarshalCanonical(data)
	require.NoError(t, err)
	assert.Nil(t, loaded.Metadata.PrimaryWavelength)
	assert.Nil(t, loaded.Metadata.MeasurementDate)
}

func TestCanonical_RejectsMismatchedLengths(t *testing.T) {
	data := []byte(`{"id":"9b2f0f3e-8f0a-4c1e-9a51-5b8e1d3c7a10","two_theta_values":[1,2],"intensities":[1],"label":{}}`)
	_, err := UnmarshalCanonical(data)
	assert.Error(t, err)
}

func TestFailure_ClassifiesError(t *testing.T) {
	outcome := Failure("x.raw", apperrors.TruncatedBuffer("intensities", 100, 10))
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, apperrors.ErrCodeTruncatedBuffer, outcome.Failure.Code)

	ok := Success("y.csv", FormatCSV, nil)
	assert.True(t, ok.Succeeded())
}

func TestDatabaseReport_Counts(t *testing.T) {
	report := &DatabaseReport{Directory: "/data"}
	report.AddRecordReport(RecordReport{SourceFile: "a", Findings: []Finding{
		{Severity: SeverityWarning, Message: "w1"},
		{Severity: SeverityWarning, Message: "w2"},
	}})
	report.AddRecordReport(RecordReport{SourceFile: "b", Findings: []Finding{
		{Severity: SeverityCritical, Message: "c"},
		{Severity: SeverityError, Message: "e"},
	}})
	report.AddRecordReport(RecordReport{SourceFile: "c"})
	report.AddFailure("bad.raw", FailureInfo{Code: apperrors.ErrCodeTruncatedBuffer, Message: "short"})

	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 1, report.CriticalCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 1, report.WarningCount)
	assert.Equal(t, []string{"bad.raw"}, report.FailedPaths())

	text := report.String()
	assert.Contains(t, text, "bad.raw [TRUNCATED_BUFFER] short")
	assert.Contains(t, text, "[critical] c")
}

func TestNewIngestRun(t *testing.T) {
	report := &DatabaseReport{Directory: "/data", TotalFiles: 3, ParsedFiles: 2}
	report.AddFailure("bad.raw", FailureInfo{Code: apperrors.ErrCodeTruncatedBuffer, Message: "short"})

	run := NewIngestRun(report, "completed_with_failures")
	assert.Equal(t, "/data", run.Directory)
	assert.Equal(t, 3, run.TotalFiles)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, run.ID, run.Failures[0].RunID)
	assert.Equal(t, "TRUNCATED_BUFFER", run.Failures[0].Code)
	assert.Contains(t, RunStatuses(), run.Status)
}

func TestAllFormats(t *testing.T) {
	formats := AllFormats()
	assert.Contains(t, formats, FormatStoeRaw)
	assert.Contains(t, formats, XrdFormat{Name: "xrdml", Suffix: "xrdml"})
	assert.Equal(t, "raw", NormalizeSuffix(".RAW"))
}
