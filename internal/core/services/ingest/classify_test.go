package ingest

import (
	"testing"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func completeMetadata() domain.Metadata {
	return domain.Metadata{
		PrimaryWavelength:   domain.Float64Ptr(1.5406),
		SecondaryWavelength: domain.Float64Ptr(1.5444),
		AnodeMaterial:       domain.StringPtr("Cu"),
		MeasurementDate:     domain.TimePtr(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)),
	}
}

func recordWithPoints(n int, meta domain.Metadata) domain.ParsedRecord {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = 10 + float64(i)
		y[i] = float64(i + 1)
	}
	return domain.NewParsedRecord(domain.RawSeries{X: x, Y: y}, "scan.csv", domain.FormatCSV, meta)
}

func severities(findings []domain.Finding) map[domain.Severity]int {
	counts := make(map[domain.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		points int
		meta   func() domain.Metadata
		want   map[domain.Severity]int
	}{
		{
			name:   "complete record has no findings",
			points: 100,
			meta:   completeMetadata,
			want:   map[domain.Severity]int{},
		},
		{
			name:   "missing secondary wavelength is one warning",
			points: 100,
			meta: func() domain.Metadata {
				m := completeMetadata()
				m.SecondaryWavelength = nil
				return m
			},
			want: map[domain.Severity]int{domain.SeverityWarning: 1},
		},
		{
			name:   "missing primary wavelength is an error",
			points: 100,
			meta: func() domain.Metadata {
				m := completeMetadata()
				m.PrimaryWavelength = nil
				return m
			},
			want: map[domain.Severity]int{domain.SeverityError: 1},
		},
		{
			name:   "missing anode and date are two warnings",
			points: 100,
			meta: func() domain.Metadata {
				m := completeMetadata()
				m.AnodeMaterial = nil
				m.MeasurementDate = nil
				return m
			},
			want: map[domain.Severity]int{domain.SeverityWarning: 2},
		},
		{
			name:   "one point below the minimum is critical",
			points: MinPoints - 1,
			meta:   completeMetadata,
			want:   map[domain.Severity]int{domain.SeverityCritical: 1},
		},
		{
			name:   "minimum length is not critical",
			points: MinPoints,
			meta:   completeMetadata,
			want:   map[domain.Severity]int{},
		},
		{
			name:   "bare short record",
			points: 1,
			meta:   func() domain.Metadata { return domain.Metadata{} },
			want: map[domain.Severity]int{
				domain.SeverityCritical: 1,
				domain.SeverityError:    1,
				domain.SeverityWarning:  3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Classify(recordWithPoints(tt.points, tt.meta()))
			assert.Equal(t, tt.want, severities(findings))
			for _, f := range findings {
				assert.NotEmpty(t, f.Message)
			}
		})
	}
}

func TestNewRecordReport(t *testing.T) {
	record := recordWithPoints(MinPoints-1, completeMetadata())

	report := NewRecordReport(record)
	assert.Equal(t, record.ID.String(), report.RecordID)
	assert.Equal(t, "scan.csv", report.SourceFile)
	assert.Equal(t, MinPoints-1, report.Points)
	assert.True(t, report.Has(domain.SeverityCritical))
	assert.False(t, report.Has(domain.SeverityWarning))
	assert.Equal(t, 1, report.Count(domain.SeverityCritical))
}
