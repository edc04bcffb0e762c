package ingest

import (
	"fmt"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
)

// MinPoints is the smallest series length that is not critical
const MinPoints = 10

// Classify grades a record's quality. Findings never fail a build.
func Classify(record domain.ParsedRecord) []domain.Finding {
	var findings []domain.Finding

	if n := record.Series.Len(); n < MinPoints {
		findings = append(findings, domain.Finding{
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("series has %d points, fewer than %d", n, MinPoints),
		})
	}

	meta := record.Metadata
	if meta.PrimaryWavelength == nil {
		findings = append(findings, domain.Finding{
			Severity: domain.SeverityError,
			Message:  "primary wavelength missing",
		})
	}
	if meta.SecondaryWavelength == nil {
		findings = append(findings, warning("secondary wavelength missing"))
	}
	if meta.AnodeMaterial == nil {
		findings = append(findings, warning("anode material missing"))
	}
	if meta.MeasurementDate == nil {
		findings = append(findings, warning("measurement date missing"))
	}

	return findings
}

func warning(message string) domain.Finding {
	return domain.Finding{Severity: domain.SeverityWarning, Message: message}
}

// NewRecordReport classifies a record into its report entry
func NewRecordReport(record domain.ParsedRecord) domain.RecordReport {
	return domain.RecordReport{
		RecordID:   record.ID.String(),
		SourceFile: record.SourceFile,
		Points:     record.Series.Len(),
		Findings:   Classify(record),
	}
}
