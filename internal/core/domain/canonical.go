package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// canonicalRecord is the on-disk JSON schema of a ParsedRecord. Field order
// here is the serialized order.
type canonicalRecord struct {
	ID             string         `json:"id"`
	SourceFile     string         `json:"source_file"`
	Format         XrdFormat      `json:"format"`
	TwoThetaValues []float64      `json:"two_theta_values"`
	Intensities    []float64      `json:"intensities"`
	Label          canonicalLabel `json:"label"`
}

type canonicalLabel struct {
	PrimaryWavelength   *float64          `json:"primary_wavelength"`
	SecondaryWavelength *float64          `json:"secondary_wavelength"`
	AnodeMaterial       *string           `json:"anode_material"`
	MeasurementDate     *string           `json:"measurement_date"`
	CrystalStructure    *CrystalInfo      `json:"crystal_structure"`
	RawFields           map[string]string `json:"raw_fields,omitempty"`
}

// MarshalCanonical serializes the record into its canonical JSON form
func (r ParsedRecord) MarshalCanonical() ([]byte, error) {
	c := canonicalRecord{
		ID:             r.ID.String(),
		SourceFile:     r.SourceFile,
		Format:         r.Format,
		TwoThetaValues: nonNil(r.Series.X),
		Intensities:    nonNil(r.Series.Y),
		Label: canonicalLabel{
			PrimaryWavelength:   r.Metadata.PrimaryWavelength,
			SecondaryWavelength: r.Metadata.SecondaryWavelength,
			AnodeMaterial:       r.Metadata.AnodeMaterial,
			CrystalStructure:    r.Metadata.Crystal,
			RawFields:           r.Metadata.Raw,
		},
	}
	if r.Metadata.MeasurementDate != nil {
		s := r.Metadata.MeasurementDate.Format(time.RFC3339Nano)
		c.Label.MeasurementDate = &s
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", r.ID, err)
	}
	return data, nil
}

// UnmarshalCanonical restores a record from its canonical JSON form
func UnmarshalCanonical(data []byte) (ParsedRecord, error) {
	var c canonicalRecord
	if err := json.Unmarshal(data, &c); err != nil {
		return ParsedRecord{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	id, err := uuid.Parse(c.ID)
	if err != nil {
		return ParsedRecord{}, fmt.Errorf("invalid record id %q: %w", c.ID, err)
	}

	record := ParsedRecord{
		ID:         id,
		SourceFile: c.SourceFile,
		Format:     c.Format,
		Series:     RawSeries{X: c.TwoThetaValues, Y: c.Intensities},
		Metadata: Metadata{
			PrimaryWavelength:   c.Label.PrimaryWavelength,
			SecondaryWavelength: c.Label.SecondaryWavelength,
			AnodeMaterial:       c.Label.AnodeMaterial,
			Crystal:             c.Label.CrystalStructure,
			Raw:                 c.Label.RawFields,
		},
	}

	if c.Label.MeasurementDate != nil {
		t, err := time.Parse(time.RFC3339Nano, *c.Label.MeasurementDate)
		if err != nil {
			return ParsedRecord{}, fmt.Errorf("invalid measurement date: %w", err)
		}
		record.Metadata.MeasurementDate = &t
	}

	if len(record.Series.X) != len(record.Series.Y) {
		return ParsedRecord{}, fmt.Errorf("record %s: %d angles but %d intensities",
			c.ID, len(record.Series.X), len(record.Series.Y))
	}

	return record, nil
}

func nonNil(values []float64) []float64 {
	if values == nil {
		return []float64{}
	}
	return values
}
