package domain

import (
	"time"

	"github.com/google/uuid"
)

// CrystalInfo is the crystallographic label attached to a record, produced
// by the symmetry collaborator or read directly from a CIF document.
type CrystalInfo struct {
	SpaceGroup     int       `json:"space_group,omitempty"`
	CrystalSystem  string    `json:"crystal_system,omitempty"`
	WyckoffSymbols []string  `json:"wyckoff_symbols,omitempty"`
	UnitCellVolume float64   `json:"unit_cell_volume,omitempty"`
	Lengths        []float64 `json:"lengths,omitempty"`
	Angles         []float64 `json:"angles,omitempty"`
	Formula        string    `json:"formula,omitempty"`
}

// Metadata holds the experimental metadata a format exposes. Every field is
// optional; nil means the source file did not state it.
type Metadata struct {
	PrimaryWavelength   *float64
	SecondaryWavelength *float64
	AnodeMaterial       *string
	MeasurementDate     *time.Time
	Crystal             *CrystalInfo

	// Raw keeps every source-level key/value the decoder saw, unmodified.
	Raw map[string]string
}

// SetRaw stores a raw metadata field, allocating the map on first use
func (m *Metadata) SetRaw(key, value string) {
	if m.Raw == nil {
		m.Raw = make(map[string]string)
	}
	m.Raw[key] = value
}

// ParsedRecord is the parser's output unit. A file yields zero or more.
type ParsedRecord struct {
	ID         uuid.UUID
	Series     RawSeries
	SourceFile string
	Format     XrdFormat
	Metadata   Metadata
}

// NewParsedRecord creates a record with a fresh ID
func NewParsedRecord(series RawSeries, sourceFile string, format XrdFormat, metadata Metadata) ParsedRecord {
	return ParsedRecord{
		ID:         uuid.New(),
		Series:     series,
		SourceFile: sourceFile,
		Format:     format,
		Metadata:   metadata,
	}
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to t
func TimePtr(t time.Time) *time.Time {
	return &t
}
