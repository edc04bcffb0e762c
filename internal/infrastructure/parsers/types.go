package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/table"
)

// XUnit identifies the physical unit of a tabular x axis
type XUnit int

const (
	XUnitAuto XUnit = iota
	XUnitTwoTheta
	XUnitQ
)

// String returns the unit name accepted by ParseXUnit
func (u XUnit) String() string {
	switch u {
	case XUnitTwoTheta:
		return "2theta"
	case XUnitQ:
		return "q"
	default:
		return "auto"
	}
}

// ParseXUnit reads a unit name: "auto", "2theta" or "q"
func ParseXUnit(s string) (XUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return XUnitAuto, nil
	case "2theta", "twotheta", "tth":
		return XUnitTwoTheta, nil
	case "q":
		return XUnitQ, nil
	default:
		return XUnitAuto, fmt.Errorf("unknown x unit %q", s)
	}
}

// Options tune a single extraction
type Options struct {
	// Orientation is used when the table shape does not decide it
	Orientation table.Orientation

	// XUnit overrides header-based unit detection
	XUnit XUnit
}

// Decoder turns one source file into zero or more parsed records
type Decoder interface {
	// Extract decodes the file at path, stamping records with format
	Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error)

	// Formats returns the names of the formats this decoder handles
	Formats() []string
}

// ParserConfig holds configuration for all decoders
type ParserConfig struct {
	// MaxFileSize is the maximum file size in bytes (0 = unlimited)
	MaxFileSize int64

	// ReferenceWavelength in angstrom, used for Q to two-theta conversion
	ReferenceWavelength float64

	// SkipEmptyRows drops blank rows before region selection
	SkipEmptyRows bool
}

// DefaultParserConfig returns sensible defaults
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		MaxFileSize:         100 * 1024 * 1024, // 100 MB
		ReferenceWavelength: 1.5406,
		SkipEmptyRows:       true,
	}
}
