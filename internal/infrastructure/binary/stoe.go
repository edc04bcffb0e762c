package binary

import (
	"encoding/binary"
)

// Stoe .raw field offsets. All values are little-endian.
const (
	stoeSecondaryWavelengthOffset = 322
	stoePrimaryWavelengthOffset   = 326
	stoeRatioOffset               = 338
	stoeCountOffset               = 1238
	stoeStartOffset               = 1280
	stoeEndOffset                 = 1284
	stoeIntensityOffset           = 2560

	// StoeHeaderSize is the number of leading bytes SniffStoe inspects
	StoeHeaderSize = stoeEndOffset + 4

	stoeMaxCount = 1_000_000
	stoeMaxAngle = 180.0
)

// StoeLayout is the field table of a Stoe binary pattern file. Intensities
// is declared with zero length; its length becomes known once Count has
// been decoded.
type StoeLayout struct {
	SecondaryWavelength Field
	PrimaryWavelength   Field
	Ratio               Field
	Count               Field
	Start               Field
	End                 Field
	Intensities         Field
}

// NewStoeLayout returns the Stoe field table
func NewStoeLayout() StoeLayout {
	return StoeLayout{
		SecondaryWavelength: Scalar("secondary_wavelength", stoeSecondaryWavelengthOffset, Float32),
		PrimaryWavelength:   Scalar("primary_wavelength", stoePrimaryWavelengthOffset, Float32),
		Ratio:               Scalar("ratio", stoeRatioOffset, Float32),
		Count:               Scalar("count", stoeCountOffset, Int32),
		Start:               Scalar("start", stoeStartOffset, Float32),
		End:                 Scalar("end", stoeEndOffset, Float32),
		Intensities:         Array("intensities", stoeIntensityOffset, Uint32, 0),
	}
}

// Header returns the fixed-size fields
func (l StoeLayout) Header() []Field {
	return []Field{
		l.SecondaryWavelength,
		l.PrimaryWavelength,
		l.Ratio,
		l.Count,
		l.Start,
		l.End,
	}
}

// StoeHeader is the decoded fixed part of a Stoe file
type StoeHeader struct {
	PrimaryWavelength   float64
	SecondaryWavelength float64
	Ratio               float64
	Count               int
	Start               float64
	End                 float64
}

// Plausible reports whether the header describes a real scan
func (h StoeHeader) Plausible() bool {
	return h.Count > 0 && h.Count < stoeMaxCount &&
		h.Start > 0 && h.Start < h.End && h.End < stoeMaxAngle
}

// DecodeStoeHeader decodes the fixed fields of a Stoe buffer
func DecodeStoeHeader(buf []byte) (StoeHeader, error) {
	layout := NewStoeLayout()
	values, err := NewReader(binary.LittleEndian).DecodeAll(buf, layout.Header()...)
	if err != nil {
		return StoeHeader{}, err
	}
	return StoeHeader{
		PrimaryWavelength:   values[layout.PrimaryWavelength.Name].Float(),
		SecondaryWavelength: values[layout.SecondaryWavelength.Name].Float(),
		Ratio:               values[layout.Ratio.Name].Float(),
		Count:               int(values[layout.Count.Name].Int()),
		Start:               values[layout.Start.Name].Float(),
		End:                 values[layout.End.Name].Float(),
	}, nil
}

// SniffStoe reports whether the leading bytes look like a Stoe header. The
// peek needs at least StoeHeaderSize bytes; shorter peeks never match.
func SniffStoe(peek []byte) bool {
	header, err := DecodeStoeHeader(peek)
	if err != nil {
		return false
	}
	return header.Plausible()
}
