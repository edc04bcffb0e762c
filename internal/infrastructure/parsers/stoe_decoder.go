package parsers

import (
	"context"
	"encoding/binary"
	"strconv"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	xrdbinary "github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/binary"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// StoeDecoder decodes Stoe binary .raw pattern files
type StoeDecoder struct {
	config *ParserConfig
	layout xrdbinary.StoeLayout
}

// NewStoeDecoder creates a new Stoe decoder
func NewStoeDecoder(config *ParserConfig) *StoeDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &StoeDecoder{
		config: config,
		layout: xrdbinary.NewStoeLayout(),
	}
}

// Extract decodes the file into a single record
func (d *StoeDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	buf, err := readFile(path, d.config.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := d.decode(buf, path, format)
	if err != nil {
		return nil, err
	}
	return []domain.ParsedRecord{record}, nil
}

func (d *StoeDecoder) decode(buf []byte, path string, format domain.XrdFormat) (domain.ParsedRecord, error) {
	header, err := xrdbinary.DecodeStoeHeader(buf)
	if err != nil {
		return domain.ParsedRecord{}, err
	}
	if header.Count <= 0 {
		return domain.ParsedRecord{}, apperrors.InvalidSeries("entry count is not positive").
			WithDetails("count", header.Count)
	}

	// Second pass: the intensity array length comes from the count field.
	intensities, err := xrdbinary.NewReader(binary.LittleEndian).
		Decode(buf, d.layout.Intensities.WithCount(header.Count))
	if err != nil {
		return domain.ParsedRecord{}, err
	}

	series, err := domain.NewRawSeries(linearRamp(header.Start, header.End, header.Count), intensities.Floats())
	if err != nil {
		return domain.ParsedRecord{}, err
	}

	var meta domain.Metadata
	if header.PrimaryWavelength > 0 {
		meta.PrimaryWavelength = domain.Float64Ptr(header.PrimaryWavelength)
	}
	if header.SecondaryWavelength > 0 {
		meta.SecondaryWavelength = domain.Float64Ptr(header.SecondaryWavelength)
	}
	meta.SetRaw("ratio", strconv.FormatFloat(header.Ratio, 'g', -1, 64))
	meta.SetRaw("count", strconv.Itoa(header.Count))
	meta.SetRaw("start", strconv.FormatFloat(header.Start, 'g', -1, 64))
	meta.SetRaw("end", strconv.FormatFloat(header.End, 'g', -1, 64))

	return domain.NewParsedRecord(series, path, format, meta), nil
}

// linearRamp returns n evenly spaced values from start to end inclusive
func linearRamp(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	values := make([]float64, n)
	if n == 1 {
		values[0] = start
		return values
	}
	step := (end - start) / float64(n-1)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	values[n-1] = end
	return values
}

// Formats returns the format names this decoder handles
func (d *StoeDecoder) Formats() []string {
	return []string{domain.FormatStoeRaw.Name}
}
