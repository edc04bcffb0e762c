package parsers

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// DatDecoder parses whitespace-delimited plaintext exports. Files with three
// or more columns hold (frame index, two-theta, intensity) rows and start a
// new frame whenever the index resets to zero; two-column files are a
// single frame.
type DatDecoder struct {
	config *ParserConfig
}

// NewDatDecoder creates a new plaintext decoder
func NewDatDecoder(config *ParserConfig) *DatDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &DatDecoder{
		config: config,
	}
}

type datFrame struct {
	x []float64
	y []float64
}

// Extract returns one record per frame
func (d *DatDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	text, err := readText(path, d.config.MaxFileSize)
	if err != nil {
		return nil, err
	}

	frames, err := splitFrames(ctx, text)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ParsedRecord, 0, len(frames))
	for i, frame := range frames {
		series, err := domain.NewRawSeries(frame.x, frame.y)
		if err != nil {
			return nil, err
		}
		var meta domain.Metadata
		meta.SetRaw("frame", strconv.Itoa(i))
		records = append(records, domain.NewParsedRecord(series, path, format, meta))
	}

	if len(records) == 0 {
		return nil, apperrors.NoNumericData("no numeric rows found")
	}
	return records, nil
}

// Formats returns the format names this decoder handles
func (d *DatDecoder) Formats() []string {
	return []string{domain.FormatDat.Name}
}

func splitFrames(ctx context.Context, text string) ([]datFrame, error) {
	var frames []datFrame
	width := 0

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for lineNo := 0; scanner.Scan(); lineNo++ {
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		values, ok := parseNumericFields(line)
		if !ok || len(values) < 2 {
			continue
		}

		// The first numeric row fixes the layout.
		if width == 0 {
			width = len(values)
		}
		if len(values) < width {
			continue
		}

		if width == 2 {
			if len(frames) == 0 {
				frames = append(frames, datFrame{})
			}
			last := &frames[len(frames)-1]
			last.x = append(last.x, values[0])
			last.y = append(last.y, values[1])
			continue
		}

		if values[0] == 0 || len(frames) == 0 {
			frames = append(frames, datFrame{})
		}
		last := &frames[len(frames)-1]
		last.x = append(last.x, values[1])
		last.y = append(last.y, values[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.FileParseError(err, "failed to scan plaintext file")
	}

	return frames, nil
}

// parseNumericFields parses every whitespace-separated field as a float
func parseNumericFields(line string) ([]float64, bool) {
	fields := strings.Fields(line)
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
