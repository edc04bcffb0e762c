package parsers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// Converter turns a vendor file into the two-column text document:
// "# key: value" header lines, then angle/intensity rows, with optional
// "# block: name" lines separating blocks
type Converter interface {
	Convert(ctx context.Context, path, format string) ([]byte, error)
}

// ExecConverter runs an external executable as "<command> <path> <format>"
// and reads the document from its stdout
type ExecConverter struct {
	Command string
	Args    []string
}

// NewExecConverter creates a converter for the given executable
func NewExecConverter(command string, args ...string) *ExecConverter {
	return &ExecConverter{Command: command, Args: args}
}

// Convert runs the command, honoring ctx cancellation
func (c *ExecConverter) Convert(ctx context.Context, path, format string) ([]byte, error) {
	args := append(append([]string(nil), c.Args...), path, format)
	cmd := exec.CommandContext(ctx, c.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		appErr := apperrors.ConverterFailed(err, format)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			appErr = appErr.WithDetails("stderr", msg)
		}
		return nil, appErr
	}
	return stdout.Bytes(), nil
}

// ConverterDecoder handles vendor formats through a Converter
type ConverterDecoder struct {
	config    *ParserConfig
	converter Converter
}

// NewConverterDecoder creates a converter-backed decoder. A nil converter
// makes every extraction fail with CONVERTER_FAILED.
func NewConverterDecoder(config *ParserConfig, converter Converter) *ConverterDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &ConverterDecoder{
		config:    config,
		converter: converter,
	}
}

// Extract converts the file and returns one record per non-empty block
func (d *ConverterDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	if err := checkSize(path, d.config.MaxFileSize); err != nil {
		return nil, err
	}
	if d.converter == nil {
		return nil, apperrors.ConverterFailed(errors.New("no converter configured"), format.Name)
	}

	output, err := d.converter.Convert(ctx, path, format.Name)
	if err != nil {
		if apperrors.IsAppError(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.ConverterFailed(err, format.Name)
	}

	text, err := decodeText(output)
	if err != nil {
		return nil, err
	}

	blocks := parseConverterOutput(text)

	var records []domain.ParsedRecord
	for _, b := range blocks {
		if len(b.x) == 0 {
			continue
		}
		series, err := domain.NewRawSeries(b.x, b.y)
		if err != nil {
			return nil, err
		}
		meta := b.meta
		if b.name != "" {
			meta.SetRaw("block", b.name)
		}
		records = append(records, domain.NewParsedRecord(series, path, format, meta))
	}

	if len(records) == 0 {
		return nil, apperrors.NoNumericData("converter output holds no data rows")
	}
	return records, nil
}

// Formats returns the format names this decoder handles
func (d *ConverterDecoder) Formats() []string {
	names := []string{domain.FormatBrukerRaw.Name}
	for _, f := range domain.ConverterFormats {
		names = append(names, f.Name)
	}
	return names
}

type textBlock struct {
	name string
	meta domain.Metadata
	x    []float64
	y    []float64
}

// parseConverterOutput splits the document into blocks. Header lines before
// the first block marker apply to every block; header lines inside a block
// override them for that block only.
func parseConverterOutput(text string) []textBlock {
	var global []headerLine
	var blocks []textBlock
	current := -1

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			key, value, ok := splitHeader(line)
			if !ok {
				continue
			}
			if key == "block" {
				blocks = append(blocks, newTextBlock(value, global))
				current = len(blocks) - 1
				continue
			}
			if current < 0 {
				global = append(global, headerLine{key, value})
			} else {
				applyHeader(&blocks[current].meta, key, value)
			}
			continue
		}

		x, y, ok := parsePair(line)
		if !ok {
			continue
		}
		if current < 0 {
			blocks = append(blocks, newTextBlock("", global))
			current = len(blocks) - 1
		}
		blocks[current].x = append(blocks[current].x, x)
		blocks[current].y = append(blocks[current].y, y)
	}

	return blocks
}

type headerLine struct {
	key   string
	value string
}

func newTextBlock(name string, global []headerLine) textBlock {
	b := textBlock{name: name}
	for _, h := range global {
		applyHeader(&b.meta, h.key, h.value)
	}
	return b
}

// splitHeader parses "# key: value"; keys are lowercased with spaces and
// underscores collapsed
func splitHeader(line string) (string, string, bool) {
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	key, value, found := strings.Cut(body, ":")
	if !found {
		key, value, found = strings.Cut(body, "=")
	}
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")
	return key, strings.TrimSpace(value), key != ""
}

// applyHeader maps known keys onto typed metadata; every key is kept raw
func applyHeader(meta *domain.Metadata, key, value string) {
	meta.SetRaw(key, value)

	switch key {
	case "wavelength", "alpha1", "kalpha1", "wavelength1", "lambda", "lambda1":
		if v, ok := parseWavelength(value); ok {
			meta.PrimaryWavelength = domain.Float64Ptr(v)
		}
	case "alpha2", "kalpha2", "wavelength2", "lambda2":
		if v, ok := parseWavelength(value); ok {
			meta.SecondaryWavelength = domain.Float64Ptr(v)
		}
	case "anode", "anode_material", "target":
		if value != "" {
			meta.AnodeMaterial = domain.StringPtr(value)
		}
	case "date", "measurement_date", "datetime":
		if t, ok := parseDate(value); ok {
			meta.MeasurementDate = domain.TimePtr(t)
		}
	}
}

func parseWavelength(value string) (float64, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// parseDate tries the common instrument date layouts
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePair reads the first two numeric fields of a whitespace or comma
// separated row
func parsePair(line string) (float64, float64, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) < 2 {
		return 0, 0, false
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
