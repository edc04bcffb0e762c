package parsers

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// stoeBytes builds a Stoe buffer with count intensities 1..count
func stoeBytes(count int, start, end float32, truncateTo int) []byte {
	buf := make([]byte, 2560+count*4)
	put := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}
	put(322, 1.54439)
	put(326, 1.54056)
	put(338, 0.5)
	binary.LittleEndian.PutUint32(buf[1238:], uint32(count))
	put(1280, start)
	put(1284, end)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(buf[2560+i*4:], uint32(i+1))
	}
	if truncateTo > 0 {
		return buf[:truncateTo]
	}
	return buf
}

type stubConverter struct {
	output string
	err    error
	calls  []string
}

func (s *stubConverter) Convert(ctx context.Context, path, format string) ([]byte, error) {
	s.calls = append(s.calls, format)
	return []byte(s.output), s.err
}

func TestFormatRegistry_Resolve(t *testing.T) {
	dir := t.TempDir()
	registry := NewFormatRegistry(nil, nil, nil)

	stoe := writeFile(t, dir, "scan.raw", stoeBytes(10, 10, 80, 0))
	bruker := writeFile(t, dir, "other.RAW", []byte("RAW1.01 vendor header that is not a stoe file"))

	tests := []struct {
		path     string
		expected domain.XrdFormat
	}{
		{stoe, domain.FormatStoeRaw},
		{bruker, domain.FormatBrukerRaw},
		{"pattern.csv", domain.FormatCSV},
		{"PATTERN.CIF", domain.FormatCIF},
		{"book.xlsx", domain.FormatXLSX},
		{"frames.dat", domain.FormatDat},
		{"scan.xrdml", domain.XrdFormat{Name: "xrdml", Suffix: "xrdml"}},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			format, err := registry.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestFormatRegistry_Resolve_Unsupported(t *testing.T) {
	registry := NewFormatRegistry(nil, nil, nil)

	_, err := registry.Resolve("notes.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))

	_, err = registry.Resolve("no_suffix")
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))
}

func TestFormatRegistry_ResolveWithPeek(t *testing.T) {
	registry := NewFormatRegistry(nil, nil, nil)

	format, err := registry.ResolveWithPeek("a.raw", stoeBytes(100, 5, 90, 1288))
	require.NoError(t, err)
	assert.Equal(t, domain.FormatStoeRaw, format)

	format, err = registry.ResolveWithPeek("a.raw", stoeBytes(100, 90, 5, 1288))
	require.NoError(t, err)
	assert.Equal(t, domain.FormatBrukerRaw, format)

	format, err = registry.ResolveWithPeek("a.raw", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatBrukerRaw, format)
}

func TestFormatRegistry_IsSupported(t *testing.T) {
	registry := NewFormatRegistry(nil, nil, nil)

	// Supported formats
	assert.True(t, registry.IsSupported("a.csv"))
	assert.True(t, registry.IsSupported("a.xlsx"))
	assert.True(t, registry.IsSupported("a.raw"))
	assert.True(t, registry.IsSupported("a.spc"))

	// Unsupported formats
	assert.False(t, registry.IsSupported("a.pdf"))
	assert.False(t, registry.IsSupported("a.json"))

	for _, format := range domain.AllFormats() {
		assert.Contains(t, registry.SupportedSuffixes(), format.Suffix)
		_, err := registry.DecoderFor(format)
		assert.NoError(t, err, format.Name)
	}
}

func TestFormatRegistry_SuffixesFor(t *testing.T) {
	registry := NewFormatRegistry(nil, nil, nil)

	suffixes, err := registry.SuffixesFor([]string{"stoe_raw", ".CSV", "bruker_raw"})
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "raw"}, suffixes)

	_, err = registry.SuffixesFor([]string{"pdf"})
	assert.Error(t, err)
}

func TestStoeDecoder_Extract(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.raw", stoeBytes(5, 10, 14, 0))

	records, err := NewStoeDecoder(nil).Extract(context.Background(), path, domain.FormatStoeRaw, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, []float64{10, 11, 12, 13, 14}, r.Series.X)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, r.Series.Y)
	assert.Equal(t, domain.FormatStoeRaw, r.Format)
	assert.Equal(t, path, r.SourceFile)
	require.NotNil(t, r.Metadata.PrimaryWavelength)
	assert.InDelta(t, 1.54056, *r.Metadata.PrimaryWavelength, 1e-6)
	require.NotNil(t, r.Metadata.SecondaryWavelength)
	assert.InDelta(t, 1.54439, *r.Metadata.SecondaryWavelength, 1e-6)
	assert.Equal(t, "5", r.Metadata.Raw["count"])
}

func TestStoeDecoder_Truncated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.raw", stoeBytes(100, 10, 80, 2600))

	_, err := NewStoeDecoder(nil).Extract(context.Background(), path, domain.FormatStoeRaw, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTruncatedBuffer))
}

func TestFormatRegistry_Extract(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.raw", stoeBytes(20, 10, 29, 0))

	format, records, err := NewFormatRegistry(nil, nil, nil).Extract(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatStoeRaw, format)
	require.Len(t, records, 1)
	assert.Equal(t, 20, records[0].Series.Len())
}

func TestParserConfig_MaxFileSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.csv", []byte("2theta,I\n10,1\n20,2\n30,3\n"))

	// Set very small max file size
	config := DefaultParserConfig()
	config.MaxFileSize = 10 // Only 10 bytes

	_, err := NewTabularDecoder(config).Extract(context.Background(), path, domain.FormatCSV, Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileTooLarge, apperrors.Classify(err))
}

func TestDefaultParserConfig(t *testing.T) {
	config := DefaultParserConfig()

	assert.True(t, config.SkipEmptyRows)
	assert.Equal(t, 1.5406, config.ReferenceWavelength)
	assert.Equal(t, int64(100*1024*1024), config.MaxFileSize) // 100 MB
}

func TestSpreadsheetDecoder_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Measured on diffractometer A"},
		{"2theta", "Intensity"},
		{10.0, 100},
		{10.5, 150},
		{11.0, 120},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := NewSpreadsheetDecoder(nil).Extract(context.Background(), path, domain.FormatXLSX, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{10, 10.5, 11}, records[0].Series.X)
	assert.Equal(t, []float64{100, 150, 120}, records[0].Series.Y)
	assert.Equal(t, "Intensity", records[0].Metadata.Raw["column"])
	assert.Equal(t, "Sheet1", records[0].Metadata.Raw["sheet"])
	assert.Equal(t, "Measured on diffractometer A", records[0].Metadata.Raw["preamble"])
}

func TestSpreadsheetDecoder_NotAWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "legacy.xls", []byte("not a zip archive"))

	_, err := NewSpreadsheetDecoder(nil).Extract(context.Background(), path, domain.FormatXLS, Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileParseError, apperrors.Classify(err))
}

const converterOutput = `# wavelength: 1.5406 A
# alpha2: 1.5444
# anode: Cu
# date: 2020-01-02
# block: scan1
10 100
11 200
12 150
# block: scan2
# anode: Co
10 5
11 6
# block: empty
`

func TestConverterDecoder_Extract(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.xrdml", []byte("<xml/>"))
	format := domain.XrdFormat{Name: "xrdml", Suffix: "xrdml"}

	converter := &stubConverter{output: converterOutput}
	records, err := NewConverterDecoder(nil, converter).Extract(context.Background(), path, format, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"xrdml"}, converter.calls)

	first := records[0]
	assert.Equal(t, []float64{10, 11, 12}, first.Series.X)
	assert.Equal(t, []float64{100, 200, 150}, first.Series.Y)
	require.NotNil(t, first.Metadata.PrimaryWavelength)
	assert.Equal(t, 1.5406, *first.Metadata.PrimaryWavelength)
	require.NotNil(t, first.Metadata.SecondaryWavelength)
	assert.Equal(t, 1.5444, *first.Metadata.SecondaryWavelength)
	assert.Equal(t, "Cu", *first.Metadata.AnodeMaterial)
	require.NotNil(t, first.Metadata.MeasurementDate)
	assert.Equal(t, 2020, first.Metadata.MeasurementDate.Year())
	assert.Equal(t, "scan1", first.Metadata.Raw["block"])

	second := records[1]
	assert.Equal(t, "Co", *second.Metadata.AnodeMaterial)
	assert.Equal(t, 1.5406, *second.Metadata.PrimaryWavelength)
}

func TestConverterDecoder_Failures(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.udf", []byte("data"))
	format := domain.XrdFormat{Name: "udf", Suffix: "udf"}
	ctx := context.Background()

	_, err := NewConverterDecoder(nil, nil).Extract(ctx, path, format, Options{})
	assert.Equal(t, apperrors.ErrCodeConverterFailed, apperrors.Classify(err))

	_, err = NewConverterDecoder(nil, &stubConverter{err: errors.New("exit status 2")}).Extract(ctx, path, format, Options{})
	assert.Equal(t, apperrors.ErrCodeConverterFailed, apperrors.Classify(err))

	_, err = NewConverterDecoder(nil, &stubConverter{output: "# anode: Cu\n"}).Extract(ctx, path, format, Options{})
	assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))
}

func TestExecConverter(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.rd", []byte("# anode: Cu\n10 1\n11 2\n"))
	ctx := context.Background()

	out, err := NewExecConverter("sh", "-c", `cat "$0"`).Convert(ctx, path, "rd")
	require.NoError(t, err)
	assert.Equal(t, "# anode: Cu\n10 1\n11 2\n", string(out))

	_, err = NewExecConverter("sh", "-c", "echo boom >&2; exit 3").Convert(ctx, path, "rd")
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConverterFailed, appErr.Code)
	assert.Equal(t, "boom", appErr.Details["stderr"])
}

func TestDatDecoder_Frames(t *testing.T) {
	dir := t.TempDir()
	content := `# frame  2theta  intensity
0 10.0 1
1 10.1 2
2 10.2 3
0 10.0 4
1 10.1 5
2 10.2 6
`
	path := writeFile(t, dir, "frames.dat", []byte(content))

	records, err := NewDatDecoder(nil).Extract(context.Background(), path, domain.FormatDat, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{10.0, 10.1, 10.2}, records[0].Series.X)
	assert.Equal(t, []float64{4, 5, 6}, records[1].Series.Y)
	assert.Equal(t, "1", records[1].Metadata.Raw["frame"])
}

func TestDatDecoder_TwoColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "single.dat", []byte("Title line\n20 5\n21 6\n22 7\n"))

	records, err := NewDatDecoder(nil).Extract(context.Background(), path, domain.FormatDat, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{20, 21, 22}, records[0].Series.X)

	empty := writeFile(t, dir, "empty.dat", []byte("# nothing here\n"))
	_, err = NewDatDecoder(nil).Extract(context.Background(), empty, domain.FormatDat, Options{})
	assert.True(t, errors.Is(err, apperrors.ErrNoNumericData))
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"plain utf8", []byte("2θ,I"), "2θ,I"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...), "a,b"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0}, "a,b"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'a', 0, ',', 0, 'b'}, "a,b"},
		{"windows-1252", []byte("Intensit\xe4t"), "Intensität"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "scattering vector (å-1)", normalizeHeader(" Scattering vector (\u212b\u207b\u00b9) "))
	assert.True(t, isQAxis("Scattering vector (\u212b\u207b\u00b9)", XUnitAuto))
	assert.False(t, isQAxis("2Theta (deg)", XUnitAuto))
}

func TestParseXUnit(t *testing.T) {
	unit, err := ParseXUnit("Q")
	require.NoError(t, err)
	assert.Equal(t, XUnitQ, unit)

	unit, err = ParseXUnit("2theta")
	require.NoError(t, err)
	assert.Equal(t, XUnitTwoTheta, unit)

	unit, err = ParseXUnit("")
	require.NoError(t, err)
	assert.Equal(t, XUnitAuto, unit)

	_, err = ParseXUnit("d-spacing")
	assert.Error(t, err)
}
