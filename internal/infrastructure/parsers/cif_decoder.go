package parsers

import (
	"context"
	"strings"
	"unicode"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/crystal"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// Powder pattern tags in priority order
var (
	cifAngleTags = []string{
		"_pd_meas_2theta_scan",
		"_pd_proc_2theta_corrected",
		"_pd_meas_angle_2theta",
		"_pd_proc_2theta",
	}
	cifIntensityTags = []string{
		"_pd_meas_intensity_total",
		"_pd_meas_counts_total",
		"_pd_proc_intensity_total",
		"_pd_calc_intensity_total",
		"_pd_proc_intensity_net",
	}
	cifRangePrefixes = []string{
		"_pd_meas_2theta_range_",
		"_pd_proc_2theta_range_",
	}
)

// CIFDecoder extracts powder patterns from CIF documents
type CIFDecoder struct {
	config  *ParserConfig
	labeler *crystal.Labeler
}

// NewCIFDecoder creates a new CIF decoder. A nil labeler uses the built-in
// catalog without a symmetry analyzer.
func NewCIFDecoder(config *ParserConfig, labeler *crystal.Labeler) *CIFDecoder {
	if config == nil {
		config = DefaultParserConfig()
	}
	if labeler == nil {
		labeler = crystal.NewLabeler(crystal.NewCatalog(), nil, nil)
	}
	return &CIFDecoder{
		config:  config,
		labeler: labeler,
	}
}

// Extract returns one record per data block that carries a pattern
func (d *CIFDecoder) Extract(ctx context.Context, path string, format domain.XrdFormat, opts Options) ([]domain.ParsedRecord, error) {
	text, err := readText(path, d.config.MaxFileSize)
	if err != nil {
		return nil, err
	}

	doc, err := parseCIF(text)
	if err != nil {
		return nil, err
	}

	crystalInfo := d.crystalInfo(ctx, doc, text)

	var records []domain.ParsedRecord
	for _, block := range doc.blocks {
		_, intensities, ok := block.firstColumn(cifIntensityTags)
		if !ok {
			continue
		}

		series, err := blockSeries(block, intensities)
		if err != nil {
			return nil, err
		}

		meta := blockMetadata(block, doc)
		meta.Crystal = crystalInfo
		if block.name != "" {
			meta.SetRaw("data_block", block.name)
		}
		records = append(records, domain.NewParsedRecord(series, path, format, meta))
	}

	if len(records) == 0 {
		return nil, apperrors.MissingCIFField(cifIntensityTags...)
	}
	return records, nil
}

// Formats returns the format names this decoder handles
func (d *CIFDecoder) Formats() []string {
	return []string{domain.FormatCIF.Name}
}

// blockSeries pairs intensities with the explicit angle column or, failing
// that, a ramp rebuilt from the stated scan range. Rows with an unknown
// value on either axis are dropped.
func blockSeries(block *cifBlock, intensities []string) (domain.RawSeries, error) {
	var x, y []float64

	if _, angles, ok := block.firstColumn(cifAngleTags); ok {
		if len(angles) != len(intensities) {
			return domain.RawSeries{}, apperrors.InvalidSeries("CIF angle and intensity columns differ in length")
		}
		for i := range angles {
			a, okA := parseCIFNumber(angles[i])
			v, okV := parseCIFNumber(intensities[i])
			if okA && okV {
				x = append(x, a)
				y = append(y, v)
			}
		}
		return domain.NewRawSeries(x, y)
	}

	ramp, ok := rangeRamp(block, len(intensities))
	if !ok {
		missing := append([]string(nil), cifAngleTags...)
		for _, prefix := range cifRangePrefixes {
			missing = append(missing, prefix+"min", prefix+"max")
		}
		return domain.RawSeries{}, apperrors.MissingCIFField(missing...)
	}
	for i := range intensities {
		if v, ok := parseCIFNumber(intensities[i]); ok {
			x = append(x, ramp[i])
			y = append(y, v)
		}
	}
	return domain.NewRawSeries(x, y)
}

// rangeRamp rebuilds the angle axis from _range_min/_max/_inc
func rangeRamp(block *cifBlock, n int) ([]float64, bool) {
	for _, prefix := range cifRangePrefixes {
		minRaw, okMin := block.value(prefix + "min")
		maxRaw, okMax := block.value(prefix + "max")
		if !okMin {
			continue
		}
		lo, ok := parseCIFNumber(minRaw)
		if !ok {
			continue
		}

		if incRaw, okInc := block.value(prefix + "inc"); okInc {
			if inc, ok := parseCIFNumber(incRaw); ok && inc > 0 {
				ramp := make([]float64, n)
				for i := range ramp {
					ramp[i] = lo + float64(i)*inc
				}
				return ramp, true
			}
		}
		if okMax {
			if hi, ok := parseCIFNumber(maxRaw); ok && hi > lo {
				return linearRamp(lo, hi, n), true
			}
		}
	}
	return nil, false
}

// blockMetadata reads radiation and date fields from the block, falling
// back to any other block in the document
func blockMetadata(block *cifBlock, doc *cifDocument) domain.Metadata {
	var meta domain.Metadata

	lookup := func(tag string) (string, bool) {
		if v, ok := block.value(tag); ok {
			return v, true
		}
		for _, other := range doc.blocks {
			if v, ok := other.value(tag); ok {
				return v, true
			}
		}
		return "", false
	}

	wavelengths := block.wavelengths()
	if len(wavelengths) == 0 {
		for _, other := range doc.blocks {
			if wavelengths = other.wavelengths(); len(wavelengths) > 0 {
				break
			}
		}
	}
	if len(wavelengths) > 0 {
		meta.PrimaryWavelength = domain.Float64Ptr(wavelengths[0])
	}
	if len(wavelengths) > 1 {
		meta.SecondaryWavelength = domain.Float64Ptr(wavelengths[1])
	}

	for _, tag := range []string{"_diffrn_radiation_target", "_diffrn_source_target", "_diffrn_radiation_type"} {
		if v, ok := lookup(tag); ok {
			meta.SetRaw(tag, v)
			if anode := elementSymbol(v); anode != "" && meta.AnodeMaterial == nil {
				meta.AnodeMaterial = domain.StringPtr(anode)
			}
		}
	}

	for _, tag := range []string{"_pd_meas_datetime_initiated", "_audit_creation_date"} {
		if v, ok := lookup(tag); ok {
			meta.SetRaw(tag, v)
			if t, ok := parseDate(v); ok && meta.MeasurementDate == nil {
				meta.MeasurementDate = domain.TimePtr(t)
			}
		}
	}

	return meta
}

// wavelengths returns the declared wavelengths; a loop lists primary then
// secondary
func (b *cifBlock) wavelengths() []float64 {
	var raw []string
	if col, ok := b.column("_diffrn_radiation_wavelength"); ok {
		raw = col
	} else if v, ok := b.items["_diffrn_radiation_wavelength"]; ok {
		raw = []string{v}
	}

	var out []float64
	for _, s := range raw {
		if v, ok := parseCIFNumber(s); ok && v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// elementSymbol extracts a leading element symbol such as "Cu" from
// "Cu K\a"
func elementSymbol(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return ""
	}
	end := 1
	if len(runes) > 1 && unicode.IsLower(runes[1]) {
		end = 2
	}
	if end < len(runes) && unicode.IsLetter(runes[end]) {
		return ""
	}
	return string(runes[:end])
}

// crystalInfo collects declared cell and symmetry fields and hands them to
// the labeler
func (d *CIFDecoder) crystalInfo(ctx context.Context, doc *cifDocument, text string) *domain.CrystalInfo {
	var declared domain.CrystalInfo
	var symbol string

	for _, block := range doc.blocks {
		if declared.SpaceGroup == 0 {
			for _, tag := range []string{"_space_group_it_number", "_symmetry_int_tables_number"} {
				if v, ok := block.value(tag); ok {
					if n, ok := parseCIFNumber(v); ok {
						declared.SpaceGroup = int(n)
						break
					}
				}
			}
		}
		if symbol == "" {
			for _, tag := range []string{"_space_group_name_h-m_alt", "_symmetry_space_group_name_h-m"} {
				if v, ok := block.value(tag); ok && v != "?" {
					symbol = v
					break
				}
			}
		}
		if len(declared.Lengths) == 0 {
			declared.Lengths = cellValues(block, "_cell_length_a", "_cell_length_b", "_cell_length_c")
		}
		if len(declared.Angles) == 0 {
			declared.Angles = cellValues(block, "_cell_angle_alpha", "_cell_angle_beta", "_cell_angle_gamma")
		}
		if declared.UnitCellVolume == 0 {
			if v, ok := block.value("_cell_volume"); ok {
				declared.UnitCellVolume, _ = parseCIFNumber(v)
			}
		}
		if declared.Formula == "" {
			if v, ok := block.value("_chemical_formula_sum"); ok && v != "?" {
				declared.Formula = strings.TrimSpace(v)
			}
		}
		if len(declared.WyckoffSymbols) == 0 {
			if col, ok := block.column("_atom_site_wyckoff_symbol"); ok {
				declared.WyckoffSymbols = append([]string(nil), col...)
			}
		}
	}

	return d.labeler.Label(ctx, text, declared, symbol)
}

// cellValues returns all three values or nil
func cellValues(block *cifBlock, tags ...string) []float64 {
	out := make([]float64, 0, len(tags))
	for _, tag := range tags {
		raw, ok := block.value(tag)
		if !ok {
			return nil
		}
		v, ok := parseCIFNumber(raw)
		if !ok {
			return nil
		}
		out = append(out, v)
	}
	return out
}
