package parsers

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/crystal"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/binary"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// Sniffer reports whether a file's leading bytes belong to a format
type Sniffer func(peek []byte) bool

type entry struct {
	format  domain.XrdFormat
	decoder Decoder
	sniff   Sniffer
}

// FormatRegistry maps suffixes to formats and formats to decoders. It is
// read-only once built.
type FormatRegistry struct {
	config   *ParserConfig
	bySuffix map[string][]entry
	byName   map[string]entry
	peekSize int
}

// NewFormatRegistry creates a registry with every built-in format. The
// converter and labeler may be nil.
func NewFormatRegistry(config *ParserConfig, converter Converter, labeler *crystal.Labeler) *FormatRegistry {
	if config == nil {
		config = DefaultParserConfig()
	}

	registry := &FormatRegistry{
		config:   config,
		bySuffix: make(map[string][]entry),
		byName:   make(map[string]entry),
	}

	// Register built-in decoders. Sniffed candidates go first so the
	// unsniffed one acts as fallback for a shared suffix.
	registry.RegisterSniffed(domain.FormatStoeRaw, NewStoeDecoder(config), binary.SniffStoe, binary.StoeHeaderSize)

	converterDecoder := NewConverterDecoder(config, converter)
	registry.Register(domain.FormatBrukerRaw, converterDecoder)
	for _, format := range domain.ConverterFormats {
		registry.Register(format, converterDecoder)
	}

	tabular := NewTabularDecoder(config)
	registry.Register(domain.FormatCSV, tabular)

	spreadsheet := NewSpreadsheetDecoder(config)
	registry.Register(domain.FormatXLSX, spreadsheet)
	registry.Register(domain.FormatXLS, spreadsheet)

	registry.Register(domain.FormatCIF, NewCIFDecoder(config, labeler))
	registry.Register(domain.FormatDat, NewDatDecoder(config))

	return registry
}

// Register adds a format resolved by suffix alone
func (r *FormatRegistry) Register(format domain.XrdFormat, decoder Decoder) {
	r.add(entry{format: format, decoder: decoder})
}

// RegisterSniffed adds a format that must also pass a content check over
// the first peekSize bytes
func (r *FormatRegistry) RegisterSniffed(format domain.XrdFormat, decoder Decoder, sniff Sniffer, peekSize int) {
	r.add(entry{format: format, decoder: decoder, sniff: sniff})
	if peekSize > r.peekSize {
		r.peekSize = peekSize
	}
}

func (r *FormatRegistry) add(e entry) {
	suffix := domain.NormalizeSuffix(e.format.Suffix)
	r.bySuffix[suffix] = append(r.bySuffix[suffix], e)
	r.byName[e.format.Name] = e
}

// Resolve identifies the format of a file. Suffixes shared by several
// formats are disambiguated by reading the file's leading bytes.
func (r *FormatRegistry) Resolve(path string) (domain.XrdFormat, error) {
	candidates := r.bySuffix[suffixOf(path)]
	if len(candidates) == 0 {
		return domain.XrdFormat{}, apperrors.UnsupportedFormat(path)
	}
	if len(candidates) == 1 {
		return candidates[0].format, nil
	}

	peek, err := readPeek(path, r.peekSize)
	if err != nil {
		// Unreadable files fall through to the unsniffed candidate; the
		// decoder reports the read error.
		peek = nil
	}
	return r.ResolveWithPeek(path, peek)
}

// ResolveWithPeek is Resolve over bytes the caller already holds
func (r *FormatRegistry) ResolveWithPeek(path string, peek []byte) (domain.XrdFormat, error) {
	candidates := r.bySuffix[suffixOf(path)]
	if len(candidates) == 0 {
		return domain.XrdFormat{}, apperrors.UnsupportedFormat(path)
	}

	var fallback *entry
	for i := range candidates {
		c := candidates[i]
		if c.sniff == nil {
			if fallback == nil {
				fallback = &candidates[i]
			}
			continue
		}
		if c.sniff(peek) {
			return c.format, nil
		}
	}

	if fallback == nil {
		return domain.XrdFormat{}, apperrors.UnsupportedFormat(path).
			WithDetails("reason", "content did not match any candidate format")
	}
	return fallback.format, nil
}

// DecoderFor returns the decoder registered for a format
func (r *FormatRegistry) DecoderFor(format domain.XrdFormat) (Decoder, error) {
	e, ok := r.byName[format.Name]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeUnsupportedFormat, "no decoder for format %s", format.Name)
	}
	return e.decoder, nil
}

// Extract is a convenience method that resolves the format and decodes the
// file
func (r *FormatRegistry) Extract(ctx context.Context, path string, opts Options) (domain.XrdFormat, []domain.ParsedRecord, error) {
	format, err := r.Resolve(path)
	if err != nil {
		return domain.XrdFormat{}, nil, err
	}

	decoder, err := r.DecoderFor(format)
	if err != nil {
		return format, nil, err
	}

	records, err := decoder.Extract(ctx, path, format, opts)
	if err != nil {
		return format, nil, err
	}
	return format, records, nil
}

// SupportedSuffixes returns all supported suffixes without the dot, sorted
func (r *FormatRegistry) SupportedSuffixes() []string {
	suffixes := make([]string, 0, len(r.bySuffix))
	for suffix := range r.bySuffix {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// Formats returns every registered format sorted by name
func (r *FormatRegistry) Formats() []domain.XrdFormat {
	formats := make([]domain.XrdFormat, 0, len(r.byName))
	for _, e := range r.byName {
		formats = append(formats, e.format)
	}
	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Name < formats[j].Name
	})
	return formats
}

// IsSupported checks if a file's suffix is supported
func (r *FormatRegistry) IsSupported(path string) bool {
	_, ok := r.bySuffix[suffixOf(path)]
	return ok
}

// SuffixesFor maps format names or suffixes to the suffixes they cover
func (r *FormatRegistry) SuffixesFor(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var suffixes []string
	for _, name := range names {
		normalized := domain.NormalizeSuffix(name)
		var suffix string
		if e, ok := r.byName[normalized]; ok {
			suffix = domain.NormalizeSuffix(e.format.Suffix)
		} else if _, ok := r.bySuffix[normalized]; ok {
			suffix = normalized
		} else {
			return nil, apperrors.Newf(apperrors.ErrCodeUnsupportedFormat, "unknown format: %s", name)
		}
		if !seen[suffix] {
			seen[suffix] = true
			suffixes = append(suffixes, suffix)
		}
	}
	sort.Strings(suffixes)
	return suffixes, nil
}

func suffixOf(path string) string {
	return domain.NormalizeSuffix(filepath.Ext(path))
}
