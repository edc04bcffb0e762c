package crystal

import (
	"context"
	"log/slog"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
)

// SymmetryAnalyzer is the external crystallography service. Given a CIF
// document it returns space group, crystal system, Wyckoff symbols and unit
// cell volume.
type SymmetryAnalyzer interface {
	Analyze(ctx context.Context, cif string) (domain.CrystalInfo, error)
}

// TryAnalyze runs the analyzer and turns every failure into absence. A nil
// analyzer yields (zero, false).
func TryAnalyze(ctx context.Context, analyzer SymmetryAnalyzer, cif string) (info domain.CrystalInfo, ok bool) {
	if analyzer == nil {
		return domain.CrystalInfo{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			info, ok = domain.CrystalInfo{}, false
		}
	}()

	info, err := analyzer.Analyze(ctx, cif)
	if err != nil {
		return domain.CrystalInfo{}, false
	}
	return info, true
}

// Labeler merges what a CIF document declares with what the analyzer
// computes and fills gaps from the catalog.
type Labeler struct {
	catalog  *Catalog
	analyzer SymmetryAnalyzer
	logger   *slog.Logger
}

// NewLabeler creates a labeler. The analyzer may be nil.
func NewLabeler(catalog *Catalog, analyzer SymmetryAnalyzer, logger *slog.Logger) *Labeler {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Labeler{
		catalog:  catalog,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Label returns crystal info for a document, or nil when nothing is known.
// Analyzer results take precedence over declared values field by field.
func (l *Labeler) Label(ctx context.Context, cif string, declared domain.CrystalInfo, symbol string) *domain.CrystalInfo {
	info := declared

	if info.SpaceGroup == 0 && symbol != "" {
		if n, ok := l.catalog.SpaceGroupNumber(symbol); ok {
			info.SpaceGroup = n
		}
	}

	if computed, ok := TryAnalyze(ctx, l.analyzer, cif); ok {
		info = merge(info, computed)
	} else if l.analyzer != nil {
		l.logger.Debug("symmetry analysis unavailable, using declared values")
	}

	if info.CrystalSystem == "" && info.SpaceGroup != 0 {
		if system, ok := l.catalog.CrystalSystem(info.SpaceGroup); ok {
			info.CrystalSystem = system
		}
	}

	if isEmpty(info) {
		return nil
	}
	return &info
}

func merge(base, over domain.CrystalInfo) domain.CrystalInfo {
	if over.SpaceGroup != 0 {
		base.SpaceGroup = over.SpaceGroup
	}
	if over.CrystalSystem != "" {
		base.CrystalSystem = over.CrystalSystem
	}
	if len(over.WyckoffSymbols) > 0 {
		base.WyckoffSymbols = over.WyckoffSymbols
	}
	if over.UnitCellVolume != 0 {
		base.UnitCellVolume = over.UnitCellVolume
	}
	if len(over.Lengths) > 0 {
		base.Lengths = over.Lengths
	}
	if len(over.Angles) > 0 {
		base.Angles = over.Angles
	}
	if over.Formula != "" {
		base.Formula = over.Formula
	}
	return base
}

func isEmpty(info domain.CrystalInfo) bool {
	return info.SpaceGroup == 0 && info.CrystalSystem == "" &&
		len(info.WyckoffSymbols) == 0 && info.UnitCellVolume == 0 &&
		len(info.Lengths) == 0 && len(info.Angles) == 0 && info.Formula == ""
}
