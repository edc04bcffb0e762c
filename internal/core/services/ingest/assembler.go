package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/dedup"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/google/uuid"
)

// SuffixSource tells the assembler which files to pick up
type SuffixSource interface {
	SupportedSuffixes() []string
	SuffixesFor(names []string) ([]string, error)
}

// BuildOptions controls a directory build
type BuildOptions struct {
	Formats     []string  // Format names or suffixes; empty means every supported suffix
	Strict      bool      // Abort on the first failed file
	Deduplicate bool      // Drop records whose series repeats an earlier one
	RunID       uuid.UUID // Tags stored dedup hashes; generated when nil
}

// Assembler builds a record set and report from a directory tree
type Assembler struct {
	orchestrator *Orchestrator
	suffixes     SuffixSource
	deduplicator dedup.Deduplicator
	logger       *slog.Logger
}

// NewAssembler creates an assembler. deduplicator may be nil, in which case
// BuildOptions.Deduplicate is ignored.
func NewAssembler(orchestrator *Orchestrator, suffixes SuffixSource, deduplicator dedup.Deduplicator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		orchestrator: orchestrator,
		suffixes:     suffixes,
		deduplicator: deduplicator,
		logger:       logger,
	}
}

// Build parses every matching file under dir in lexical path order. A file
// failure is recorded in the report and the build continues, unless
// opts.Strict is set. The error is non-nil only when the tree cannot be
// walked, the context ends, or a strict build hits a failure.
func (a *Assembler) Build(ctx context.Context, dir string, opts BuildOptions) ([]domain.ParsedRecord, *domain.DatabaseReport, error) {
	start := time.Now()
	report := &domain.DatabaseReport{Directory: dir}

	paths, err := a.collect(dir, opts.Formats)
	if err != nil {
		return nil, report, err
	}
	report.TotalFiles = len(paths)

	a.logger.Info("building database",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Bool("strict", opts.Strict))

	var records []domain.ParsedRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, report, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "build interrupted")
		}

		outcome := a.orchestrator.ParseFile(ctx, path)
		if !outcome.Succeeded() {
			a.logger.Warn("failed to parse file",
				slog.String("path", path),
				slog.String("code", string(outcome.Failure.Code)),
				slog.String("error", outcome.Failure.Message))

			report.AddFailure(path, *outcome.Failure)
			if opts.Strict {
				return nil, report, apperrors.New(outcome.Failure.Code, outcome.Failure.Message).
					WithDetails("path", path)
			}
			continue
		}

		report.ParsedFiles++
		records = append(records, outcome.Records...)
	}

	if opts.Deduplicate && a.deduplicator != nil && len(records) > 0 {
		runID := opts.RunID
		if runID == uuid.Nil {
			runID = uuid.New()
		}
		result, err := a.deduplicator.Deduplicate(ctx, runID, records)
		if err != nil {
			return nil, report, err
		}
		records = result.Unique
		report.Duplicates = result.Duplicates
	}

	for _, r := range records {
		report.AddRecordReport(NewRecordReport(r))
	}

	a.logger.Info("database built",
		slog.String("dir", dir),
		slog.Int("total_files", report.TotalFiles),
		slog.Int("parsed_files", report.ParsedFiles),
		slog.Int("failed_files", len(report.FailedFiles)),
		slog.Int("records", report.TotalRecords),
		slog.Int("critical", report.CriticalCount),
		slog.Int("errors", report.ErrorCount),
		slog.Int("warnings", report.WarningCount),
		slog.Int("duplicates", len(report.Duplicates)),
		slog.Duration("elapsed", time.Since(start)))

	return records, report, nil
}

// collect lists the files under dir whose suffix is selected, sorted
func (a *Assembler) collect(dir string, formats []string) ([]string, error) {
	suffixes := a.suffixes.SupportedSuffixes()
	if len(formats) > 0 {
		var err error
		if suffixes, err = a.suffixes.SuffixesFor(formats); err != nil {
			return nil, err
		}
	}

	wanted := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		wanted[s] = true
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if wanted[domain.NormalizeSuffix(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFileParseError, "failed to walk directory").
			WithDetails("dir", dir)
	}

	sort.Strings(paths)
	return paths, nil
}

// HasFailures reports whether a build produced failed files or critical
// records
func HasFailures(report *domain.DatabaseReport) bool {
	return len(report.FailedFiles) > 0 || report.CriticalCount > 0
}

// Summary renders a one-line build summary
func Summary(report *domain.DatabaseReport) string {
	parts := []string{
		pluralize(report.ParsedFiles, "file") + " parsed",
		pluralize(len(report.FailedFiles), "file") + " failed",
		pluralize(report.TotalRecords, "record"),
	}
	if len(report.Duplicates) > 0 {
		parts = append(parts, pluralize(len(report.Duplicates), "duplicate")+" removed")
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
