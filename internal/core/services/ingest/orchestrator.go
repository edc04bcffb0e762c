// Package ingest turns files and directories into parsed records. The
// Orchestrator is the per-file failure boundary; the Assembler walks a
// directory and aggregates outcomes into a DatabaseReport.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/parsers"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/google/uuid"
)

// Extractor resolves a file's format and decodes it
type Extractor interface {
	Resolve(path string) (domain.XrdFormat, error)
	Extract(ctx context.Context, path string, opts parsers.Options) (domain.XrdFormat, []domain.ParsedRecord, error)
}

// RecordCache memoizes decoded records by file content within a scope that
// names everything else the decode depends on
type RecordCache interface {
	GetRecords(ctx context.Context, content []byte, scope string) ([]domain.ParsedRecord, bool)
	SetRecords(ctx context.Context, content []byte, scope string, records []domain.ParsedRecord) error
}

// Recorder receives per-file parse measurements
type Recorder interface {
	FileParsed(format string, records int, duration time.Duration)
	FileFailed(code string, duration time.Duration)
	CacheLookup(hit bool)
}

// OrchestratorConfig configures an Orchestrator
type OrchestratorConfig struct {
	Options parsers.Options
	Timeout time.Duration // Per-file decode bound, 0 disables it

	// ReferenceWavelength is the decoders' Q to two-theta wavelength. It
	// only feeds the cache scope.
	ReferenceWavelength float64
}

// Orchestrator parses single files. Every error, timeout and panic raised
// while decoding becomes a Failure outcome; nothing escapes ParseFile.
type Orchestrator struct {
	extractor Extractor
	config    OrchestratorConfig
	cache     RecordCache
	recorder  Recorder
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator. cache and recorder may be nil.
func NewOrchestrator(extractor Extractor, config OrchestratorConfig, cache RecordCache, recorder Recorder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		extractor: extractor,
		config:    config,
		cache:     cache,
		recorder:  recorder,
		logger:    logger,
	}
}

type extractResult struct {
	format  domain.XrdFormat
	records []domain.ParsedRecord
	err     error
}

// ParseFile decodes one file into an outcome
func (o *Orchestrator) ParseFile(ctx context.Context, path string) domain.ParsingOutcome {
	start := time.Now()

	var (
		content []byte
		scope   string
	)
	if o.cache != nil {
		if format, err := o.extractor.Resolve(path); err == nil {
			if data, err := os.ReadFile(path); err == nil {
				content, scope = data, o.cacheScope(format)
				if records, ok := o.cache.GetRecords(ctx, content, scope); ok && len(records) > 0 {
					o.observeCache(true)
					outcome := domain.Success(path, format, rebind(records, path))
					o.observeSuccess(outcome, start)
					return outcome
				}
				o.observeCache(false)
			}
		}
	}

	res := o.extract(ctx, path)
	if res.err != nil {
		outcome := domain.Failure(path, res.err)
		outcome.Format = res.format
		o.logger.Debug("file failed to parse",
			slog.String("path", path),
			slog.String("code", string(outcome.Failure.Code)),
			"error", res.err)
		if o.recorder != nil {
			o.recorder.FileFailed(string(outcome.Failure.Code), time.Since(start))
		}
		return outcome
	}

	if content != nil && len(res.records) > 0 && scope == o.cacheScope(res.format) {
		if err := o.cache.SetRecords(ctx, content, scope, res.records); err != nil {
			o.logger.Warn("failed to cache records", slog.String("path", path), "error", err)
		}
	}

	outcome := domain.Success(path, res.format, res.records)
	o.observeSuccess(outcome, start)
	return outcome
}

// extract runs the decoder in its own goroutine so a decoder that ignores
// its context still cannot hold the caller past the timeout
func (o *Orchestrator) extract(ctx context.Context, path string) extractResult {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- extractResult{err: apperrors.Internal(fmt.Sprintf("decoder panic: %v", r)).
					WithDetails("path", path)}
			}
		}()
		format, records, err := o.extractor.Extract(ctx, path, o.config.Options)
		done <- extractResult{format: format, records: records, err: err}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return extractResult{err: apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "decode did not finish in time").
			WithDetails("path", path)}
	}
}

func (o *Orchestrator) observeSuccess(outcome domain.ParsingOutcome, start time.Time) {
	if o.recorder != nil {
		o.recorder.FileParsed(outcome.Format.Name, len(outcome.Records), time.Since(start))
	}
}

func (o *Orchestrator) observeCache(hit bool) {
	if o.recorder != nil {
		o.recorder.CacheLookup(hit)
	}
}

// cacheScope names the inputs besides the file bytes that shape decoded
// records
func (o *Orchestrator) cacheScope(format domain.XrdFormat) string {
	return fmt.Sprintf("format=%s;orientation=%s;x_unit=%s;wavelength=%g",
		format.Name,
		o.config.Options.Orientation,
		o.config.Options.XUnit,
		o.config.ReferenceWavelength)
}

// rebind gives cached records fresh IDs and the current path, since two
// files with equal content share one cache entry
func rebind(records []domain.ParsedRecord, path string) []domain.ParsedRecord {
	out := make([]domain.ParsedRecord, len(records))
	for i, r := range records {
		r.ID = uuid.New()
		r.SourceFile = path
		out[i] = r
	}
	return out
}
