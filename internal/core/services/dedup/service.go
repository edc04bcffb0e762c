package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/google/uuid"
)

// Service implements the Deduplicator interface
type Service struct {
	config   Config
	hashRepo HashRepository
	logger   *slog.Logger
}

// NewService creates a new deduplication service. hashRepo may be nil.
func NewService(config Config, hashRepo HashRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		config:   config,
		hashRepo: hashRepo,
		logger:   logger,
	}
}

type hashed struct {
	record domain.ParsedRecord
	hash   string
}

// Deduplicate keeps the first record of every distinct series. Level 1
// compares records within the run; level 2 checks hashes kept by earlier
// runs.
func (s *Service) Deduplicate(ctx context.Context, runID uuid.UUID, records []domain.ParsedRecord) (*Result, error) {
	startTime := time.Now()

	s.logger.Info("starting deduplication",
		slog.String("run_id", runID.String()),
		slog.Int("record_count", len(records)),
		slog.String("strategy", string(s.config.Strategy)))

	result := &Result{
		OriginalCount: len(records),
		Strategy:      s.config.Strategy,
		Unique:        []domain.ParsedRecord{},
	}
	if len(records) == 0 {
		return result, nil
	}

	all := make([]hashed, len(records))
	for i, r := range records {
		all[i] = hashed{record: r, hash: SeriesHash(r.Series, s.config)}
	}

	// Level 1: within-run deduplication
	firstByHash := make(map[string]domain.ParsedRecord)
	kept := make([]hashed, 0, len(all))
	for _, h := range all {
		if first, seen := firstByHash[h.hash]; seen {
			result.Duplicates = append(result.Duplicates, domain.DuplicateEntry{
				RecordID:    h.record.ID.String(),
				SourceFile:  h.record.SourceFile,
				DuplicateOf: first.SourceFile,
				Hash:        h.hash,
			})
			result.Stats.Level1Duplicates++
			s.logger.Debug("level 1 duplicate found",
				slog.String("hash", h.hash),
				slog.String("source_file", h.record.SourceFile))
			continue
		}
		firstByHash[h.hash] = h.record
		kept = append(kept, h)
	}

	// Level 2: against earlier runs (if enabled)
	if s.config.EnableLevel2 && s.hashRepo != nil {
		unique := make([]hashed, 0, len(kept))
		for _, h := range kept {
			exists, err := s.hashRepo.CheckHashExists(ctx, h.hash)
			if err != nil {
				s.logger.Error("failed to check hash existence",
					slog.String("hash", h.hash),
					"error", err)
				// On error, keep the record (fail-open)
				unique = append(unique, h)
				continue
			}
			if exists {
				result.Duplicates = append(result.Duplicates, domain.DuplicateEntry{
					RecordID:    h.record.ID.String(),
					SourceFile:  h.record.SourceFile,
					DuplicateOf: "earlier run",
					Hash:        h.hash,
				})
				result.Stats.Level2Duplicates++
				continue
			}
			unique = append(unique, h)
		}
		kept = unique
	}

	keptIDs := make(map[uuid.UUID]bool, len(kept))
	for _, h := range kept {
		result.Unique = append(result.Unique, h.record)
		keptIDs[h.record.ID] = true
	}

	// Store hashes in database if configured
	if s.config.StoreHashes && s.hashRepo != nil {
		entries := make([]HashEntry, 0, len(all))
		for _, h := range all {
			entries = append(entries, HashEntry{
				Hash:       h.hash,
				RecordID:   h.record.ID,
				SourceFile: h.record.SourceFile,
				Kept:       keptIDs[h.record.ID],
			})
		}
		if err := s.hashRepo.SaveHashes(ctx, runID, entries); err != nil {
			s.logger.Error("failed to store hashes", "error", err)
			// Don't fail the entire operation if hash storage fails
		}
	}

	result.UniqueCount = len(result.Unique)
	result.RemovedCount = result.OriginalCount - result.UniqueCount
	result.Stats.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	s.logger.Info("deduplication completed",
		slog.Int("original_count", result.OriginalCount),
		slog.Int("final_count", result.UniqueCount),
		slog.Int("removed_count", result.RemovedCount),
		slog.Int64("processing_time_ms", result.Stats.ProcessingTimeMs))

	return result, nil
}

// GetConfig returns the current configuration
func (s *Service) GetConfig() Config {
	return s.config
}
