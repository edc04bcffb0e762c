package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/dedup"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatternHashRepository implements dedup.HashRepository using GORM
type PatternHashRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewPatternHashRepository creates a new repository instance
func NewPatternHashRepository(db *gorm.DB, logger *slog.Logger) *PatternHashRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PatternHashRepository{
		db:     db,
		logger: logger,
	}
}

// CheckHashExists verifies if a kept hash exists for any run
func (r *PatternHashRepository) CheckHashExists(ctx context.Context, hash string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&domain.PatternHash{}).
		Where("hash = ? AND kept = ?", hash, true).
		Count(&count).
		Error

	if err != nil {
		r.logger.Error("failed to check hash existence",
			slog.String("hash", hash),
			"error", err)
		return false, fmt.Errorf("database query failed: %w", err)
	}

	return count > 0, nil
}

// SaveHashes stores the series hashes of a run
func (r *PatternHashRepository) SaveHashes(ctx context.Context, runID uuid.UUID, hashes []dedup.HashEntry) error {
	if len(hashes) == 0 {
		return nil
	}

	rows := make([]domain.PatternHash, 0, len(hashes))
	for _, entry := range hashes {
		rows = append(rows, domain.PatternHash{
			ID:         uuid.New(),
			RunID:      runID,
			Hash:       entry.Hash,
			RecordID:   entry.RecordID,
			SourceFile: entry.SourceFile,
			Kept:       entry.Kept,
		})
	}

	err := r.db.WithContext(ctx).
		CreateInBatches(rows, 1000).
		Error

	if err != nil {
		r.logger.Error("failed to save hashes",
			slog.String("run_id", runID.String()),
			slog.Int("hash_count", len(hashes)),
			"error", err)
		return fmt.Errorf("failed to insert hashes: %w", err)
	}

	r.logger.Info("saved pattern hashes",
		slog.String("run_id", runID.String()),
		slog.Int("hash_count", len(hashes)))

	return nil
}

// GetRunHashes retrieves all hashes stored by a run
func (r *PatternHashRepository) GetRunHashes(ctx context.Context, runID uuid.UUID) ([]dedup.HashEntry, error) {
	var rows []domain.PatternHash

	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("source_file ASC").
		Find(&rows).
		Error

	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	entries := make([]dedup.HashEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, dedup.HashEntry{
			Hash:       row.Hash,
			RecordID:   row.RecordID,
			SourceFile: row.SourceFile,
			Kept:       row.Kept,
		})
	}

	return entries, nil
}
