package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestRunRepository persists directory builds and their failure manifests
type IngestRunRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewIngestRunRepository creates a new repository instance
func NewIngestRunRepository(db *gorm.DB, logger *slog.Logger) *IngestRunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestRunRepository{db: db, logger: logger}
}

// SaveRun stores a report as a run. The run and its failures are written in
// one transaction.
func (r *IngestRunRepository) SaveRun(ctx context.Context, runID uuid.UUID, report *domain.DatabaseReport, status string) (*domain.IngestRun, error) {
	run := domain.NewIngestRun(report, status)
	if runID != uuid.Nil {
		run.ID = runID
		for i := range run.Failures {
			run.Failures[i].RunID = runID
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		r.logger.Error("failed to save ingest run",
			slog.String("directory", report.Directory),
			"error", err)
		return nil, fmt.Errorf("failed to save ingest run: %w", err)
	}

	r.logger.Info("saved ingest run",
		slog.String("run_id", run.ID.String()),
		slog.Int("failures", len(run.Failures)))

	return run, nil
}

// GetRun loads a run with its failures
func (r *IngestRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*domain.IngestRun, error) {
	var run domain.IngestRun

	err := r.db.WithContext(ctx).
		Preload("Failures", func(db *gorm.DB) *gorm.DB {
			return db.Order("path ASC")
		}).
		First(&run, "id = ?", id).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("ingest run")
	}
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return &run, nil
}

// ListFailedFiles returns the failure manifest of a run ordered by path
func (r *IngestRunRepository) ListFailedFiles(ctx context.Context, id uuid.UUID) ([]domain.FailedFile, error) {
	var failures []domain.IngestFailure

	err := r.db.WithContext(ctx).
		Where("run_id = ?", id).
		Order("path ASC").
		Find(&failures).
		Error
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	files := make([]domain.FailedFile, 0, len(failures))
	for _, f := range failures {
		files = append(files, domain.FailedFile{Path: f.Path, Code: f.Code, Message: f.Message})
	}
	return files, nil
}

// ListRuns returns the most recent runs first
func (r *IngestRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.IngestRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).
		Error
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return runs, nil
}
