package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
	"github.com/google/uuid"
)

const (
	recordsDir      = "records"
	standardizedDir = "standardized"
	reportsDir      = "reports"
)

// LocalStorage writes canonical records and build reports under a base
// directory:
//
//	<base>/records/<id>.json
//	<base>/standardized/<id>.json
//	<base>/reports/<run>/{report.json,report.txt,failed_files.txt}
type LocalStorage struct {
	basePath string
	logger   *slog.Logger
}

// LocalStorageConfig for local storage
type LocalStorageConfig struct {
	BasePath string // Output directory (e.g., "./out")
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(cfg *LocalStorageConfig, logger *slog.Logger) (*LocalStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, dir := range []string{recordsDir, standardizedDir, reportsDir} {
		if err := os.MkdirAll(filepath.Join(cfg.BasePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &LocalStorage{
		basePath: cfg.BasePath,
		logger:   logger,
	}, nil
}

// BasePath returns the output root
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// SaveRecord writes the canonical JSON of a record and returns its path
func (s *LocalStorage) SaveRecord(ctx context.Context, record domain.ParsedRecord) (string, error) {
	data, err := record.MarshalCanonical()
	if err != nil {
		return "", err
	}

	path := s.recordPath(record.ID)
	if err := writeFile(path, data); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	s.logger.Debug("record saved",
		slog.String("record_id", record.ID.String()),
		slog.String("source_file", record.SourceFile),
		slog.String("hash", hex.EncodeToString(sum[:])))

	return path, nil
}

// LoadRecord reads a record back from its canonical JSON
func (s *LocalStorage) LoadRecord(ctx context.Context, id uuid.UUID) (domain.ParsedRecord, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ParsedRecord{}, apperrors.NotFound("record " + id.String())
		}
		return domain.ParsedRecord{}, fmt.Errorf("failed to read record: %w", err)
	}
	return domain.UnmarshalCanonical(data)
}

// ListRecords returns the IDs of every stored record in lexical order
func (s *LocalStorage) ListRecords(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, recordsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	var ids []uuid.UUID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("skipping foreign file in records directory", slog.String("name", name))
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type standardizedFile struct {
	ID         string                    `json:"id"`
	SourceFile string                    `json:"source_file"`
	Series     domain.StandardizedSeries `json:"series"`
}

// SaveStandardized writes the standardized series of a record
func (s *LocalStorage) SaveStandardized(ctx context.Context, record domain.ParsedRecord, series domain.StandardizedSeries) (string, error) {
	data, err := json.MarshalIndent(standardizedFile{
		ID:         record.ID.String(),
		SourceFile: record.SourceFile,
		Series:     series,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal standardized series: %w", err)
	}

	path := filepath.Join(s.basePath, standardizedDir, record.ID.String()+".json")
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveReport writes the JSON report, its text rendering and the failed file
// manifest (one path per line) for a run. It returns the report directory.
func (s *LocalStorage) SaveReport(ctx context.Context, runID uuid.UUID, report *domain.DatabaseReport) (string, error) {
	dir := filepath.Join(s.basePath, reportsDir, runID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	manifest := strings.Join(report.FailedPaths(), "\n")
	if manifest != "" {
		manifest += "\n"
	}

	files := map[string][]byte{
		"report.json":      data,
		"report.txt":       []byte(report.String()),
		"failed_files.txt": []byte(manifest),
	}
	for name, content := range files {
		if err := writeFile(filepath.Join(dir, name), content); err != nil {
			return "", err
		}
	}

	s.logger.Info("report saved",
		slog.String("run_id", runID.String()),
		slog.String("dir", dir),
		slog.Int("failed_files", len(report.FailedFiles)))

	return dir, nil
}

func (s *LocalStorage) recordPath(id uuid.UUID) string {
	return filepath.Join(s.basePath, recordsDir, id.String()+".json")
}

// writeFile writes through a temporary file so readers never see a partial
// record
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
