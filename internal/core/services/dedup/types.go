package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/google/uuid"
)

// Strategy defines how series are compared
type Strategy string

const (
	StrategyExact   Strategy = "exact"   // Bit-identical series
	StrategyRounded Strategy = "rounded" // Series equal after rounding to Precision decimals
)

// Config for deduplication service
type Config struct {
	Strategy     Strategy `json:"strategy"`
	Precision    int      `json:"precision"`     // Decimals kept by StrategyRounded
	EnableLevel2 bool     `json:"enable_level2"` // Check hashes stored by earlier runs
	StoreHashes  bool     `json:"store_hashes"`  // Store hashes in DB
}

// DefaultConfig returns default deduplication configuration
func DefaultConfig() Config {
	return Config{
		Strategy:     StrategyExact,
		Precision:    6,
		EnableLevel2: false,
		StoreHashes:  true,
	}
}

// Result contains the outcome of deduplication
type Result struct {
	OriginalCount int                     `json:"original_count"`
	UniqueCount   int                     `json:"unique_count"`
	RemovedCount  int                     `json:"removed_count"`
	Strategy      Strategy                `json:"strategy"`
	Unique        []domain.ParsedRecord   `json:"-"`
	Duplicates    []domain.DuplicateEntry `json:"duplicates"`
	Stats         Stats                   `json:"stats"`
}

// Stats provides detailed statistics
type Stats struct {
	Level1Duplicates int   `json:"level1_duplicates"` // Within run
	Level2Duplicates int   `json:"level2_duplicates"` // Against earlier runs
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// HashEntry represents a hash entry to be stored
type HashEntry struct {
	Hash       string
	RecordID   uuid.UUID
	SourceFile string
	Kept       bool
}

// HashRepository defines the interface for hash storage
type HashRepository interface {
	// CheckHashExists verifies if a kept hash exists for any run
	CheckHashExists(ctx context.Context, hash string) (bool, error)

	// SaveHashes stores hashes for a run
	SaveHashes(ctx context.Context, runID uuid.UUID, hashes []HashEntry) error
}

// Deduplicator defines the interface for deduplication operations
type Deduplicator interface {
	Deduplicate(ctx context.Context, runID uuid.UUID, records []domain.ParsedRecord) (*Result, error)
}

// SeriesHash hashes the x and y values of a series. Rounded hashing maps
// values that agree to precision decimals onto the same digest.
func SeriesHash(series domain.RawSeries, config Config) string {
	h := sha256.New()
	buf := make([]byte, 8)

	write := func(values []float64) {
		binary.LittleEndian.PutUint64(buf, uint64(len(values)))
		h.Write(buf)
		for _, v := range values {
			if config.Strategy == StrategyRounded {
				v = round(v, config.Precision)
			}
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			h.Write(buf)
		}
	}
	write(series.X)
	write(series.Y)

	return hex.EncodeToString(h.Sum(nil))
}

func round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // fold -0
	}
	return r
}
