package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
)

const recordKeyPrefix = "xrd:records:"

// Store is the byte-level key/value store behind a RecordCache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RecordCache memoizes parse results by file content. Entries are keyed by
// the SHA-256 of a scope string and the file bytes, so an edited file or a
// change of format or decode options never hits a stale entry.
type RecordCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewRecordCache creates a cache over store; ttl 0 means no expiry
func NewRecordCache(store Store, ttl time.Duration, logger *slog.Logger) *RecordCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordCache{store: store, ttl: ttl, logger: logger}
}

// Key derives the cache key for a file's content decoded under scope
func Key(content []byte, scope string) string {
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write(content)
	return recordKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// GetRecords returns cached records for content. ok is false on a miss or
// on any store or decode error; errors are logged and treated as misses.
func (c *RecordCache) GetRecords(ctx context.Context, content []byte, scope string) ([]domain.ParsedRecord, bool) {
	key := Key(content, scope)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("record cache read failed", slog.String("key", key), "error", err)
		}
		return nil, false
	}

	records, err := decodeRecords(data)
	if err != nil {
		c.logger.Warn("record cache entry corrupt", slog.String("key", key), "error", err)
		return nil, false
	}
	return records, true
}

// SetRecords stores records for content under scope
func (c *RecordCache) SetRecords(ctx context.Context, content []byte, scope string, records []domain.ParsedRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, Key(content, scope), data, c.ttl); err != nil {
		return fmt.Errorf("failed to write record cache: %w", err)
	}
	return nil
}

func encodeRecords(records []domain.ParsedRecord) ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		data, err := r.MarshalCanonical()
		if err != nil {
			return nil, err
		}
		raw = append(raw, data)
	}
	return json.Marshal(raw)
}

func decodeRecords(data []byte) ([]domain.ParsedRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached records: %w", err)
	}

	records := make([]domain.ParsedRecord, 0, len(raw))
	for _, item := range raw {
		r, err := domain.UnmarshalCanonical(item)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
