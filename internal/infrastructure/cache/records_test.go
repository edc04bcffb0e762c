package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements Store for testing
type mockStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

const csvScope = "format=csv;orientation=unknown;x_unit=auto;wavelength=1.5406"

func TestKey(t *testing.T) {
	content := []byte("10,1\n20,2\n")
	a := Key(content, csvScope)
	b := Key([]byte("10,1\n20,3\n"), csvScope)

	assert.True(t, strings.HasPrefix(a, "xrd:records:"))
	assert.Len(t, strings.TrimPrefix(a, "xrd:records:"), 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key(content, csvScope))
}

func TestKey_Scope(t *testing.T) {
	content := []byte("q,intensity\n1,10\n2,20\n")
	base := Key(content, csvScope)

	scopes := []string{
		"format=dat;orientation=unknown;x_unit=auto;wavelength=1.5406",
		"format=csv;orientation=unknown;x_unit=q;wavelength=1.5406",
		"format=csv;orientation=horizontal;x_unit=auto;wavelength=1.5406",
		"format=csv;orientation=unknown;x_unit=auto;wavelength=0.7093",
	}
	for _, scope := range scopes {
		assert.NotEqual(t, base, Key(content, scope), scope)
	}
}

func TestRecordCache_RoundTrip(t *testing.T) {
	store := newMockStore()
	cache := NewRecordCache(store, time.Hour, nil)
	ctx := context.Background()
	content := []byte("x,y\n10,1\n20,2\n")

	_, ok := cache.GetRecords(ctx, content, csvScope)
	assert.False(t, ok)

	record := domain.NewParsedRecord(
		domain.RawSeries{X: []float64{10, 20}, Y: []float64{1, 2}},
		"scan.csv", domain.FormatCSV,
		domain.Metadata{PrimaryWavelength: domain.Float64Ptr(1.5406)},
	)
	require.NoError(t, cache.SetRecords(ctx, content, csvScope, []domain.ParsedRecord{record}))
	assert.Equal(t, time.Hour, store.ttls[Key(content, csvScope)])

	_, ok = cache.GetRecords(ctx, content, "format=dat")
	assert.False(t, ok, "another scope misses")

	got, ok := cache.GetRecords(ctx, content, csvScope)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, record.ID, got[0].ID)
	assert.Equal(t, record.Series, got[0].Series)
	assert.Equal(t, 1.5406, *got[0].Metadata.PrimaryWavelength)
}

func TestRecordCache_ErrorsAreMisses(t *testing.T) {
	store := newMockStore()
	cache := NewRecordCache(store, 0, nil)
	ctx := context.Background()

	store.data[Key([]byte("bad"), csvScope)] = []byte("not json")
	_, ok := cache.GetRecords(ctx, []byte("bad"), csvScope)
	assert.False(t, ok)

	store.getErr = errors.New("connection reset")
	_, ok = cache.GetRecords(ctx, []byte("anything"), csvScope)
	assert.False(t, ok)
}
