package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

type memoryBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	writeErr error
	writes   map[string]int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte), writes: make(map[string]int)}
}

func (m *memoryBackend) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, appErrors.ErrRecordNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *memoryBackend) Write(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = append([]byte(nil), payload...)
	m.writes[key]++
	return nil
}

func (m *memoryBackend) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

func TestRecordStoreLoadDegradesToEmpty(t *testing.T) {
	backend := newMemoryBackend()
	backend.data[models.RecordKeyPendingEdits] = []byte("{not json")
	store := NewRecordStore(backend, nil)

	require.Empty(t, store.LoadClasses(context.Background()))
	require.NotNil(t, store.LoadClasses(context.Background()))
	require.Empty(t, store.LoadPendingEdits(context.Background()))
	require.Equal(t, "", store.LoadLastModified(context.Background()))
	require.Equal(t, map[string]string{}, store.LoadCustomStyles(context.Background()))
}

func TestRecordStoreSaveClassesStampsLastModified(t *testing.T) {
	backend := newMemoryBackend()
	store := NewRecordStore(backend, nil)
	store.now = func() time.Time { return time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC) }

	stamp, err := store.SaveClasses(context.Background(), []models.ClassRecord{{ID: "a", Name: "Bhangra"}})
	require.NoError(t, err)
	require.Equal(t, "2024-03-09T08:30:00.000Z", stamp)
	require.Equal(t, stamp, store.LoadLastModified(context.Background()))

	classes := store.LoadClasses(context.Background())
	require.Len(t, classes, 1)
	require.Equal(t, "Bhangra", classes[0].Name)
}

func TestRecordStoreSaveReplacesWholesale(t *testing.T) {
	backend := newMemoryBackend()
	store := NewRecordStore(backend, nil)

	require.NoError(t, store.SavePendingAdditions(context.Background(), []models.PendingAddition{
		{ClassRecord: models.ClassRecord{ID: "1"}, ApprovalToken: "t1"},
		{ClassRecord: models.ClassRecord{ID: "2"}, ApprovalToken: "t2"},
	}))
	require.NoError(t, store.SavePendingAdditions(context.Background(), nil))

	require.Equal(t, "[]", backend.raw(models.RecordKeyPendingAdditions))
	require.Empty(t, store.LoadPendingAdditions(context.Background()))
}

func TestRecordStoreSaveFailureReturnsError(t *testing.T) {
	backend := newMemoryBackend()
	backend.writeErr = errors.New("quota exceeded")
	store := NewRecordStore(backend, nil)

	stamp, err := store.SaveClasses(context.Background(), nil)
	require.Error(t, err)
	require.NotEmpty(t, stamp)
	require.Error(t, store.SaveCustomStyles(context.Background(), map[string]string{"Kathak": "#FF6B6B"}))
}
