package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

// RecordBackend persists raw documents by key.
type RecordBackend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, payload []byte) error
}

// RecordStore is the local durable copy of the board collections. Loads never
// fail: missing or corrupt content degrades to an empty collection.
type RecordStore struct {
	backend RecordBackend
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecordStore constructs the store on top of a backend.
func NewRecordStore(backend RecordBackend, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{backend: backend, logger: logger, now: time.Now}
}

// LoadClasses returns the committed collection.
func (s *RecordStore) LoadClasses(ctx context.Context) []models.ClassRecord {
	return loadCollection[models.ClassRecord](ctx, s, models.RecordKeyClasses)
}

// LoadPendingAdditions returns the pending additions collection.
func (s *RecordStore) LoadPendingAdditions(ctx context.Context) []models.PendingAddition {
	return loadCollection[models.PendingAddition](ctx, s, models.RecordKeyPendingAdditions)
}

// LoadPendingEdits returns the pending edits collection.
func (s *RecordStore) LoadPendingEdits(ctx context.Context) []models.PendingEdit {
	return loadCollection[models.PendingEdit](ctx, s, models.RecordKeyPendingEdits)
}

// LoadPendingDeletions returns the pending deletions collection.
func (s *RecordStore) LoadPendingDeletions(ctx context.Context) []models.PendingDeletion {
	return loadCollection[models.PendingDeletion](ctx, s, models.RecordKeyPendingDeletions)
}

// LoadLastModified returns the local change stamp or "".
func (s *RecordStore) LoadLastModified(ctx context.Context) string {
	var stamp string
	if !s.load(ctx, models.RecordKeyLastModified, &stamp) {
		return ""
	}
	return stamp
}

// LoadCustomStyles returns the custom style colour assignments.
func (s *RecordStore) LoadCustomStyles(ctx context.Context) map[string]string {
	styles := map[string]string{}
	if !s.load(ctx, models.RecordKeyCustomStyles, &styles) || styles == nil {
		return map[string]string{}
	}
	return styles
}

// SaveClasses replaces the committed collection and stamps the local change
// time. The stamp is returned even when persistence fails.
func (s *RecordStore) SaveClasses(ctx context.Context, classes []models.ClassRecord) (string, error) {
	stamp := models.FormatTimestamp(s.now())
	if classes == nil {
		classes = []models.ClassRecord{}
	}
	if err := s.save(ctx, models.RecordKeyClasses, classes); err != nil {
		return stamp, err
	}
	return stamp, s.save(ctx, models.RecordKeyLastModified, stamp)
}

// SetLastModified overrides the local change stamp.
func (s *RecordStore) SetLastModified(ctx context.Context, stamp string) error {
	return s.save(ctx, models.RecordKeyLastModified, stamp)
}

// SavePendingAdditions replaces the pending additions collection.
func (s *RecordStore) SavePendingAdditions(ctx context.Context, additions []models.PendingAddition) error {
	if additions == nil {
		additions = []models.PendingAddition{}
	}
	return s.save(ctx, models.RecordKeyPendingAdditions, additions)
}

// SavePendingEdits replaces the pending edits collection.
func (s *RecordStore) SavePendingEdits(ctx context.Context, edits []models.PendingEdit) error {
	if edits == nil {
		edits = []models.PendingEdit{}
	}
	return s.save(ctx, models.RecordKeyPendingEdits, edits)
}

// SavePendingDeletions replaces the pending deletions collection.
func (s *RecordStore) SavePendingDeletions(ctx context.Context, deletions []models.PendingDeletion) error {
	if deletions == nil {
		deletions = []models.PendingDeletion{}
	}
	return s.save(ctx, models.RecordKeyPendingDeletions, deletions)
}

// SaveCustomStyles replaces the custom style colour assignments.
func (s *RecordStore) SaveCustomStyles(ctx context.Context, styles map[string]string) error {
	return s.save(ctx, models.RecordKeyCustomStyles, styles)
}

func loadCollection[T any](ctx context.Context, s *RecordStore, key string) []T {
	var out []T
	if !s.load(ctx, key, &out) || out == nil {
		return []T{}
	}
	return out
}

func (s *RecordStore) load(ctx context.Context, key string, dest interface{}) bool {
	raw, err := s.backend.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, appErrors.ErrRecordNotFound) {
			s.logger.Warn("record load failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("record corrupt, using empty value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *RecordStore) save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	if err := s.backend.Write(ctx, key, payload); err != nil {
		s.logger.Error("record save failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
