package repository

import (
	"context"
	"errors"
	"fmt"

	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
	"github.com/noah-isme/dance-board-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
}

// FileRecordRepository keeps each record key as one JSON file.
type FileRecordRepository struct {
	files fileStorage
}

// NewFileRecordRepository constructs the repository on top of local storage.
func NewFileRecordRepository(files fileStorage) *FileRecordRepository {
	return &FileRecordRepository{files: files}
}

// Read returns the raw document stored under key.
func (r *FileRecordRepository) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.files.Read(filename(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	return data, nil
}

// Write replaces the document stored under key.
func (r *FileRecordRepository) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.files.Save(filename(key), payload); err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

func filename(key string) string {
	return key + ".json"
}
