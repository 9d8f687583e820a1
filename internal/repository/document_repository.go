package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
)

const documentKeyPrefix = "board:doc:"

// DocumentRepository stores the shared board documents in Redis. Every Set
// overwrites the whole document and is broadcast on the document's channel.
type DocumentRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
	now    func() time.Time
}

// NewDocumentRepository constructs a document repository.
func NewDocumentRepository(client redis.UniversalClient, logger *zap.Logger) *DocumentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRepository{client: client, logger: logger, now: time.Now}
}

// Get returns the stored document, or nil when it has never been written.
func (r *DocumentRepository) Get(ctx context.Context, key string) (*models.Document, error) {
	raw, err := r.client.Get(ctx, storageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	doc.Key = key
	return &doc, nil
}

// Set replaces the document payload, stamps lastUpdated and notifies subscribers.
func (r *DocumentRepository) Set(ctx context.Context, key string, data interface{}) (*models.Document, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", key, err)
	}

	doc := models.Document{
		Key:         key,
		Data:        payload,
		LastUpdated: models.FormatTimestamp(r.now()),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", key, err)
	}

	if err := r.client.Set(ctx, storageKey(key), raw, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis set %s: %w", key, err)
	}
	if err := r.client.Publish(ctx, channelName(key), raw).Err(); err != nil {
		// the write itself landed; subscribers catch up on their next change
		r.logger.Warn("publish document change failed", zap.String("key", key), zap.Error(err))
	}
	return &doc, nil
}

// Subscribe invokes onChange for every write to key, including our own,
// until ctx is cancelled or the returned closer is called.
func (r *DocumentRepository) Subscribe(ctx context.Context, key string, onChange func(models.Document)) (func() error, error) {
	pubsub := r.client.Subscribe(ctx, channelName(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	messages := pubsub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var doc models.Document
				if err := json.Unmarshal([]byte(msg.Payload), &doc); err != nil {
					r.logger.Warn("discarding malformed document change", zap.String("key", key), zap.Error(err))
					continue
				}
				doc.Key = key
				onChange(doc)
			}
		}
	}()

	return pubsub.Close, nil
}

// Ping reports whether Redis answers.
func (r *DocumentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func storageKey(key string) string {
	return documentKeyPrefix + key
}

func channelName(key string) string {
	return documentKeyPrefix + key + ":changes"
}
