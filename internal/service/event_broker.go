package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
)

const defaultSubscriberBuffer = 16

// EventBroker fans board refresh events out to connected viewers. Slow
// subscribers lose events rather than block the publisher.
type EventBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.BoardEvent
	logger *zap.Logger
	now    func() time.Time
}

// NewEventBroker constructs a broker.
func NewEventBroker(logger *zap.Logger) *EventBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBroker{subs: make(map[int]chan models.BoardEvent), logger: logger, now: time.Now}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (b *EventBroker) Subscribe() (<-chan models.BoardEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan models.BoardEvent, defaultSubscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers event to every subscriber.
func (b *EventBroker) Publish(event models.BoardEvent) {
	if b == nil {
		return
	}
	if event.At.IsZero() {
		event.At = b.now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("dropping board event for slow subscriber", zap.Int("subscriber", id), zap.String("type", string(event.Type)))
		}
	}
}

// Subscribers reports the number of connected listeners.
func (b *EventBroker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
