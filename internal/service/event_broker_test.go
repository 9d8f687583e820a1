package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
)

func TestEventBrokerFansOut(t *testing.T) {
	broker := NewEventBroker(nil)
	first, unsubFirst := broker.Subscribe()
	second, unsubSecond := broker.Subscribe()
	defer unsubSecond()
	require.Equal(t, 2, broker.Subscribers())

	broker.Publish(models.BoardEvent{Type: models.BoardEventClassesChanged, Reason: "approval"})

	for _, ch := range []<-chan models.BoardEvent{first, second} {
		select {
		case evt := <-ch:
			require.Equal(t, models.BoardEventClassesChanged, evt.Type)
			require.False(t, evt.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	unsubFirst()
	unsubFirst()
	require.Equal(t, 1, broker.Subscribers())
	_, open := <-first
	require.False(t, open)
}

func TestEventBrokerDropsForSlowSubscriber(t *testing.T) {
	broker := NewEventBroker(nil)
	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	for i := 0; i < cap(ch)+5; i++ {
		broker.Publish(models.BoardEvent{Type: models.BoardEventPendingChanged, Count: i})
	}
	require.Len(t, ch, cap(ch))
}

func TestNilEventBrokerPublishIsNoop(t *testing.T) {
	var broker *EventBroker
	require.NotPanics(t, func() {
		broker.Publish(models.BoardEvent{Type: models.BoardEventClassesChanged})
	})
}
