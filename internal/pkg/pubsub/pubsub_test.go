package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestSubscriptionEvent_JSON(t *testing.T) {
	event := &SubscriptionEvent{
		Type:           EventCanceled,
		SubscriptionID: 1,
		UserID:         2,
		Provider:       "APPLE",
		Status:         "CANCELED",
		OccurredAt:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	// Verify snake_case keys
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "subscription_id")
	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "occurred_at")
	assert.Equal(t, EventCanceled, raw["type"])
}

func TestNewPublisher_DefaultChannel(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.Equal(t, ChannelSubscriptionEvents, NewPublisher(client, "").channel)
	assert.Equal(t, "custom", NewPublisher(client, "custom").channel)
	assert.Equal(t, ChannelSubscriptionEvents, NewSubscriber(client, "").channel)
}

func TestPublishEvent_FillsOccurredAt(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	event := &SubscriptionEvent{Type: EventExpired, SubscriptionID: 5}
	err := NewPublisher(client, "").PublishEvent(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestPublisherSubscriber(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	publisher := NewPublisher(client, "test_events")
	subscriber := NewSubscriber(client, "test_events")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *SubscriptionEvent, 1)
	go func() {
		_ = subscriber.Subscribe(ctx, func(event *SubscriptionEvent) {
			received <- event
		})
	}()

	// Give subscriber time to connect
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, "test_events").Result()
		return err == nil && n["test_events"] > 0
	}, 2*time.Second, 10*time.Millisecond)

	err := publisher.PublishEvent(ctx, &SubscriptionEvent{
		Type:           EventUpserted,
		SubscriptionID: 42,
		UserID:         7,
		Provider:       "GOOGLE",
		Status:         "ACTIVE",
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, EventUpserted, event.Type)
		assert.Equal(t, int64(42), event.SubscriptionID)
		assert.Equal(t, int64(7), event.UserID)
		assert.Equal(t, "GOOGLE", event.Provider)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for event")
	}
}
