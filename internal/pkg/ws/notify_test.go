package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
)

func TestHub_NotifySubscriptionEvent_FromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(nil)
	server := serveHub(t, hub, 42)
	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(42) }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := pubsub.NewSubscriber(client, "")
	go func() {
		_ = subscriber.Subscribe(ctx, hub.NotifySubscriptionEvent)
	}()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(pubsub.ChannelSubscriptionEvents)[pubsub.ChannelSubscriptionEvents] == 1
	}, time.Second, 10*time.Millisecond)

	publisher := pubsub.NewPublisher(client, "")
	require.NoError(t, publisher.PublishEvent(ctx, &pubsub.SubscriptionEvent{
		Type:           pubsub.EventCanceled,
		SubscriptionID: 7,
		UserID:         42,
		Provider:       "APPLE",
		Status:         "CANCELED",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string                   `json:"type"`
		Data pubsub.SubscriptionEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, pubsub.EventCanceled, msg.Type)
	assert.Equal(t, int64(7), msg.Data.SubscriptionID)
	assert.Equal(t, "CANCELED", msg.Data.Status)
	assert.False(t, msg.Data.OccurredAt.IsZero())
}
