package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelSubscriptionEvents = "subscription_events"
)

// 事件类型
const (
	EventUpserted = "subscription.upserted"
	EventCanceled = "subscription.canceled"
	EventExpired  = "subscription.expired"
)

// SubscriptionEvent 订阅生命周期事件
type SubscriptionEvent struct {
	Type           string    `json:"type"`
	SubscriptionID int64     `json:"subscription_id"`
	UserID         int64     `json:"user_id"`
	Provider       string    `json:"provider"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者，channel 为空时使用默认频道
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = ChannelSubscriptionEvents
	}
	return &Publisher{client: client, channel: channel}
}

// PublishEvent 发布订阅事件
func (p *Publisher) PublishEvent(ctx context.Context, event *SubscriptionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = ChannelSubscriptionEvents
	}
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 订阅事件，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*SubscriptionEvent)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// 等待订阅确认，避免丢失随后发布的消息
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", s.channel, err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event SubscriptionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
