package ws

import (
	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
)

// NotifySubscriptionEvent 将订阅事件推送给订阅所属用户，可直接作为 pubsub.Subscriber 的 handler
func (h *Hub) NotifySubscriptionEvent(event *pubsub.SubscriptionEvent) {
	err := h.SendToUser(event.UserID, &Message{Type: event.Type, Data: event})
	if err != nil {
		h.logger.Warn("failed to push subscription event",
			zap.String("type", event.Type),
			zap.Int64("subscription_id", event.SubscriptionID),
			zap.Error(err),
		)
	}
}
