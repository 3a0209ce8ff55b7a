package dto

import (
	"time"

	"github.com/qs3c/subs_go_server/internal/model"
)

// CreateSubscriptionRequest 创建/更新订阅请求
// 字段校验由 validator 包完成，这里不使用 binding 标签
type CreateSubscriptionRequest struct {
	UserID         *int64     `json:"user_id"`
	Name           string     `json:"name"`
	Provider       string     `json:"provider"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// SubscriptionInfo 订阅信息
type SubscriptionInfo struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	Provider       string `json:"provider"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
}

// FieldError 字段校验错误
type FieldError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewSubscriptionInfo 由实体构建响应
func NewSubscriptionInfo(s *model.Subscription) *SubscriptionInfo {
	return &SubscriptionInfo{
		ID:             s.ID,
		UserID:         s.UserID,
		Name:           s.Name,
		Provider:       string(s.Provider),
		ExpirationDate: s.ExpirationDate.UTC().Format(time.RFC3339),
		Status:         string(s.Status),
	}
}

// NewSubscriptionInfoList 批量构建响应
func NewSubscriptionInfoList(subs []model.Subscription) []*SubscriptionInfo {
	items := make([]*SubscriptionInfo, 0, len(subs))
	for i := range subs {
		items = append(items, NewSubscriptionInfo(&subs[i]))
	}
	return items
}
