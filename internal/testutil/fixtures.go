package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
)

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := NewSubscription(opts...)

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// fixtureSeq 保证同一测试内默认 (user_id, provider) 不冲突
var fixtureSeq int64

// NewSubscription 构建未落库的测试订阅
func NewSubscription(opts ...func(*model.Subscription)) *model.Subscription {
	seq := atomic.AddInt64(&fixtureSeq, 1)
	sub := &model.Subscription{
		UserID:         1000 + seq,
		Name:           fmt.Sprintf("subscription_%d", seq),
		Provider:       model.ProviderApple,
		ExpirationDate: time.Now().UTC().Truncate(time.Second).Add(-24 * time.Hour),
		Status:         model.StatusActive,
	}

	for _, opt := range opts {
		opt(sub)
	}

	return sub
}

// WithID 设置 ID
func WithID(id int64) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ID = id
	}
}

// WithUserID 设置用户 ID
func WithUserID(userID int64) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.UserID = userID
	}
}

// WithName 设置名称
func WithName(name string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Name = name
	}
}

// WithProvider 设置渠道
func WithProvider(provider model.Provider) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Provider = provider
	}
}

// WithStatus 设置状态
func WithStatus(status model.Status) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithExpiration 设置过期时间
func WithExpiration(expiration time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ExpirationDate = expiration
	}
}
