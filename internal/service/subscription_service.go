package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/validator"
)

// SubscriptionStore 订阅存储，FindByID 不存在时返回 gorm.ErrRecordNotFound
type SubscriptionStore interface {
	FindByID(id int64) (*model.Subscription, error)
	FindByUserID(userID int64) ([]model.Subscription, error)
	FindAll() ([]model.Subscription, error)
	Insert(sub *model.Subscription) (*model.Subscription, error)
	Update(sub *model.Subscription) (int64, error)
	Delete(id int64) (bool, error)
	Upsert(sub *model.Subscription) (*model.Subscription, error)
}

type RequestValidator interface {
	Validate(req *dto.CreateSubscriptionRequest) *validator.Result
}

type RequestMapper interface {
	Map(req *dto.CreateSubscriptionRequest) *model.Subscription
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event *pubsub.SubscriptionEvent) error
}

type SubscriptionService struct {
	store     SubscriptionStore
	validator RequestValidator
	mapper    RequestMapper
	publisher EventPublisher
	logger    *zap.Logger
}

// NewSubscriptionService publisher 可为 nil，此时不发布事件
func NewSubscriptionService(
	store SubscriptionStore,
	validator RequestValidator,
	mapper RequestMapper,
	publisher EventPublisher,
	logger *zap.Logger,
) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		store:     store,
		validator: validator,
		mapper:    mapper,
		publisher: publisher,
		logger:    logger,
	}
}

// Upsert 校验并创建订阅，同一用户同一渠道已存在时覆盖
func (s *SubscriptionService) Upsert(ctx context.Context, req *dto.CreateSubscriptionRequest) (*model.Subscription, error) {
	result := s.validator.Validate(req)
	if result.HasErrors() {
		return nil, &ValidationError{Errors: result.Errors()}
	}

	sub, err := s.store.Upsert(s.mapper.Map(req))
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	s.logger.Info("subscription upserted",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("user_id", sub.UserID),
		zap.String("provider", string(sub.Provider)),
	)
	s.publish(ctx, pubsub.EventUpserted, sub)
	return sub, nil
}

// Cancel 仅 ACTIVE 订阅可以取消
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (*model.Subscription, error) {
	sub, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if sub.Status != model.StatusActive {
		return nil, &TransitionError{
			ID:      id,
			Message: fmt.Sprintf("Only active subscription %d can be canceled", id),
		}
	}

	sub.Status = model.StatusCanceled
	if err := s.save(sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription canceled", zap.Int64("subscription_id", id))
	s.publish(ctx, pubsub.EventCanceled, sub)
	return sub, nil
}

// Expire 已过期的订阅不能再次过期
func (s *SubscriptionService) Expire(ctx context.Context, id int64) (*model.Subscription, error) {
	sub, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if sub.Status == model.StatusExpired {
		return nil, &TransitionError{
			ID:      id,
			Message: fmt.Sprintf("Subscription %d has already expired", id),
		}
	}

	sub.Status = model.StatusExpired
	if err := s.save(sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription expired", zap.Int64("subscription_id", id))
	s.publish(ctx, pubsub.EventExpired, sub)
	return sub, nil
}

// Get 获取订阅详情
func (s *SubscriptionService) Get(ctx context.Context, id int64) (*model.Subscription, error) {
	return s.load(id)
}

// ListByUser 获取用户的全部订阅
func (s *SubscriptionService) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	return s.store.FindByUserID(userID)
}

// List 获取全部订阅
func (s *SubscriptionService) List(ctx context.Context) ([]model.Subscription, error) {
	return s.store.FindAll()
}

// Delete 删除订阅
func (s *SubscriptionService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSubscriptionNotFound
	}
	s.logger.Info("subscription deleted", zap.Int64("subscription_id", id))
	return nil
}

func (s *SubscriptionService) load(id int64) (*model.Subscription, error) {
	sub, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) save(sub *model.Subscription) error {
	affected, err := s.store.Update(sub)
	if err != nil {
		return fmt.Errorf("update subscription %d: %w", sub.ID, err)
	}
	// 读取后被并发删除
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// publish 记录已落库，发布失败只记日志
func (s *SubscriptionService) publish(ctx context.Context, eventType string, sub *model.Subscription) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishEvent(ctx, &pubsub.SubscriptionEvent{
		Type:           eventType,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Provider:       string(sub.Provider),
		Status:         string(sub.Status),
	})
	if err != nil {
		s.logger.Warn("failed to publish subscription event",
			zap.String("type", eventType),
			zap.Int64("subscription_id", sub.ID),
			zap.Error(err),
		)
	}
}
