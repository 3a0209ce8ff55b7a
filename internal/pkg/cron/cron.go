package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/pkg/queue"
)

// DueFinder 查询已到期的 ACTIVE 订阅
type DueFinder interface {
	FindActiveExpiredBefore(t time.Time, limit int) ([]model.Subscription, error)
}

// JobPusher 过期任务入队
type JobPusher interface {
	Push(ctx context.Context, job *queue.ExpireJob) error
}

type Service struct {
	finder    DueFinder
	jobs      JobPusher
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

func NewService(
	finder DueFinder,
	jobs JobPusher,
	interval time.Duration,
	batchSize int,
	logger *zap.Logger,
) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		finder:    finder,
		jobs:      jobs,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		stopChan:  make(chan struct{}),
	}
}

// Start 启动过期扫描
func (s *Service) Start() {
	go s.runSweep()
	s.logger.Info("expiry sweep started", zap.Duration("interval", s.interval))
}

// Stop 停止过期扫描，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info("expiry sweep stopped")
	})
}

func (s *Service) runSweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if _, err := s.RunNow(ctx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// RunNow 立即执行一次扫描，返回入队的任务数
// 未被处理的订阅会在下一轮重复入队，worker 对已过期的订阅会直接跳过
func (s *Service) RunNow(ctx context.Context) (int, error) {
	due, err := s.finder.FindActiveExpiredBefore(s.now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find due subscriptions: %w", err)
	}

	pushed := 0
	for _, sub := range due {
		job := &queue.ExpireJob{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			ExpirationDate: sub.ExpirationDate,
		}
		if err := s.jobs.Push(ctx, job); err != nil {
			return pushed, fmt.Errorf("push expire job %d: %w", sub.ID, err)
		}
		pushed++
	}

	if pushed > 0 {
		s.logger.Info("expire jobs enqueued", zap.Int("count", pushed))
	}
	return pushed, nil
}
