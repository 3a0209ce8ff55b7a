package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/pkg/queue"
	"github.com/qs3c/subs_go_server/internal/service"
)

// Expirer 订阅过期操作
type Expirer interface {
	Get(ctx context.Context, id int64) (*model.Subscription, error)
	Expire(ctx context.Context, id int64) (*model.Subscription, error)
}

// JobSource 过期任务来源
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.ExpireJob, error)
}

// Processor 过期任务处理器
type Processor struct {
	expirer Expirer
	logger  *zap.Logger
	now     func() time.Time
}

// NewProcessor 创建任务处理器
func NewProcessor(expirer Expirer, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		expirer: expirer,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Process 处理过期任务；订阅已不存在、已过期或已续期视为完成
func (p *Processor) Process(ctx context.Context, job *queue.ExpireJob) error {
	sub, err := p.expirer.Get(ctx, job.SubscriptionID)
	if err == nil && !sub.ExpirationDate.Before(p.now()) {
		// 入队后用户已续期
		p.logger.Info("expire job skipped",
			zap.Int64("subscription_id", job.SubscriptionID),
			zap.String("reason", "subscription renewed"),
			zap.Time("expiration_date", sub.ExpirationDate),
		)
		return nil
	}
	if err == nil {
		_, err = p.expirer.Expire(ctx, job.SubscriptionID)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrSubscriptionNotFound), errors.Is(err, service.ErrInvalidTransition):
		p.logger.Info("expire job skipped",
			zap.Int64("subscription_id", job.SubscriptionID),
			zap.String("reason", err.Error()),
		)
		return nil
	default:
		return fmt.Errorf("expire subscription %d: %w", job.SubscriptionID, err)
	}
}

// Run 启动 workers 个消费协程，直到 ctx 取消
func (p *Processor) Run(ctx context.Context, source JobSource, workers int, popTimeout time.Duration) {
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.consume(ctx, source, workerID, popTimeout)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) consume(ctx context.Context, source JobSource, workerID int, popTimeout time.Duration) {
	log := p.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		default:
		}

		job, err := source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to pop job", zap.Error(err))
			continue
		}

		if job == nil {
			continue // 超时，继续等待
		}

		if err := p.Process(ctx, job); err != nil {
			log.Error("expire job failed",
				zap.Int64("subscription_id", job.SubscriptionID),
				zap.Error(err),
			)
		}
	}
}
