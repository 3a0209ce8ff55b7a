package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/database"
	"github.com/qs3c/subs_go_server/internal/mapper"
	"github.com/qs3c/subs_go_server/internal/pkg/cron"
	"github.com/qs3c/subs_go_server/internal/pkg/logger"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/pkg/queue"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/service"
	"github.com/qs3c/subs_go_server/internal/validator"
	"github.com/qs3c/subs_go_server/internal/worker"
)

const popTimeout = 5 * time.Second

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	zlog.Info("database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	zlog.Info("redis connected")

	// 初始化 Queue 和 Pub/Sub
	expireQueue := queue.NewQueue(rdb, cfg.Expiry.Queue)
	publisher := pubsub.NewPublisher(rdb, cfg.Expiry.EventChannel)
	subscriber := pubsub.NewSubscriber(rdb, cfg.Expiry.EventChannel)

	// 初始化 Repository 和 Service
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	subscriptionService := service.NewSubscriptionService(
		subscriptionRepo,
		validator.NewCreateSubscriptionValidator(nil),
		mapper.NewCreateSubscriptionMapper(),
		publisher,
		zlog.Named("subscription"),
	)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		zlog.Info("received shutdown signal")
		cancel()
	}()

	// 启动过期扫描
	sweeper := cron.NewService(
		subscriptionRepo,
		expireQueue,
		time.Duration(cfg.Expiry.SweepInterval)*time.Second,
		cfg.Expiry.BatchSize,
		zlog.Named("sweep"),
	)
	sweeper.Start()
	defer sweeper.Stop()

	// 事件审计日志
	events := zlog.Named("events")
	go func() {
		err := subscriber.Subscribe(ctx, func(e *pubsub.SubscriptionEvent) {
			events.Info(e.Type,
				zap.Int64("subscription_id", e.SubscriptionID),
				zap.Int64("user_id", e.UserID),
				zap.String("provider", e.Provider),
				zap.String("status", e.Status),
				zap.Time("occurred_at", e.OccurredAt),
			)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			events.Error("event subscription stopped", zap.Error(err))
		}
	}()

	zlog.Info("worker started",
		zap.Int("max_workers", cfg.Expiry.MaxWorkers),
		zap.Int("sweep_interval_sec", cfg.Expiry.SweepInterval),
	)

	// 阻塞直到 ctx 取消且所有消费协程退出
	processor := worker.NewProcessor(subscriptionService, zlog.Named("worker"))
	processor.Run(ctx, expireQueue, cfg.Expiry.MaxWorkers, popTimeout)

	zlog.Info("worker shutdown complete")
}
