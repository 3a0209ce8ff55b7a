package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/api"
	"github.com/qs3c/subs_go_server/internal/api/handler"
	"github.com/qs3c/subs_go_server/internal/database"
	"github.com/qs3c/subs_go_server/internal/mapper"
	"github.com/qs3c/subs_go_server/internal/pkg/logger"
	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
	"github.com/qs3c/subs_go_server/internal/pkg/ws"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/service"
	"github.com/qs3c/subs_go_server/internal/validator"
)

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
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}
	zlog.Info("database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	zlog.Info("redis connected")

	// 初始化 Service
	subscriptionService := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		validator.NewCreateSubscriptionValidator(nil),
		mapper.NewCreateSubscriptionMapper(),
		pubsub.NewPublisher(rdb, cfg.Expiry.EventChannel),
		zlog.Named("subscription"),
	)

	// 订阅事件推送到 WebSocket
	wsHub := ws.NewHub(zlog.Named("ws"))
	subscriber := pubsub.NewSubscriber(rdb, cfg.Expiry.EventChannel)

	eventCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	go func() {
		err := subscriber.Subscribe(eventCtx, wsHub.NotifySubscriptionEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("event subscription stopped", zap.Error(err))
		}
	}()

	// 初始化 Router
	router := api.NewRouter(
		handler.NewSubscriptionHandler(subscriptionService, cfg.JWT.AdminUserIDs, zlog.Named("handler")),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, zlog.Named("ws")),
		cfg,
		zlog.Named("http"),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// 监听退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	stopEvents()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}
