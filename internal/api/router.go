package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/api/handler"
	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
)

type Router struct {
	subscriptionHandler *handler.SubscriptionHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
	logger              *zap.Logger
}

func NewRouter(
	subscriptionHandler *handler.SubscriptionHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		subscriptionHandler: subscriptionHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
		logger:              logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(r.logger))
	engine.Use(middleware.RequestLogger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	// WebSocket 通过 query token 认证
	v1.GET("/ws", r.websocketHandler.Handle)

	api := v1.Group("")
	api.Use(middleware.Auth(r.cfg.JWT.Secret))
	{
		// 订阅
		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.POST("", r.subscriptionHandler.Upsert)
			subscriptions.GET("", r.subscriptionHandler.List)
			subscriptions.GET("/mine", r.subscriptionHandler.Mine)
			subscriptions.GET("/:id", r.subscriptionHandler.Get)
			subscriptions.DELETE("/:id", r.subscriptionHandler.Delete)
			subscriptions.POST("/:id/cancel", r.subscriptionHandler.Cancel)
			subscriptions.POST("/:id/expire", r.subscriptionHandler.Expire)
		}

		// 用户
		api.GET("/users/:user_id/subscriptions", r.subscriptionHandler.ListByUser)
	}

	return engine
}
