package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/api/middleware"
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
	"github.com/qs3c/subs_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	admins              map[int64]struct{}
	logger              *zap.Logger
}

// NewSubscriptionHandler adminUserIDs 中的用户不受归属限制
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, adminUserIDs []int64, logger *zap.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[int64]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = struct{}{}
	}
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		admins:              admins,
		logger:              logger,
	}
}

// Upsert 创建或覆盖订阅
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Upsert(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	// user_id 缺失交给校验器报 100
	if req.UserID != nil && !h.authorize(c, *req.UserID) {
		return
	}

	sub, err := h.subscriptionService.Upsert(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, dto.NewSubscriptionInfo(sub))
}

// List 获取全部订阅，仅管理员
// GET /api/v1/subscriptions
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	if !h.isAdmin(userID) {
		response.PermissionError(c, "")
		return
	}

	subs, err := h.subscriptionService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, dto.NewSubscriptionInfoList(subs))
}

// Mine 获取当前用户的订阅
// GET /api/v1/subscriptions/mine
func (h *SubscriptionHandler) Mine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	h.listByUser(c, userID)
}

// ListByUser 获取指定用户的订阅
// GET /api/v1/users/:user_id/subscriptions
func (h *SubscriptionHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的用户ID")
		return
	}
	if !h.authorize(c, userID) {
		return
	}

	h.listByUser(c, userID)
}

func (h *SubscriptionHandler) listByUser(c *gin.Context, userID int64) {
	subs, err := h.subscriptionService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, dto.NewSubscriptionInfoList(subs))
}

// Get 获取订阅详情
// GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	sub, ok := h.ownedSubscription(c, id)
	if !ok {
		return
	}

	response.Success(c, dto.NewSubscriptionInfo(sub))
}

// Delete 删除订阅
// DELETE /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	if _, ok := h.ownedSubscription(c, id); !ok {
		return
	}

	if err := h.subscriptionService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Cancel 取消订阅
// POST /api/v1/subscriptions/:id/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	if _, ok := h.ownedSubscription(c, id); !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, dto.NewSubscriptionInfo(sub))
}

// Expire 将订阅置为过期
// POST /api/v1/subscriptions/:id/expire
func (h *SubscriptionHandler) Expire(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	if _, ok := h.ownedSubscription(c, id); !ok {
		return
	}

	sub, err := h.subscriptionService.Expire(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, dto.NewSubscriptionInfo(sub))
}

// ownedSubscription 读取订阅并校验调用者可操作，失败时已写出响应
func (h *SubscriptionHandler) ownedSubscription(c *gin.Context, id int64) (*model.Subscription, bool) {
	sub, err := h.subscriptionService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if !h.authorize(c, sub.UserID) {
		return nil, false
	}
	return sub, true
}

// authorize 调用者为 ownerID 本人或管理员
func (h *SubscriptionHandler) authorize(c *gin.Context, ownerID int64) bool {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return false
	}
	if userID != ownerID && !h.isAdmin(userID) {
		response.PermissionError(c, "无权操作该订阅")
		return false
	}
	return true
}

func (h *SubscriptionHandler) isAdmin(userID int64) bool {
	_, ok := h.admins[userID]
	return ok
}

func subscriptionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的订阅ID")
		return 0, false
	}
	return id, true
}

// fail 将服务层错误映射为统一响应
func (h *SubscriptionHandler) fail(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var transitionErr *service.TransitionError

	switch {
	case errors.As(err, &validationErr):
		fields := make([]dto.FieldError, 0, len(validationErr.Errors))
		for _, fe := range validationErr.Errors {
			fields = append(fields, dto.FieldError{Code: fe.Code, Message: fe.Message})
		}
		response.ValidationError(c, "", fields)
	case errors.Is(err, service.ErrSubscriptionNotFound):
		response.NotFoundError(c, err.Error())
	case errors.As(err, &transitionErr):
		response.TransitionError(c, transitionErr.Message)
	default:
		h.logger.Error("subscription request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.ServerError(c, "")
	}
}
