package mapper

import (
	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
)

// CreateSubscriptionMapper 将已校验的创建请求转换为订阅实体
type CreateSubscriptionMapper struct{}

func NewCreateSubscriptionMapper() *CreateSubscriptionMapper {
	return &CreateSubscriptionMapper{}
}

// Map 请求需已通过校验，新订阅状态固定为 ACTIVE，过期时间统一为 UTC
func (m *CreateSubscriptionMapper) Map(req *dto.CreateSubscriptionRequest) *model.Subscription {
	sub := &model.Subscription{
		Name:     req.Name,
		Provider: model.MustProvider(req.Provider),
		Status:   model.StatusActive,
	}
	if req.UserID != nil {
		sub.UserID = *req.UserID
	}
	if req.ExpirationDate != nil {
		sub.ExpirationDate = req.ExpirationDate.UTC()
	}
	return sub
}
