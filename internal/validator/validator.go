package validator

import (
	"time"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
)

// 校验错误码
const (
	CodeInvalidUserID         = 100
	CodeInvalidName           = 101
	CodeInvalidProvider       = 102
	CodeInvalidExpirationDate = 103
)

// Error 单条校验错误
type Error struct {
	Code    int
	Message string
}

// Result 校验结果，按规则顺序累积错误
type Result struct {
	errors []Error
}

func (r *Result) Add(err Error) {
	r.errors = append(r.errors, err)
}

func (r *Result) HasErrors() bool {
	return len(r.errors) > 0
}

func (r *Result) Errors() []Error {
	return r.errors
}

// Codes 返回全部错误码
func (r *Result) Codes() []int {
	codes := make([]int, 0, len(r.errors))
	for _, e := range r.errors {
		codes = append(codes, e.Code)
	}
	return codes
}

// CreateSubscriptionValidator 创建订阅请求校验器
type CreateSubscriptionValidator struct {
	now func() time.Time
}

func NewCreateSubscriptionValidator(now func() time.Time) *CreateSubscriptionValidator {
	if now == nil {
		now = time.Now
	}
	return &CreateSubscriptionValidator{now: now}
}

// Validate 校验请求，所有规则都会执行，不会提前返回
func (v *CreateSubscriptionValidator) Validate(req *dto.CreateSubscriptionRequest) *Result {
	result := &Result{}

	if req.UserID == nil {
		result.Add(Error{Code: CodeInvalidUserID, Message: "userId is invalid"})
	}
	if req.Name == "" {
		result.Add(Error{Code: CodeInvalidName, Message: "name is invalid"})
	}
	if _, ok := model.FindProviderByName(req.Provider); !ok {
		result.Add(Error{Code: CodeInvalidProvider, Message: "provider is invalid"})
	}
	if req.ExpirationDate == nil || !req.ExpirationDate.After(v.now()) {
		result.Add(Error{Code: CodeInvalidExpirationDate, Message: "expirationDate is invalid"})
	}

	return result
}
