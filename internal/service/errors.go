package service

import (
	"errors"
	"strings"

	"github.com/qs3c/subs_go_server/internal/validator"
)

var (
	ErrSubscriptionNotFound = errors.New("订阅不存在")
	ErrValidation           = errors.New("参数校验失败")
	ErrInvalidTransition    = errors.New("订阅状态不允许该操作")
)

// ValidationError 携带全部字段错误，errors.Is(err, ErrValidation) 为 true
type ValidationError struct {
	Errors []validator.Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Codes 返回全部错误码
func (e *ValidationError) Codes() []int {
	codes := make([]int, 0, len(e.Errors))
	for _, fe := range e.Errors {
		codes = append(codes, fe.Code)
	}
	return codes
}

// TransitionError 状态流转被拒绝，Message 指明订阅 ID 与不满足的前置条件
type TransitionError struct {
	ID      int64
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
