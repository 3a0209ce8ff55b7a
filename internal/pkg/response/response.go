package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess           = 0
	CodeParamError        = 1000
	CodeAuthFailed        = 1001
	CodePermissionDenied  = 1002
	CodeResourceNotFound  = 1003
	CodeInvalidTransition = 1006
	CodeServerError       = 5000
)

var codeMessages = map[int]string{
	CodeSuccess:           "success",
	CodeParamError:        "参数错误",
	CodeAuthFailed:        "认证失败",
	CodePermissionDenied:  "权限不足",
	CodeResourceNotFound:  "资源不存在",
	CodeInvalidTransition: "状态不允许该操作",
	CodeServerError:       "服务器内部错误",
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应，message 为空时使用错误码默认消息
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 携带数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// ValidationError 参数校验失败，data 为全部字段错误
func ValidationError(c *gin.Context, message string, errors interface{}) {
	ErrorWithData(c, CodeParamError, message, errors)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// TransitionError 状态流转被拒绝
func TransitionError(c *gin.Context, message string) {
	Error(c, CodeInvalidTransition, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
