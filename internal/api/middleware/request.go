package middleware

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/pkg/response"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "requestID"

	maxRequestIDLength = 128
)

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RequestID 透传或生成请求 ID，非法的客户端 ID 会被替换
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 从上下文获取请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	return requestIDPattern.MatchString(id)
}

// RequestLogger 记录每个请求的访问日志
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			logger.Warn("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// Recovery 捕获 panic 并返回统一的服务器错误响应
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
				)
				response.ServerError(c, "")
				c.Abort()
			}
		}()
		c.Next()
	}
}
