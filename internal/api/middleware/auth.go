package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/subs_go_server/internal/pkg/jwt"
	"github.com/qs3c/subs_go_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
)

// Auth JWT 认证中间件，通过后将用户 ID 写入上下文
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			msg := "认证失败"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "认证已过期"
			}
			response.AuthError(c, msg)
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", false
	}
	return token, true
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}
