package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/pkg"
)

const ContextUserIDKey = "user_id"

// Verifier 校验 bearer token 返回用户 id
type Verifier interface {
	Verify(ctx context.Context, token string) (uint64, error)
}

// AuthMiddleware 校验失败时交给 fail 输出统一错误格式
func AuthMiddleware(v Verifier, fail func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail(c, pkg.Unauthenticated("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			fail(c, pkg.Unauthenticated("invalid authorization format"))
			return
		}

		userID, err := v.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			fail(c, err)
			return
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID 取出认证后的用户 id，未认证时为 0
func UserID(c *gin.Context) uint64 {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}
