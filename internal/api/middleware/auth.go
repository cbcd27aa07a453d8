package middleware

import (
	"strings"

	"nutriguard/internal/core/auth"
	"nutriguard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// context 內的使用者鍵值
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// TokenVerifier 驗證 bearer token
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// OptionalAuth 有合法 token 時寫入使用者，缺少或無效時視為匿名
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := verify(c, v); claims != nil {
			setUser(c, claims)
		}
		c.Next()
	}
}

// RequireAuth 必須帶有合法 token，否則回傳 401
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := verify(c, v)
		if claims == nil {
			common.Respond(c, common.ErrUnauthorized)
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

// UserID 取得目前使用者 ID，匿名時回傳 0
func UserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}

func verify(c *gin.Context, v TokenVerifier) *auth.Claims {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil
	}
	claims, err := v.Verify(token)
	if err != nil {
		common.LogDebug("token 驗證失敗", zap.Error(err))
		return nil
	}
	return claims
}

func setUser(c *gin.Context, claims *auth.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UsernameKey, claims.Username)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
