package shared

import (
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey  = "user_id"
	AdminIDKey = "admin_id"
)

// ContextUint 从上下文读取 uint 值，不写响应。
func ContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, v > 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// RequireContextUint 读取必需的 uint 值，缺失时返回 401。
func RequireContextUint(c *gin.Context, key string) (uint, bool) {
	id, ok := ContextUint(c, key)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "unauthorized", "authentication required", nil)
		return 0, false
	}
	return id, true
}

// OptionalUserID 可选用户身份，匿名时返回 0。
func OptionalUserID(c *gin.Context) uint {
	id, _ := ContextUint(c, UserIDKey)
	return id
}
