package handler

import (
	"github.com/gin-gonic/gin"

	"bloomtrack/backend/pkg/jwt"
	"bloomtrack/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetUserName 从 Gin 上下文中提取用户显示名（可为空）
func GetUserName(c *gin.Context) string {
	v, exists := c.Get("user_name")
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MustGetClaims 从 Gin 上下文中安全提取 JWT 声明。
// 字段级权限校验（如周期名编辑、重量编辑）在 Handler 内使用。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}
