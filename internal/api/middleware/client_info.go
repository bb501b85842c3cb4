package middleware

import (
	"github.com/gin-gonic/gin"

	"bloomtrack/backend/internal/service"
)

// ClientInfo 把客户端 IP 与 User-Agent 注入请求上下文，
// 供审计日志在落库时记录操作来源
func ClientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithClientInfo(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
