package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 请求日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		icon := "✅"
		switch {
		case status >= 500:
			icon = "❌"
		case status >= 400:
			icon = "⚠️"
		}
		log.Printf("%s [API] %s %s %d %v %s", icon, c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.ClientIP())
	}
}
