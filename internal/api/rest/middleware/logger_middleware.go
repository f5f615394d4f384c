package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// LoggerMiddleware логирует каждый HTTP запрос с длительностью и статусом
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if status >= 500 {
			log.Error("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		} else if status >= 400 {
			log.Warn("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		} else {
			log.Info("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		}
	}
}
