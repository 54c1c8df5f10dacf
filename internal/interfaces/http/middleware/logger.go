package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"marketplace.backend/pkg/logger"
)

// LoggerMiddleware logs each request under its route template so ids do not
// fan out into separate paths. Payment callback query strings are not logged.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if raw := c.Request.URL.RawQuery; raw != "" && !strings.Contains(path, "/callback/") {
			path += "?" + raw
		}
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
