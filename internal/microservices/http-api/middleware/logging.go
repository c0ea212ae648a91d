package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := CurrentIdentity(c); id.Authenticated() {
			attrs = append(attrs, "user", id.Username)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.ErrorContext(c.Request.Context(), "http_request", attrs...)
		case status >= 400:
			log.WarnContext(c.Request.Context(), "http_request", attrs...)
		default:
			log.InfoContext(c.Request.Context(), "http_request", attrs...)
		}
	}
}
