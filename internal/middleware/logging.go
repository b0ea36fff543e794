package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

// RequestLogger logs one line per request once the handler chain has finished
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}

		c.Next()

		requestID, _ := GetRequestID(c)
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.ErrorContext(ctx, "Request failed", attrs...)
		case status >= 400:
			logger.WarnContext(ctx, "Request rejected", attrs...)
		default:
			logger.InfoContext(ctx, "Request handled", attrs...)
		}
	}
}

// Recovery turns a panic into an opaque 500 response and logs it
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		requestID, _ := GetRequestID(c)
		logger.ErrorContext(c.Request.Context(), "Panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"request_id", requestID,
		)
		apierrors.InternalError(c, "")
	})
}
