package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-backend/logger"
)

// RequestIDHeader carries the correlation id in and out of the service.
const RequestIDHeader = "X-Request-ID"

// RequestLogger attaches a correlation id and a request-scoped logger, then logs the
// request once it completes.
func RequestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := logger.WithCorrelationID(c.Request.Context(), id)
		ctx = logger.NewContext(ctx, l.With(slog.String("correlation_id", id)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.FromContext(c.Request.Context(), l).Log(c.Request.Context(), level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// Recovery turns a panic into a 500 for that request only.
func Recovery(l *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		ctx := c.Request.Context()
		logger.FromContext(ctx, l).ErrorContext(ctx, "panic recovered",
			slog.Any("panic", recovered),
			slog.String("stack", string(debug.Stack())),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Code:      "INTERNAL_ERROR",
			Message:   "an internal error occurred",
			RequestID: logger.CorrelationIDFromContext(ctx),
		})
	})
}
