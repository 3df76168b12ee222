package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-backend/apperrors"
	"catalog-backend/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteError aborts the request with the response matching err. Internal errors are logged
// and their cause is hidden from the client.
func WriteError(c *gin.Context, err error, fallback *slog.Logger) {
	appErr := apperrors.From(err)
	ctx := c.Request.Context()

	if appErr.Status >= http.StatusInternalServerError {
		logger.FromContext(ctx, fallback).ErrorContext(ctx, "request failed",
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(appErr.Status, ErrorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Fields:    appErr.Fields,
		RequestID: logger.CorrelationIDFromContext(ctx),
	})
}
