package controllers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-backend/services"
)

// Pinger checks the persistent store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller holds the dependencies shared by every handler.
type Controller struct {
	Catalog        *services.CatalogService
	Reviews        *services.ReviewAggregator
	Uploads        *services.UploadDelegate
	Auth           *services.AuthService
	Store          Pinger
	Logger         *slog.Logger
	RequestTimeout time.Duration
	SecureCookies  bool
}

// requestContext bounds a handler's work by the request context and the configured timeout.
func (ctrl *Controller) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := ctrl.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
