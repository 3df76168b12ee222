package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-backend/middleware"
)

// HealthCheck reports the service and store status.
func (ctrl *Controller) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "connected"
	status := http.StatusOK
	if err := ctrl.Store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"database":  dbStatus,
		"timestamp": time.Now().Unix(),
	})
}

// GetStats handles GET /api/stats for administrators.
func (ctrl *Controller) GetStats(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	stats, err := ctrl.Catalog.Stats(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
