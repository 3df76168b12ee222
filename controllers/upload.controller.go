package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-backend/middleware"
)

// GetUploadSignature handles GET /api/upload/signature.
func (ctrl *Controller) GetUploadSignature(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	authz, err := ctrl.Uploads.IssueUploadAuthorization(ctx, middleware.PrincipalFrom(c), "")
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, authz)
}
