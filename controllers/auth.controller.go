package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-backend/apperrors"
	"catalog-backend/middleware"
	"catalog-backend/models"
	"catalog-backend/services"
)

// Login handles POST /api/users/login.
func (ctrl *Controller) Login(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, apperrors.Validation("Invalid credentials payload", err), ctrl.Logger)
		return
	}

	session, err := ctrl.Auth.Login(ctx, req)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	ctrl.setTokenCookie(c, session)
	c.JSON(http.StatusOK, session)
}

// Register handles POST /api/users.
func (ctrl *Controller) Register(c *gin.Context) {
	ctx, cancel := ctrl.requestContext(c)
	defer cancel()

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, apperrors.Validation("Invalid user data", err), ctrl.Logger)
		return
	}

	session, err := ctrl.Auth.Register(ctx, req)
	if err != nil {
		middleware.WriteError(c, err, ctrl.Logger)
		return
	}
	ctrl.setTokenCookie(c, session)
	c.JSON(http.StatusCreated, session)
}

// Logout handles POST /api/users/logout by clearing the token cookie.
func (ctrl *Controller) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", ctrl.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile handles GET /api/users/profile and echoes the authenticated principal.
func (ctrl *Controller) Profile(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		middleware.WriteError(c, apperrors.Unauthorized("Not authorized, no token"), ctrl.Logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"_id":     principal.UserID.Hex(),
		"name":    principal.Name,
		"isAdmin": principal.IsAdmin,
	})
}

func (ctrl *Controller) setTokenCookie(c *gin.Context, session *services.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, session.Token, maxAge, "/", "", ctrl.SecureCookies, true)
}
