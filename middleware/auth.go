package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-backend/apperrors"
	"catalog-backend/logger"
	"catalog-backend/models"
)

const (
	principalKey = "principal"
	// TokenCookie is the cookie carrying the session token for browser clients.
	TokenCookie = "token"
)

// Authenticator resolves a bearer token into a principal.
type Authenticator interface {
	Authenticate(token string) (*models.Principal, error)
}

// Protect rejects requests without a valid token and stores the principal on the context.
func Protect(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			WriteError(c, apperrors.Unauthorized("Not authorized, no token"), nil)
			return
		}

		principal, err := authn.Authenticate(token)
		if err != nil {
			WriteError(c, err, nil)
			return
		}

		c.Set(principalKey, principal)
		ctx := c.Request.Context()
		l := logger.FromContext(ctx, nil).With(slog.String("user_id", principal.UserID.Hex()))
		c.Request = c.Request.WithContext(logger.NewContext(ctx, l))
		c.Next()
	}
}

// Admin rejects principals without administrative privilege. Mount after Protect.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil || !principal.IsAdmin {
			WriteError(c, apperrors.Forbidden("Not authorized as admin"), nil)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Protect, or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
