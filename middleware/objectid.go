package middleware

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/apperrors"
)

// CheckObjectID rejects requests whose path parameter is not a valid ObjectID hex string.
func CheckObjectID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(param)
		if !primitive.IsValidObjectID(id) {
			WriteError(c, apperrors.InvalidIdentifier(id), nil)
			return
		}
		c.Next()
	}
}
