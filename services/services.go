// Package services holds the catalog business rules: upload delegation, the product image
// lifecycle, review aggregation and catalog queries.
package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/apperrors"
	"catalog-backend/models"
	"catalog-backend/repository"
)

var validate = validator.New()

func validateStruct(s any, message string) error {
	if err := validate.Struct(s); err != nil {
		return apperrors.Validation(message, err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidIdentifier(id)
	}
	return oid, nil
}

func requireUser(p *models.Principal) error {
	if p == nil || p.UserID.IsZero() {
		return apperrors.Unauthorized("Not authorized, no token")
	}
	return nil
}

func requireAdmin(p *models.Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return apperrors.Forbidden("Not authorized as admin")
	}
	return nil
}

// notFound maps repository.ErrNotFound onto the client-facing NotFound kind.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Product")
	}
	return err
}
