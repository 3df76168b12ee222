package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/models"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict is returned by Save when the stored version moved on.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Filter selects products. An empty Keyword matches every product.
type Filter struct {
	// Keyword is matched case-insensitively as a substring of the name.
	Keyword string
}

// Query is a filtered, sorted and paged product lookup.
type Query struct {
	Filter       Filter
	SortByRating bool
	Skip         int64
	Limit        int64
}

// ProductRepository persists products.
type ProductRepository interface {
	Find(ctx context.Context, q Query) ([]models.Product, error)
	Count(ctx context.Context, f Filter) (int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	// Save writes p only if the stored version equals p.Version, then bumps it.
	Save(ctx context.Context, p *models.Product) error
	// Delete removes the product and returns the document as it was when removed.
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Ping(ctx context.Context) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}
