package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. NumReviews and Rating are derived from Reviews.
type Product struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User         primitive.ObjectID `json:"user" bson:"user"`
	Name         string             `json:"name" bson:"name"`
	Image        string             `json:"image" bson:"image"`
	ExternalID   *string            `json:"cloudinary_id" bson:"cloudinary_id"`
	Brand        string             `json:"brand" bson:"brand"`
	Category     string             `json:"category" bson:"category"`
	Description  string             `json:"description" bson:"description"`
	Reviews      []Review           `json:"reviews" bson:"reviews"`
	Rating       float64            `json:"rating" bson:"rating"`
	NumReviews   int                `json:"numReviews" bson:"numReviews"`
	Price        float64            `json:"price" bson:"price"`
	CountInStock int                `json:"countInStock" bson:"countInStock"`
	Version      int64              `json:"-" bson:"version"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasRemoteImage reports whether the product owns an object in the media store.
func (p *Product) HasRemoteImage() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}

// ReviewedBy reports whether user already left a review on the product.
func (p *Product) ReviewedBy(user primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.User == user {
			return true
		}
	}
	return false
}

// Review is immutable once appended to a product.
type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment" bson:"comment"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// ImageRef points at an image, optionally owned by the media store.
type ImageRef struct {
	URL        string
	ExternalID string
}

// ProductInput is the body of a create request. It binds from JSON or a multipart form.
type ProductInput struct {
	Name         string  `json:"name" form:"name" validate:"required,max=200"`
	Price        float64 `json:"price" form:"price" validate:"gte=0"`
	Image        string  `json:"image" form:"image" validate:"omitempty,max=2048"`
	ExternalID   string  `json:"cloudinary_id" form:"cloudinary_id" validate:"omitempty,max=255"`
	Brand        string  `json:"brand" form:"brand" validate:"max=200"`
	Category     string  `json:"category" form:"category" validate:"max=200"`
	CountInStock int     `json:"countInStock" form:"countInStock" validate:"gte=0"`
	Description  string  `json:"description" form:"description" validate:"max=5000"`
}

// ProductUpdate carries a partial update. A nil field is absent; a non-nil zero is a real value.
type ProductUpdate struct {
	Name         *string  `json:"name" form:"name" validate:"omitempty,min=1,max=200"`
	Price        *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	Image        *string  `json:"image" form:"image" validate:"omitempty,min=1,max=2048"`
	ExternalID   *string  `json:"cloudinary_id" form:"cloudinary_id" validate:"omitempty,max=255"`
	Brand        *string  `json:"brand" form:"brand" validate:"omitempty,max=200"`
	Category     *string  `json:"category" form:"category" validate:"omitempty,max=200"`
	CountInStock *int     `json:"countInStock" form:"countInStock" validate:"omitempty,gte=0"`
	Description  *string  `json:"description" form:"description" validate:"omitempty,max=5000"`
}

// ReviewInput is the body of a review submission.
type ReviewInput struct {
	Rating  int    `json:"rating" form:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// Stats summarises the catalog.
type Stats struct {
	TotalProducts int64   `json:"total_products"`
	TotalReviews  int64   `json:"total_reviews"`
	TotalValue    float64 `json:"total_value"`
}
