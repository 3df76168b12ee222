package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a customer or administrator account.
type User struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	IsAdmin   bool               `json:"isAdmin" bson:"isAdmin"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  primitive.ObjectID
	Name    string
	IsAdmin bool
}

// LoginRequest is the body of a login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body of a registration request.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
