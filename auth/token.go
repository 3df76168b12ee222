package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/o1egl/paseto"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"catalog-backend/models"
)

const tokenFooter = "catalog-backend"

// ErrInvalidToken is returned for tokens that fail decryption, validation or decoding.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenMaker issues and verifies PASETO v2 local tokens carrying a principal.
type TokenMaker struct {
	key []byte
	ttl time.Duration
	v2  *paseto.V2
	now func() time.Time
}

// NewTokenMaker creates a token maker. key must be 32 bytes.
func NewTokenMaker(key []byte, ttl time.Duration) (*TokenMaker, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("paseto key must be 32 bytes, got %d", len(key))
	}
	return &TokenMaker{key: key, ttl: ttl, v2: paseto.NewV2(), now: time.Now}, nil
}

// Create encrypts a token for user.
func (m *TokenMaker) Create(user *models.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	jsonToken := paseto.JSONToken{
		Subject:    user.ID.Hex(),
		IssuedAt:   now,
		NotBefore:  now,
		Expiration: exp,
	}
	jsonToken.Set("name", user.Name)
	jsonToken.Set("admin", strconv.FormatBool(user.IsAdmin))

	token, err := m.v2.Encrypt(m.key, jsonToken, tokenFooter)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encrypt token: %w", err)
	}
	return token, exp, nil
}

// Verify decrypts token and returns the principal it carries.
func (m *TokenMaker) Verify(token string) (*models.Principal, error) {
	var jsonToken paseto.JSONToken
	var footer string
	if err := m.v2.Decrypt(token, m.key, &jsonToken, &footer); err != nil {
		return nil, ErrInvalidToken
	}
	if footer != tokenFooter {
		return nil, ErrInvalidToken
	}
	if err := jsonToken.Validate(paseto.ValidAt(m.now())); err != nil {
		return nil, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(jsonToken.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &models.Principal{
		UserID:  id,
		Name:    jsonToken.Get("name"),
		IsAdmin: jsonToken.Get("admin") == "true",
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
