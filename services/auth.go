package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catalog-backend/apperrors"
	"catalog-backend/auth"
	"catalog-backend/logger"
	"catalog-backend/models"
	"catalog-backend/repository"
)

// Session is the result of a successful login or registration.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenMaker
	logger *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenMaker, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Validation("User already exists", nil)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.FromContext(ctx, s.logger).InfoContext(ctx, "user registered", slog.String("user_id", user.ID.Hex()))
	return s.session(user)
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	return s.session(user)
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{Name: name, Email: email, Password: hashed, IsAdmin: true}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrDuplicateEmail) {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", slog.String("email", admin.Email))
	return nil
}

// Authenticate resolves a token into the principal it was issued for.
func (s *AuthService) Authenticate(token string) (*models.Principal, error) {
	principal, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Not authorized, token failed")
	}
	return principal, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, exp, err := s.tokens.Create(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
