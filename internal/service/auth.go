package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zettelapp/zettel-server/internal/auth"
	"github.com/zettelapp/zettel-server/internal/domain"
	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
	"github.com/zettelapp/zettel-server/internal/store"
	"github.com/zettelapp/zettel-server/internal/validation"
)

// AuthService handles registration, login and token verification.
// Tokens are stateless, so there is no logout on the server.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		validator:    validator,
		logger:       logger,
	}
}

// RegisterRequest contains the data for open registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResponse contains an access token and the user it was issued to.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // seconds
	User        *domain.User `json:"user"`
}

// Register creates a new account. An email that is already registered is
// refused before any password hashing happens.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	used, err := s.store.IsEmailUsed(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if used {
		return nil, domainerrors.AlreadyExists("email already in use")
	}

	user, err := s.store.AddUser(ctx, req.Email, req.Password)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use").WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered", "user_id", user.ID)
	}

	return user, nil
}

// Login checks the credentials and issues an access token.
// The error never reveals whether the email exists.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, ok, err := s.store.AuthenticateUser(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("authenticate user: %w", err)
	}
	if !ok {
		if s.logger != nil {
			s.logger.Info("Login failed")
		}
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenService.AccessTokenDuration().Seconds()),
		User:        user,
	}, nil
}

// VerifyAccessToken validates a token and returns the user it belongs to.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, found, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return nil, domainerrors.Unauthorized("user no longer exists")
	}

	return user, nil
}

// CurrentUser returns the user with the given id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, found, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return nil, domainerrors.NotFound("user not found")
	}
	return user, nil
}

// normalizeEmail trims and lowercases an email so that lookups are
// consistent regardless of how the user typed it.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
