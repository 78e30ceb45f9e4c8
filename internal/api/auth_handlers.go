package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a new user account. Fails with 409 if the email is already in use.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)
}

// === DTOs ===

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email address"`
	Password string `json:"password" minLength:"8" maxLength:"1024" doc:"User password"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email"`
	Password string `json:"password" maxLength:"1024" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// UserResponse contains user information.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Email     string    `json:"email" doc:"User email"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// AuthResponse contains the access token and user info.
type AuthResponse struct {
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	TokenType   string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn   int          `json:"expires_in" doc:"Token expiry in seconds"`
	User        UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		Body: AuthResponse{
			AccessToken: resp.AccessToken,
			TokenType:   resp.TokenType,
			ExpiresIn:   resp.ExpiresIn,
			User:        mapUser(resp.User),
		},
	}, nil
}

// === Helpers ===

func mapUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
