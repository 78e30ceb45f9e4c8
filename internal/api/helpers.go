package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return user.ID, nil
}
