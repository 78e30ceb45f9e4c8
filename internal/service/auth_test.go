package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
	"github.com/zettelapp/zettel-server/internal/validation"
)

func TestAuthService_Register_Success(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	user, err := ts.auth.Register(ctx, RegisterRequest{
		Email:    "  Alice@Example.com ",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())

	used, err := ts.store.IsEmailUsed(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestAuthService_Register_EmailInUse(t *testing.T) {
	ts := setupServices(t)
	ts.registerUser(t, "bob@example.com")

	_, err := ts.auth.Register(context.Background(), RegisterRequest{
		Email:    "BOB@example.com",
		Password: "another-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "email already in use")
}

func TestAuthService_Register_Concurrent(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Go(func() {
			_, errs[i] = ts.auth.Register(ctx, RegisterRequest{
				Email:    "race@example.com",
				Password: "password123",
			})
		})
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuthService_Register_Validation(t *testing.T) {
	ts := setupServices(t)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"missing email", RegisterRequest{Password: "password123"}, "email"},
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "password123"}, "email"},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.auth.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "carol@example.com")

	resp, err := ts.auth.Login(ctx, LoginRequest{
		Email:    "Carol@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 15*60, resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)

	verified, err := ts.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, user.Email, verified.Email)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ts := setupServices(t)
	ts.registerUser(t, "dave@example.com")

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "dave@example.com", Password: "wrong password"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "correct horse battery staple"}},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.auth.Login(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
			messages = append(messages, err.Error())
		})
	}

	// Both failures look the same to the client.
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0], messages[1])
}

func TestAuthService_Login_FailureDoesNotLogEmail(t *testing.T) {
	ts := setupServices(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewAuthService(ts.store, ts.tokens, validation.New(), logger)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "someone.private@example.com",
		Password: "not the password",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	assert.Contains(t, buf.String(), "Login failed")
	assert.NotContains(t, buf.String(), "someone.private")
}

func TestAuthService_VerifyAccessToken_Invalid(t *testing.T) {
	ts := setupServices(t)

	_, err := ts.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_CurrentUser(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "erin@example.com")

	got, err := ts.auth.CurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = ts.auth.CurrentUser(ctx, "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
