package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zettelapp/zettel-server/internal/auth"
	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/store/sqlite"
	"github.com/zettelapp/zettel-server/internal/validation"
)

type testServices struct {
	store  *sqlite.Store
	tokens *auth.TokenService
	auth   *AuthService
	notes  *NoteService
	tags   *TagService
}

// setupServices creates every service on top of a temporary database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	s.SetPasswordHasher(auth.NewArgon2Hasher(auth.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}))

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	v := validation.New()

	return &testServices{
		store:  s,
		tokens: tokens,
		auth:   NewAuthService(s, tokens, v, nil),
		notes:  NewNoteService(s, v, nil),
		tags:   NewTagService(s, nil),
	}
}

// registerUser creates an account through the auth service.
func (ts *testServices) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := ts.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	return u
}

// createNote adds a note through the note service.
func (ts *testServices) createNote(t *testing.T, userID, title, text string, tags ...string) *domain.Note {
	t.Helper()
	n, err := ts.notes.Create(context.Background(), userID, NoteRequest{
		Title: title,
		Text:  text,
		Tags:  tags,
	})
	require.NoError(t, err)
	return n
}
