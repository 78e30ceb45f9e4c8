package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelapp/zettel-server/internal/auth"
	"github.com/zettelapp/zettel-server/internal/service"
	"github.com/zettelapp/zettel-server/internal/store/sqlite"
	"github.com/zettelapp/zettel-server/internal/validation"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// generousLimits keeps the auth rate limiter out of the way of tests that
// register many users.
var generousLimits = Options{AuthRatePerMinute: 60_000, AuthRateBurst: 1_000}

// setupTestServer creates a server backed by a temporary database.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	st.SetPasswordHasher(auth.NewArgon2Hasher(auth.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}))

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(authKey, 15*time.Minute)
	require.NoError(t, err)

	v := validation.New()
	services := &Services{
		Auth: service.NewAuthService(st, tokenService, v, nil),
		Note: service.NewNoteService(st, v, nil),
		Tag:  service.NewTagService(st, nil),
	}

	s := NewServer(st, services, opts, nil)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
	}
}

// createUser registers and logs in a user, returning the Authorization header.
func (ts *testServer) createUser(t *testing.T, email string) string {
	t.Helper()

	creds := map[string]any{
		"email":    email,
		"password": "TestPassword123!",
	}

	resp := ts.api.Post("/api/v1/auth/register", creds)
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", creds)
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	return "Authorization: Bearer " + body.AccessToken
}

// decode unmarshals a JSON response body.
func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func TestServer_OpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t, generousLimits)

	doc := ts.api.OpenAPI()
	for _, path := range []string{
		"/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/users/me",
		"/api/v1/notes",
		"/api/v1/notes/{number}",
		"/api/v1/notes/{number}/backlinks",
		"/api/v1/notes/{number}/tags",
		"/api/v1/tags",
		"/api/v1/tags/{id}/notes",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestServer_CORS(t *testing.T) {
	ts := setupTestServer(t, Options{
		CORSOrigins:       []string{"https://notes.example.com"},
		AuthRatePerMinute: 60,
		AuthRateBurst:     10,
	})

	resp := ts.api.Get("/health", "Origin: https://notes.example.com")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "https://notes.example.com", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = ts.api.Get("/health", "Origin: https://evil.example.com")
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
