package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
	"github.com/zettelapp/zettel-server/internal/ratelimit"
	"github.com/zettelapp/zettel-server/internal/store"
)

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil))

			out := buf.String()
			assert.Contains(t, out, "level="+tt.level)
			assert.Contains(t, out, fmt.Sprintf("status=%d", tt.status))
			assert.Contains(t, out, "path=/api/v1/notes")
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(ratelimit.PerMinute(1), 1)
	t.Cleanup(limiter.Stop)

	h := RateLimitMiddleware(limiter, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:1234").Code)

	limited := request("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":"RATE_LIMITED","message":"Too many requests. Please try again later."}`, limited.Body.String())

	// Buckets are per client address.
	assert.Equal(t, http.StatusNoContent, request("10.0.0.2:1234").Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:4000", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestErrorHandler_Mapping(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name       string
		status     int
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "domain not found",
			status:     http.StatusInternalServerError,
			err:        fmt.Errorf("get note: %w", domainerrors.NotFound("note 3 not found")),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "note 3 not found",
		},
		{
			name:       "store conflict",
			status:     http.StatusInternalServerError,
			err:        fmt.Errorf("insert: %w", store.ErrAlreadyExists),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
			wantMsg:    "resource already exists",
		},
		{
			name:       "store failure hides cause",
			status:     http.StatusInternalServerError,
			err:        store.ErrTransaction.WithCause(errors.New("disk I/O error")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "internal server error",
		},
		{
			name:       "plain status",
			status:     http.StatusUnauthorized,
			err:        errors.New("missing token"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
			wantMsg:    "authentication required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := "authentication required"
			if tt.status == http.StatusInternalServerError {
				msg = "unexpected"
			}

			got := huma.NewError(tt.status, msg, tt.err)

			var apiErr *APIError
			require.ErrorAs(t, got, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	RegisterErrorHandler()

	got := huma.NewError(http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{
		Location: "body.title",
		Message:  "expected required property title to be present",
	})

	var apiErr *APIError
	require.ErrorAs(t, got, &apiErr)
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Equal(t, map[string]string{
		"body.title": "expected required property title to be present",
	}, apiErr.Details)
}
