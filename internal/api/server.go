// Package api provides the HTTP API server and handlers for the Zettel application.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zettelapp/zettel-server/internal/ratelimit"
	"github.com/zettelapp/zettel-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Defaults applied when Options leaves the auth rate limit unset.
const (
	defaultAuthRatePerMinute = 10
	defaultAuthRateBurst     = 5
)

// Options configures the HTTP layer. An empty CORSOrigins allows any origin.
type Options struct {
	CORSOrigins       []string
	AuthRatePerMinute int
	AuthRateBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	router          chi.Router
	api             huma.API
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.AuthRatePerMinute <= 0 {
		opts.AuthRatePerMinute = defaultAuthRatePerMinute
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = defaultAuthRateBurst
	}

	router := chi.NewRouter()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		authRateLimiter: ratelimit.New(
			ratelimit.PerMinute(opts.AuthRatePerMinute),
			opts.AuthRateBurst,
		),
		logger: logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Zettel API", Version)
	humaConfig.Info.Description = "Personal Zettelkasten notes with tags, search and backlinks."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerNoteRoutes()
	s.registerTagRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.rateLimitAuth)
}

// rateLimitAuth applies the per-IP limiter to the authentication endpoints,
// which are the only ones reachable without a token.
func (s *Server) rateLimitAuth(next http.Handler) http.Handler {
	limited := RateLimitMiddleware(s.authRateLimiter, s.logger)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/auth/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
