// Package api provides the HTTP API server and handlers for the TabStash application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tabstash/tabstash-server/internal/config"
	"github.com/tabstash/tabstash-server/internal/identity/auth0"
	"github.com/tabstash/tabstash-server/internal/search"
	"github.com/tabstash/tabstash-server/internal/service"
	"github.com/tabstash/tabstash-server/internal/store"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Session  *service.SessionService
	Tab      *service.TabService
	Favorite *service.FavoriteService
	Search   *service.SearchService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	config          *config.Config
	identity        *auth0.Client // nil when no provider is configured
	searchIndex     *search.TabIndex
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// identity and searchIndex may be nil when those features are disabled.
func NewServer(
	st store.Store,
	services *Services,
	cfg *config.Config,
	identity *auth0.Client,
	searchIndex *search.TabIndex,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("TabStash API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s := &Server{
		store:           st,
		services:        services,
		config:          cfg,
		identity:        identity,
		searchIndex:     searchIndex,
		router:          router,
		logger:          logger,
		authRateLimiter: NewRateLimiter(30, time.Minute, 10),
	}

	s.setupMiddleware()

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerOAuthRoutes()
	s.registerTabRoutes()
	s.registerFavoriteRoutes()
	s.registerSearchRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(PathRateLimitMiddleware(s.authRateLimiter, []string{
		"/api/login",
		"/api/v1/auth/refresh",
	}, s.logger))
	s.router.Use(authMiddleware(s.services.Auth))
}
