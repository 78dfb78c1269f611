// Package server is the composition root: it builds the services and
// handlers over a store, mounts the routes and runs the HTTP server.
//
// Dependency chain:
//
//	repository.Store -> JournalService / AuthService -> handlers -> chi routes
//
// The Server owns the store and closes it on shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/mood-journal/internal/auth"
	"github.com/sakif/mood-journal/internal/handler"
	"github.com/sakif/mood-journal/internal/metrics"
	"github.com/sakif/mood-journal/internal/middleware"
	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/service"
)

const (
	shutdownTimeout = 30 * time.Second
	pingTimeout     = 2 * time.Second
)

// Config holds server configuration.
type Config struct {
	Port         int
	ClientOrigin string // the SPA origin allowed by CORS, and the OAuth landing page

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	WriteRateLimit float64 // writes per second per caller; 0 disables
	WriteRateBurst int
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	store    repository.Store
	registry *prometheus.Registry
}

// New wires every layer over store. scorer is usually a sentiment.Analyzer
// built from the configured lexicon.
func New(cfg Config, store repository.Store, scorer service.Scorer, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		registry: metrics.NewRegistry(),
	}

	s.setupRoutes(tokens, scorer)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                 -> store ping
// GET    /metrics                 -> Prometheus exposition
// POST   /api/auth/register       -> create account
// POST   /api/auth/login          -> token + cookie
// POST   /api/auth/logout         -> clear cookie
// GET    /auth/github/login       -> OAuth redirect (only when configured)
// GET    /auth/github/callback    -> OAuth callback (only when configured)
// GET    /api/me                  -> current user            [auth]
// POST   /api/sentiment           -> scorer preview          [auth]
// *      /api/journal/...         -> journal CRUD + views    [auth]
//
// Middleware order: RequestID, RealIP, Logger, Recoverer, metrics, CORS.
// The logger sits outside Recoverer so recovered panics are logged as 500s.
func (s *Server) setupRoutes(tokens *auth.TokenService, scorer service.Scorer) {
	httpMetrics := metrics.NewHTTPMetrics(s.registry)
	journalMetrics := metrics.NewJournalMetrics(s.registry)
	limiter := middleware.NewWriteLimiter(s.config.WriteRateLimit, s.config.WriteRateBurst, nil)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(httpMetrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	journalService := service.NewJournalService(s.store, scorer, journalMetrics, s.logger)
	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), s.logger)

	github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	authHandler := handler.NewAuthHandler(authService, github, handler.CookieConfig{
		Secure: s.config.CookieSecure,
		TTL:    tokens.TTL(),
	}, s.config.ClientOrigin, s.logger)
	journalHandler := handler.NewJournalHandler(journalService, s.logger)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler(s.registry))

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	if authHandler.GitHubEnabled() {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub OAuth not configured, GitHub login routes disabled")
	}

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Use(limiter.Middleware)
		r.Get("/api/me", authHandler.HandleMe)
		r.Post("/api/sentiment", journalHandler.HandleScore)
		r.Route("/api/journal", journalHandler.Routes)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("client_origin", s.config.ClientOrigin),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
