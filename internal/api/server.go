// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the composition root of the HTTP transport (chi router).
  - Only this package and cmd/api create net/http servers.
  - Optional integrations (Google sign-in, feedback) are mounted only when
    their handler is present.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/chat"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/feedback"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/config"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/middleware"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/account"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/oauth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/signup"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 when every critical dependency answers.
	Readiness http.HandlerFunc

	// Auth handles sign-in, refresh, logout and password changes.
	Auth *auth.Handler

	// Signup runs the credential signup and password reset journeys.
	Signup *signup.Handler

	// OAuth handles Google sign-in. Nil when not configured.
	OAuth *oauth.Handler

	// Account serves the caller's profile and sessions.
	Account *account.Handler

	// Chat serves chats and the model exchange.
	Chat *chat.Handler

	// Feedback records feature feedback. Nil when not configured.
	Feedback *feedback.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	limiter := middleware.NewRateLimiter(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(limiter.Handler)
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.Authenticate(verifier))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		if h.OAuth != nil {
			api.Mount("/auth/google", h.OAuth.Routes())
		}

		api.Mount("/signup", h.Signup.Routes())
		api.Mount("/password-reset", h.Signup.ResetRoutes())

		api.Group(func(private chi.Router) {
			private.Use(middleware.RequireAuth)

			private.Mount("/me", h.Account.Routes())
			private.Mount("/chats", h.Chat.Routes())
			if h.Feedback != nil {
				private.Mount("/feedback", h.Feedback.Routes())
			}
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
