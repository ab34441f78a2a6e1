// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where handlers,
// middleware, and the dependency graph come together:
//
//	main.go creates: config, logger, mailer
//	server.New creates: sqlite.DB → TokenService/PasscodeService →
//	                    LoginService → LoginHandler → routes
//
// Keeping the wiring out of main.go makes the whole server constructible in
// tests without a process boundary.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/passcode-login/internal/auth"
	"github.com/sakif/passcode-login/internal/handler"
	"github.com/sakif/passcode-login/internal/mailer"
	"github.com/sakif/passcode-login/internal/middleware"
	sqliteRepo "github.com/sakif/passcode-login/internal/repository/sqlite"
	"github.com/sakif/passcode-login/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	BaseURL   string // optional absolute base for next-step URL hints
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain wired up.
// The mailer is passed in because main decides between SMTP and the
// log-only development sender.
func New(cfg Config, logger *slog.Logger, mail mailer.Mailer) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(mail); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz          → liveness probe
//	POST /api/request-code → issue a one-time login code by email
//	POST /api/verify-code  → verify the code; login or sign-up signal
//	POST /api/sign-up      → complete sign-up, activate the account
//	GET  /api/active-user  → authenticated probe (RequireAuth)
func (s *Server) setupRoutes(mail mailer.Mailer) error {
	// Global middleware, in order: request IDs for tracing, real client IPs
	// behind proxies, panic recovery, then our request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passcodes := auth.NewPasscodeService()

	loginService := service.NewLoginService(s.db, tokens, passcodes, mail, s.logger)
	loginHandler := handler.NewLoginHandler(loginService, s.config.BaseURL, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/request-code", loginHandler.HandleRequestCode)
		r.Post("/verify-code", loginHandler.HandleVerifyCode)
		r.Post("/sign-up", loginHandler.HandleSignUp)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/active-user", loginHandler.HandleActiveUser)
		})
	})

	return nil
}

// Start runs the HTTP server and handles graceful shutdown:
// stop accepting connections, drain in-flight requests (30s), then close
// the database so the WAL is flushed and the file lock released.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
