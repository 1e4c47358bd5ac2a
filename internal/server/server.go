// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the store (storage.Open) and passes it in;
// Server.New() creates: auth services → AccountService/NoteService → handlers.
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/handler"
	"github.com/sakif/notekeeper/internal/middleware"
	"github.com/sakif/notekeeper/internal/repository"
	"github.com/sakif/notekeeper/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port         int
	StaticDir    string   // UI assets served at "/" when non-empty
	CORSOrigins  []string // allowed origins; "*" allows any
	JWTSecret    string
	TokenTTL     time.Duration
	BcryptCost   int
	RequireToken bool // note routes reject requests without a valid token
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start() closes it after the HTTP server has
// drained, so in-flight requests never see a closed connection pool.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
}

// New creates a new Server with the given config and store.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Build the password and token services from config
//  2. Create the service layer with the store's repository interfaces
//  3. Create handlers with the services
//  4. Wire handlers to routes
func New(cfg Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: store must not be nil")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/signup            → create account
// POST   /api/login             → verify credentials
// GET    /api/me                → current account (token required)
// POST   /api/notes             → create note
// GET    /api/notes/{userId}    → list an account's notes, newest first
// DELETE /api/notes/{id}        → delete note
// GET    /healthz               → store reachability
// GET    /*                     → UI assets (when StaticDir is set)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights before any auth runs
func (s *Server) setupRoutes() error {
	passwords, err := auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenServiceWithTTL(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return err
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	accountService := service.NewAccountService(s.store, passwords, tokens, s.logger)
	noteService := service.NewNoteService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(accountService, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	// Outside strict mode a token is optional: anonymous note calls work
	// as before, and calls that carry a token get ownership checks.
	noteAuth := auth.OptionalAuth(tokens)
	if s.config.RequireToken {
		noteAuth = auth.RequireAuth(tokens)
	}

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)

		r.Group(func(r chi.Router) {
			r.Use(noteAuth)
			r.Post("/notes", noteHandler.HandleCreate)
			r.Get("/notes/{userId}", noteHandler.HandleList)
			r.Delete("/notes/{id}", noteHandler.HandleDelete)
		})
	})

	if s.config.StaticDir != "" {
		if _, err := os.Stat(s.config.StaticDir); err != nil {
			return fmt.Errorf("static dir: %w", err)
		}
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (disconnects MongoDB, closes SQL pools)
func (s *Server) Start() error {
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Bool("requireToken", s.config.RequireToken),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
