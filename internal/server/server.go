// Package server wires the application together: storage, services,
// handlers, middleware, routes, and the HTTP server lifecycle.
//
// This is the composition root — every dependency is assembled here, in one
// place, and each layer receives only what it needs (services get repository
// interfaces, handlers get services).
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

	"github.com/sakif/planttoucher/internal/auth"
	"github.com/sakif/planttoucher/internal/config"
	"github.com/sakif/planttoucher/internal/handler"
	"github.com/sakif/planttoucher/internal/metrics"
	"github.com/sakif/planttoucher/internal/middleware"
	sqliteRepo "github.com/sakif/planttoucher/internal/repository/sqlite"
	"github.com/sakif/planttoucher/internal/service"
	"github.com/sakif/planttoucher/internal/session"
)

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	collector := metrics.NewCollector()
	sessions := session.NewManager(s.db, s.cfg.CookieSecure)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger, collector))
	// Every request gets its viewer resolved exactly once, here.
	s.router.Use(sessions.Middleware(s.logger))

	render, err := handler.NewRenderer(s.cfg.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	authService := service.NewAuthService(s.db, s.logger)
	postService := service.NewPostService(s.db, s.logger)

	// Google OAuth is optional configuration; without credentials the app is
	// local-registration only and the OAuth routes don't exist.
	var googleProvider *auth.GoogleProvider
	var stateSigner *auth.StateSigner
	if s.cfg.GoogleEnabled() {
		googleProvider = auth.NewGoogleProvider(
			s.cfg.GoogleClientID,
			s.cfg.GoogleClientSecret,
			s.cfg.GoogleCallbackURL,
		)
		stateSigner, err = auth.NewStateSigner(s.cfg.StateSecret)
		if err != nil {
			return fmt.Errorf("creating state signer: %w", err)
		}
	} else {
		s.logger.Warn("Google OAuth not configured — external login disabled")
	}

	authHandler := handler.NewAuthHandler(
		authService, googleProvider, stateSigner, sessions, render, collector, s.logger)
	postHandler := handler.NewPostHandler(
		postService, authService, render, collector, s.logger)
	avatarHandler := handler.NewAvatarHandler(s.logger)

	fileServer := http.FileServer(http.Dir(s.cfg.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/", postHandler.HandleHome)
	s.router.Get("/{order}", postHandler.HandleHome)
	s.router.Get("/post/{id}", postHandler.HandlePost)
	s.router.Post("/posts", session.RequireAuth(postHandler.HandleCreate))
	s.router.Post("/like/{id}", postHandler.HandleLike)
	s.router.Get("/profile", session.RequireAuth(postHandler.HandleProfile))
	s.router.Post("/delete/{id}", session.RequireAuth(postHandler.HandleDelete))
	s.router.Get("/avatar/{username}", avatarHandler.HandleAvatar)

	s.router.Get("/register", authHandler.HandleRegisterPage)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/logout", authHandler.HandleLogout)
	s.router.Get("/googleLogout", authHandler.HandleGoogleLogout)
	s.router.Post("/unregister", session.RequireAuth(authHandler.HandleUnregister))
	s.router.Get("/error", authHandler.HandleErrorPage)

	if s.cfg.GoogleEnabled() {
		s.router.Get("/auth/google", authHandler.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
		s.router.Get("/registerUsername", authHandler.HandleClaimPage)
		s.router.Post("/registerUsername", authHandler.HandleClaim)
	}

	s.router.Handle("/metrics", collector.Handler())

	return nil
}

// Handler exposes the assembled router (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
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
