// Package server wires the blog together and runs the HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → database.OpenAndMigrate → *sqlx.DB
//	*sqlx.DB      → sqlstore.{User,Post,Comment}Store
//	stores        → service.{User,Post,Comment}Service
//	services      → handler.Blog (plus view.Renderer and auth.Sessions)
//
// Everything is assembled in New; no other package constructs its own
// dependencies.
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
	"github.com/jmoiron/sqlx"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/database"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/middleware"
	"github.com/sakif/blog/internal/repository/sqlstore"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/view"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB
}

// New opens and migrates the database, then builds the full handler chain.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenAndMigrate(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes installs the middleware chain and the blog routes.
//
// MIDDLEWARE ORDER:
//  1. RequestID: tags the request so Logger can print it
//  2. RealIP: client address from X-Forwarded-For / X-Real-IP
//  3. Logger: one line per request, sees the final status
//  4. Recoverer: a panicking handler becomes a 500, Logger still logs it
//  5. Timeout: cancels the request context after REQUEST_TIMEOUT
//  6. LoadUser: resolves the session cookie into the current user
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))

	codec, err := auth.NewSecureCodec(s.config.Secret)
	if err != nil {
		return fmt.Errorf("creating session codec: %w", err)
	}
	views, err := view.New(s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	userStore := sqlstore.NewUserStore(s.db)
	postStore := sqlstore.NewPostStore(s.db)
	commentStore := sqlstore.NewCommentStore(s.db)

	users := service.NewUserService(userStore, auth.NewPasswordHasher(), s.logger)
	posts := service.NewPostService(postStore, s.logger)
	comments := service.NewCommentService(commentStore, postStore, s.logger)

	sessions := auth.NewSessions(codec, users, s.logger)
	s.router.Use(sessions.LoadUser)

	handler.NewBlog(views, sessions, users, posts, comments, s.logger).Routes(s.router)
	return nil
}

// Handler exposes the fully wired router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection. Start calls it on the way out;
// call it directly only when Start is never run.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to SHUTDOWN_TIMEOUT and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("dbDriver", s.config.DBDriver),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
