// Package server is the composition root: it builds every dependency from
// the configuration, wires handlers to routes, and runs the HTTP server
// with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → sqlite.DB (all repositories)
//	  → auth.TokenService, auth.PasswordService, auth.FacebookProvider
//	  → graph.Client, gemini.Generator, media.Store, engagement.Estimator
//	  → services → handlers → chi routes
//
// Handlers only see services; services only see repository interfaces and
// the provider/graph/generator seams.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/caption-studio/internal/auth"
	"github.com/sakif/caption-studio/internal/config"
	"github.com/sakif/caption-studio/internal/engagement"
	"github.com/sakif/caption-studio/internal/generator"
	"github.com/sakif/caption-studio/internal/generator/gemini"
	"github.com/sakif/caption-studio/internal/graph"
	"github.com/sakif/caption-studio/internal/handler"
	"github.com/sakif/caption-studio/internal/media"
	"github.com/sakif/caption-studio/internal/middleware"
	sqliteRepo "github.com/sakif/caption-studio/internal/repository/sqlite"
	"github.com/sakif/caption-studio/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection, which it closes on
// shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// OpenDatabase creates the parent directory of path if needed and opens
// (and migrates) the SQLite database there.
func OpenDatabase(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// New builds the server from cfg, using Gemini for generation.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:     cfg.GenAI.APIKey,
		TextModel:  cfg.GenAI.TextModel,
		ImageModel: cfg.GenAI.ImageModel,
	}, logger)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, logger, gen)
}

// newServer wires everything around an already-built generator so tests
// can substitute a stub.
func newServer(cfg config.Config, logger *slog.Logger, gen generator.Generator) (*Server, error) {
	db, err := OpenDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(gen); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes builds the services and registers every route.
//
// ROUTE STRUCTURE:
//
//	POST /auth/signup, /auth/signin, /auth/logout    public
//	GET  /media/*                                    public, generated images
//	GET  /, /dashboard                               optional auth (HTML)
//	GET  /social/facebook/login, /callback           auth
//	     /api/...                                    auth (JSON)
//	GET  /export/captions.csv, /export/images.csv    auth
//
// Middleware order: RequestID first so the logger can report it, Recoverer
// innermost so a panic is still logged as a 500.
func (s *Server) setupRoutes(gen generator.Generator) error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	store, err := media.NewStore(cfg.Media.Dir, cfg.Server.PublicBaseURL)
	if err != nil {
		return err
	}

	provider := auth.NewFacebookProvider(auth.FacebookConfig{
		AppID:         cfg.Facebook.AppID,
		AppSecret:     cfg.Facebook.AppSecret,
		RedirectURI:   cfg.Facebook.RedirectURI,
		DialogBaseURL: cfg.DialogBaseURL(),
		GraphBaseURL:  cfg.GraphBaseURL(),
		Timeout:       cfg.Facebook.GraphTimeout,
	})
	graphClient := graph.New(graph.Config{
		BaseURL:   cfg.GraphBaseURL(),
		AppID:     cfg.Facebook.AppID,
		AppSecret: cfg.Facebook.AppSecret,
		Policy:    graph.Policy{Timeout: cfg.Facebook.GraphTimeout, Backoff: graph.NoRetry},
	}, s.logger)

	// === Services ===
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	socialService := service.NewSocialService(provider, graphClient, s.db, time.Now, s.logger)
	contentService := service.NewContentService(gen, store, s.db, engagement.New(), s.logger)
	profileService := service.NewProfileService(s.db, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.logger)
	socialHandler := handler.NewSocialHandler(socialService, s.logger)
	contentHandler := handler.NewContentHandler(contentService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	dashboardHandler, err := handler.NewDashboardHandler(authService, contentService, socialService, s.logger)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// Generated images must be publicly reachable: Instagram fetches
	// image_url itself when a container is created.
	fileServer := http.FileServer(http.Dir(store.Dir()))
	s.router.Handle(media.URLPrefix+"*", http.StripPrefix(media.URLPrefix, fileServer))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/signin", authHandler.HandleSignIn)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		})
		r.Get("/dashboard", dashboardHandler.HandleDashboard)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/social/facebook/login", socialHandler.HandleFacebookLogin)
		r.Get("/social/facebook/callback", socialHandler.HandleFacebookCallback)

		r.Get("/export/captions.csv", contentHandler.HandleExportCaptions)
		r.Get("/export/images.csv", contentHandler.HandleExportImages)

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", authHandler.HandleMe)

			r.Post("/captions", contentHandler.HandleCaption)
			r.Post("/images", contentHandler.HandleImage)
			r.Post("/generate", contentHandler.HandleGenerate)
			r.Post("/engagement", contentHandler.HandleEngagement)
			r.Get("/history", contentHandler.HandleHistory)

			r.Get("/profile", profileHandler.HandleGet)
			r.Put("/profile", profileHandler.HandleUpdate)

			r.Get("/social/status", socialHandler.HandleStatus)
			r.Post("/social/publish", socialHandler.HandlePublish)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the database.
//
// WriteTimeout is generous because image generation and an Instagram
// publish (two Graph round trips) both run inside the request.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.PublicBaseURL),
			slog.String("database", s.config.Database.Path),
			slog.String("graphVersion", s.config.Facebook.GraphVersion),
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

// Close releases the database without serving. Start closes it itself.
func (s *Server) Close() error {
	return s.db.Close()
}
