// Package server sets up the HTTP server, router, and all route
// definitions, the "composition root" where every dependency gets wired.
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config and creates the logger; New() builds the chain:
//
//	postgres.DB → repositories
//	wiki.Client, tagger.Client → external calls
//	services (auth, article, search) → business logic
//	handlers → HTTP
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, nothing reaches around a layer.
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
	"github.com/go-chi/cors"

	"github.com/sakif/wikishelf/internal/auth"
	"github.com/sakif/wikishelf/internal/config"
	"github.com/sakif/wikishelf/internal/handler"
	"github.com/sakif/wikishelf/internal/middleware"
	"github.com/sakif/wikishelf/internal/repository/postgres"
	"github.com/sakif/wikishelf/internal/service"
	"github.com/sakif/wikishelf/internal/tagger"
	"github.com/sakif/wikishelf/internal/wiki"
)

// Server owns the router and the resources that must be released at
// shutdown (today: the database pool).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *postgres.DB
}

// New connects the database, builds the full dependency graph, and wires
// the routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /token                        → login (form), public
//	POST   /register                     → create account, public
//	GET    /users/me/                    → current user + articles, bearer
//	GET    /search                       → encyclopedia search, public
//	GET    /health                       → liveness, public
//	POST   /articles/                    → save article, bearer
//	GET    /articles/                    → list articles, bearer
//	DELETE /articles/{id}                → delete article, bearer
//	PUT    /articles/{id}/tags           → replace tags, bearer
//	POST   /articles/{id}/generate_tags  → LLM tagging, bearer
func (s *Server) setupRoutes(ctx context.Context) error {
	// === Global middleware (order matters: ID/IP first, then recovery,
	// then logging, then CORS) ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// CORS is restricted to the single configured frontend origin. The
	// browser needs credentials allowed because the frontend sends the
	// Authorization header cross-origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === External clients ===
	wikiClient := wiki.NewClient(s.config.WikiAPIURL, s.logger)

	// The tagger needs an API key; without one the service starts fine
	// and only /articles/{id}/generate_tags reports it unconfigured.
	var tagGen service.TagGenerator
	if s.config.GeminiAPIKey != "" {
		tc, err := tagger.New(ctx, s.config.GeminiAPIKey, s.config.GeminiModel, wikiClient, s.logger)
		if err != nil {
			return fmt.Errorf("creating tagging client: %w", err)
		}
		tagGen = tc
	} else {
		s.logger.Warn("GEMINI_API_KEY not set, tag generation is disabled")
	}

	// === Services ===
	users := s.db.Users()
	articles := s.db.Articles()
	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	articleService := service.NewArticleService(articles, users, tagGen, s.logger)
	searchService := service.NewSearchService(wikiClient, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, articleService, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)
	searchHandler := handler.NewSearchHandler(searchService, s.logger)

	// === Public routes ===
	s.router.Post("/token", authHandler.HandleToken)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Get("/search", searchHandler.HandleSearch)
	s.router.Get("/health", handler.HandleHealth)

	// === Protected routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/users/me/", authHandler.HandleMe)

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", articleHandler.HandleCreate)
			r.Get("/", articleHandler.HandleList)
			r.Delete("/{id}", articleHandler.HandleDelete)
			r.Put("/{id}/tags", articleHandler.HandleReplaceTags)
			r.Post("/{id}/generate_tags", articleHandler.HandleGenerateTags)
		})
	})

	return nil
}

// Start runs the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// On SIGINT/SIGTERM we stop accepting connections, give in-flight requests
// 30 seconds to finish, then close the database pool. The deferred Close
// runs even if something panics on the way out.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM tagging can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("cors_origin", s.config.FrontendURL),
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
