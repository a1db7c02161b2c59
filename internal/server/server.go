// Package server wires the catch log together: store, service, handlers,
// middleware and routes, plus the listen/shutdown lifecycle.
//
// Keeping this out of main.go means tests can build the exact router the
// binary serves, backed by an in-memory store.
//
// DEPENDENCY FLOW:
//
//	config.Config → repository (supabase | sqlite)
//	              → service.CatchService
//	              → handler.CatchHandler / KeepaliveHandler / StaticHandler
//	              → chi routes
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
	"github.com/go-chi/cors"

	"github.com/sakif/castiq/internal/auth"
	"github.com/sakif/castiq/internal/config"
	"github.com/sakif/castiq/internal/handler"
	"github.com/sakif/castiq/internal/httpx"
	"github.com/sakif/castiq/internal/keepalive"
	"github.com/sakif/castiq/internal/middleware"
	"github.com/sakif/castiq/internal/repository"
	sqliteRepo "github.com/sakif/castiq/internal/repository/sqlite"
	"github.com/sakif/castiq/internal/repository/supabase"
	"github.com/sakif/castiq/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// allMethods is every method in RFC 9110 plus PATCH. go-chi/cors has no
// method wildcard.
var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace,
}

// Server owns the HTTP router and the single long-lived store handle.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	repo   repository.CatchRepository
	prober *keepalive.Prober // nil unless KeepaliveInterval > 0
}

// New opens the configured store and builds the server around it.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	repo, err := OpenRepository(cfg)
	if err != nil {
		return nil, err
	}

	s, err := NewWithRepository(cfg, repo, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return s, nil
}

// NewWithRepository builds the server around an already-open store. The
// server takes ownership of repo and closes it on shutdown.
func NewWithRepository(cfg *config.Config, repo repository.CatchRepository, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		repo:   repo,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	if cfg.KeepaliveInterval > 0 {
		s.prober = keepalive.NewProber(repo, cfg.KeepaliveInterval, logger)
	}
	return s, nil
}

// OpenRepository connects to the backend named by cfg.StoreBackend.
func OpenRepository(cfg *config.Config) (repository.CatchRepository, error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		repo, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, httpx.WithTimeout(cfg.StoreTimeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to supabase: %w", err)
		}
		return repo, nil

	case config.BackendSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		repo, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// GET    /, /index.html          → frontend index page
// GET    /charts.html            → frontend charts page
// GET    /static/*               → frontend assets
// POST   /log-catch              → store a catch
// GET    /catches?user_id=       → list an owner's catches
// DELETE /delete-catch/{id}      → delete an owned catch
// PUT    /edit-catch/{id}        → edit an owned catch
// GET    /keepalive              → liveness read against the store
//
// Middleware runs in the order added: request id, real IP, panic recovery,
// request logging, then CORS so preflights are answered before routing.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Any origin and any method may call the API, with credentials. A "*"
	// origin is never sent alongside credentials (browsers refuse that
	// pair), so the caller's own origin is echoed back instead.
	s.router.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   allMethods,
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === Static pages ===
	static := handler.NewStaticHandler(s.config.FrontendDir, s.logger)
	s.router.Get("/", static.HandleIndex)
	s.router.Get("/index.html", static.HandleIndex)
	s.router.Get("/charts.html", static.HandleCharts)
	s.router.Handle("/static/*", http.StripPrefix("/static/", static.Assets()))

	// === API ===
	catchService := service.NewCatchService(s.repo, s.logger)
	catchHandler := handler.NewCatchHandler(catchService, s.logger)
	keepaliveHandler := handler.NewKeepaliveHandler(catchService, s.logger)

	// Identity verification is opt-in: without JWT_SECRET the claimed
	// user_id is trusted as sent.
	var requireAuth func(http.Handler) http.Handler
	if s.config.JWTSecret != "" {
		tokens, err := auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("identity verification: %w", err)
		}
		requireAuth = auth.RequireAuth(tokens)
	}

	s.router.Group(func(r chi.Router) {
		if requireAuth != nil {
			r.Use(requireAuth)
		}

		r.Post("/log-catch", catchHandler.HandleLog)
		r.Get("/catches", catchHandler.HandleList)
		r.Delete("/delete-catch/{id}", catchHandler.HandleDelete)
		r.Put("/edit-catch/{id}", catchHandler.HandleEdit)
	})

	// Liveness is never behind auth: an external scheduler has no token.
	s.router.Get("/keepalive", keepaliveHandler.HandleKeepalive)

	return nil
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests,
// stops the prober and closes the store.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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
			slog.String("store", s.config.StoreBackend),
			slog.Bool("identity_verification", s.config.JWTSecret != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	if s.prober != nil {
		s.prober.Start()
	}

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

// Close stops background work and releases the store.
func (s *Server) Close() {
	if s.prober != nil {
		s.prober.Stop()
	}
	if err := s.repo.Close(); err != nil {
		s.logger.Error("failed to close store", slog.String("error", err.Error()))
	}
}
