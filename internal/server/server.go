package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/shopgate/internal/reqctx"
)

// Config controls the HTTP surface.
type Config struct {
	Port        int
	Timeout     time.Duration
	GraphQLPath string

	// Playground mounts the GraphiQL-style explorer at /playground.
	Playground bool
}

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	http   *http.Server
}

// New builds the router and mounts graphql at cfg.GraphQLPath.
func New(cfg Config, logger *slog.Logger, graphql http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GraphQLPath == "" {
		cfg.GraphQLPath = "/graphql/"
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(reqctx.Middleware)
	r.Use(TimeoutMiddleware(cfg.Timeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "shopgate")
	})

	r.Get("/health", healthHandler)
	r.Handle(cfg.GraphQLPath, graphql)
	if cfg.Playground {
		r.Handle("/playground", playground.Handler("Shopgate", cfg.GraphQLPath))
		logger.Info("graphql playground enabled", slog.String("path", "/playground"))
	}

	s := &Server{
		Router: r,
		Port:   cfg.Port,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
