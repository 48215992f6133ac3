package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/channel"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/gqlmiddleware"
	"github.com/tjfontaine/shopgate/internal/graph"
	"github.com/tjfontaine/shopgate/internal/pkg/config"
	"github.com/tjfontaine/shopgate/internal/server"
	"github.com/tjfontaine/shopgate/internal/storage"
	"github.com/tjfontaine/shopgate/internal/storage/rediscache"
	"github.com/tjfontaine/shopgate/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug.Enabled {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("shopgate", cfg.Tracing.Exporter, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("auth.jwt_secret not set, using a random secret; tokens will not survive a restart")
	}
	authenticator, err := auth.NewAuthenticator(store, secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}

	var apps ports.AppFinder = auth.NewAppTokens(store)
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		apps = rediscache.NewAppCache(apps, rdb, cfg.Redis.TTL, logger)
		logger.Info("app token cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	pipeline := gqlmiddleware.Chain(gqlmiddleware.Config{
		GraphQLPath: cfg.GraphQL.Path,
		ReadOnly:    cfg.ReadOnly.Enabled,
		RootEmail:   cfg.ReadOnly.RootEmail,
	}, gqlmiddleware.Deps{
		Authenticator:  authenticator,
		DefaultChannel: channel.NewResolver(store),
		Apps:           apps,
		TracePolicy:    telemetry.NewTracePolicy(cfg.Tracing.Exclude),
		Logger:         logger,
	})
	if cfg.ReadOnly.Enabled {
		logger.Warn("API runs in read-only mode", slog.String("root_email", cfg.ReadOnly.RootEmail))
	}

	gql := graph.NewHandler(&graph.Resolver{
		Store:  store,
		Auth:   authenticator,
		Logger: logger,
	}, graph.HandlerOptions{
		Pipeline:      pipeline,
		Introspection: cfg.Debug.Enabled,
	})

	srv := server.New(server.Config{
		Port:        cfg.Server.Port,
		Timeout:     cfg.Server.Timeout,
		GraphQLPath: cfg.GraphQL.Path,
		Playground:  cfg.Debug.Enabled,
	}, logger, gql)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server shutdown complete")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	return hex.EncodeToString(b)
}
