package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"courier/internal/app/registry"
	"courier/internal/app/server"
	"courier/internal/app/worker"
	"courier/internal/config"
	"courier/internal/core/services"
	"courier/internal/platform/logger"
	"courier/internal/platform/telemetry"
	"courier/internal/plugins/auth"
	"courier/internal/plugins/postgres"
	redisPlugin "courier/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL)
		return
	}
	log.Info("redis connected")

	// Adapters
	identityRepo := postgres.NewIdentityRepository(pdb)
	profileRepo := postgres.NewProfileRepository(pdb)
	sessionRepo := postgres.NewSessionRepository(pdb)
	messageRepo := postgres.NewMessageRepository(pdb)
	feed := redisPlugin.NewRedisChangeFeed(log, rdb)
	presStore := redisPlugin.NewRedisPresenceStore(rdb)
	blobStore := redisPlugin.NewRedisBlobStore(rdb)

	// Auth
	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Service.Name, cfg.Auth.TokenTTL)
	authProvider := auth.NewProvider(log, identityRepo, tokenSvc, cfg.Auth.BcryptCost)

	// Core Services
	hub := registry.NewRegistry()
	profileSvc := services.NewProfileService(log, profileRepo, feed)
	directorySvc := services.NewDirectoryService(log, profileRepo, feed)
	sessionListSvc := services.NewSessionListService(log, sessionRepo, feed)
	resolverSvc := services.NewSessionResolver(log, sessionRepo, feed)
	messageSvc := services.NewMessageService(log, messageRepo, sessionRepo, feed)

	// Workers
	reaper := worker.NewPresenceReaper(log, presStore, profileSvc,
		cfg.Presence.ReapInterval, cfg.Presence.OfflineAfter)
	go reaper.Run(ctx)

	// Server
	srv := server.NewServer(log, cfg,
		authProvider, presStore, blobStore,
		profileSvc, directorySvc, sessionListSvc, resolverSvc, messageSvc,
		hub)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}
