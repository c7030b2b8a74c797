package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/chat-platform/internal/api"
	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/service"
	"github.com/quillchat/chat-platform/internal/infrastructure/config"
	mongodb "github.com/quillchat/chat-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/quillchat/chat-platform/internal/infrastructure/db/redis"
	"github.com/quillchat/chat-platform/internal/infrastructure/queue"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// @title           Chat Platform API
// @version         1.0
// @description     Authentication, session lifecycle and conversation sharing for a multi-tenant chat backend.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
//
// @BasePath /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	bypass := cfg.Auth.Mode == "bypass"
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if !bypass {
			log.Fatal().Msg("AUTH_JWT_SECRET is required in credentialed mode")
		}
		// Bypass installs an ephemeral signing key so the credential
		// endpoints stay usable locally. Tokens die with the process.
		secret = uuid.NewString()
	}

	tokens, err := service.NewTokenService(secret, "chat-platform")
	if err != nil {
		log.Fatal().Err(err).Msg("token service init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo holds identities, groups and conversations.
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	// Redis backs the login throttle. The platform starts without it and
	// simply skips throttling.
	var throttle service.LoginThrottle
	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
		redisClient = nil
	} else {
		throttle = redisdb.NewLoginThrottle(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
		defer func() { _ = redisClient.Close() }()
	}

	registry := service.NewSessionRegistry(log)
	go registry.Run(ctx, cfg.Auth.SessionSweep)
	metrics.RegisterSessionsGauge(func() float64 {
		return float64(registry.ActiveCount())
	})

	maintenance := service.NewMaintenance(log)

	conversations := mongodb.NewConversationRepository(db)
	cleanup := service.NewCleanupService(conversations, log)
	dispatcher := queue.NewDispatcher(cfg.CascadeWorkers, cleanup, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Deps{
		Log:           log,
		AuthMode:      cfg.Auth.Mode,
		DB:            db,
		Redis:         redisClient,
		Identities:    mongodb.NewIdentityRepository(db),
		Groups:        mongodb.NewGroupRepository(db),
		Conversations: conversations,
		Registry:      registry,
		Maintenance:   maintenance,
		Tokens:        tokens,
		Throttle:      throttle,
		Cascade:       dispatcher,
		TokenTTL:      cfg.Auth.TokenTTL,
		BcryptCost:    cfg.Auth.BcryptCost,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("auth_mode", cfg.Auth.Mode).Msg("starting chat-platform api")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
	log.Info().Msg("stopped")
}
