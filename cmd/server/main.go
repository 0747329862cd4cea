// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/docvault/docvault/api"
	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/authz"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/document"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/logsink"
	"github.com/docvault/docvault/internal/observability/logger"
	"github.com/docvault/docvault/internal/observability/metrics"
	"github.com/docvault/docvault/internal/observability/tracing"
	"github.com/docvault/docvault/internal/refresh"
	"github.com/docvault/docvault/internal/report"
	"github.com/docvault/docvault/internal/session"
	"github.com/docvault/docvault/internal/store/postgres"
	"github.com/docvault/docvault/internal/store/redis"
	"github.com/docvault/docvault/internal/token"
	transportHTTP "github.com/docvault/docvault/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting docvault server")

	// CLI commands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize cache
	cache, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer cache.Close()
	slog.Info("connected to redis")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	tierRepo := postgres.NewTierRepository(db)
	refreshRepo := postgres.NewRefreshTokenRepository(db)
	docRepo := postgres.NewDocumentRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	tokenCache := redis.NewTokenCache(cache)
	roleCache := redis.NewRoleCache(cache)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	codec := token.NewCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTokenLifetime)

	// Seed hierarchy reference data and the initial administrator.
	// A short tier count is fatal: decisions would be unsound.
	bootstrapper := identity.NewBootstrapper(userRepo, tierRepo, passwordHasher, auditLogger)
	if err := bootstrapper.SeedTiers(ctx); err != nil {
		slog.Error("tier bootstrap failed", logger.Error(err))
		os.Exit(1)
	}
	if err := bootstrapper.SeedAdmin(ctx,
		cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		slog.Error("admin bootstrap failed", logger.Error(err))
		os.Exit(1)
	}

	// Initialize services
	identityService := identity.NewService(userRepo, passwordHasher, roleCache, auditLogger)
	refreshService := refresh.NewService(refreshRepo, tokenCache, userRepo, cfg.Auth.RefreshTokenLifetime, auditLogger)
	sessionService := session.NewService(identityService, codec, refreshService, auditLogger)
	authzService := authz.NewService(userRepo, roleCache, cfg.Auth.RoleCacheTTL).
		OnCacheResult(
			func() { meter.RoleCacheHits.Add(ctx, 1) },
			func() { meter.RoleCacheMisses.Add(ctx, 1) },
		)

	storage, err := document.NewStorage(cfg.Storage.PrimaryDir, cfg.Storage.FallbackDir)
	if err != nil {
		slog.Error("failed to initialize file storage", logger.Error(err))
		os.Exit(1)
	}
	documentService := document.NewService(docRepo, categoryRepo, authzService, storage, auditLogger).
		OnDenied(func() { meter.AuthzDenials.Add(ctx, 1) })

	reportService := report.NewService(reportRepo)

	// Access-log forwarding
	var sink *logsink.Sink
	if cfg.LogSink.Enabled && cfg.LogSink.URL != "" {
		sink = logsink.New(cfg.LogSink.URL, cfg.LogSink.Timeout, 1024)
		sink.Start()
		defer sink.Close()
	}

	// Rate limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		documentService,
		authzService,
		reportService,
		codec,
		auditLogger,
		meter,
	)

	router := transportHTTP.NewRouter(handler, rateLimiter, sink)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start refresh token sweeper
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sweeper := refresh.NewSweeper(refreshService).
		OnSwept(func(count int64) { meter.SweptTokens.Add(ctx, count) })
	go sweeper.Run(sweepCtx)

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown. The sweeper is cancelled, in-flight requests
	// get the drain window to finish their durable writes.
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx, postgres.BaseSchema); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}

	slog.Info("migration complete")
	return nil
}
