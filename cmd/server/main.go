package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shredlink/shredlink/config"
	appmodel "github.com/shredlink/shredlink/internal/app/model"
	apprepository "github.com/shredlink/shredlink/internal/app/repository"
	appserver "github.com/shredlink/shredlink/internal/app/server"
	appservice "github.com/shredlink/shredlink/internal/app/service"
	"github.com/shredlink/shredlink/internal/crypto"
	"github.com/shredlink/shredlink/internal/infra/database"
	"github.com/shredlink/shredlink/internal/infra/logger"
	infraPrometheus "github.com/shredlink/shredlink/internal/infra/prometheus"
	infraRedis "github.com/shredlink/shredlink/internal/infra/redis"
	"github.com/shredlink/shredlink/internal/ratelimit"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Int("create_rate_limit_per_minute", cfg.Limits.CreatePerMinute),
		zap.Int("max_text_size_bytes", cfg.Limits.MaxTextSizeBytes),
		zap.Duration("cleanup_interval", cfg.Cleanup.Interval()),
	)

	if cfg.Crypto.EncryptionKey == config.DevEncryptionKey {
		log.Warn("ENCRYPTION_KEY not set; using the dev key. Set ENCRYPTION_KEY for production (e.g. openssl rand -base64 32)")
	}
	key, err := crypto.KeyFromBase64(cfg.Crypto.EncryptionKey)
	if err != nil {
		log.Fatal("Invalid encryption key", zap.Error(err))
	}
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		log.Fatal("Failed to initialize payload cipher", zap.Error(err))
	}

	gormDB, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(ctx, gormDB, &appmodel.Link{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	var pool *pgxpool.Pool
	if cfg.Database.Driver == "postgres" {
		pool, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()
		log.Info("Connected to Postgres successfully")
	}

	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedis(redisClient, cfg.Limits.CreatePerMinute, time.Minute)
		log.Info("Using Redis-backed creation rate limiter")
	} else {
		mem := ratelimit.NewMemory(cfg.Limits.CreatePerMinute)
		defer mem.Stop()
		limiter = mem
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	linkService := appservice.NewLinkService(linkRepo, aead, appservice.Config{
		BaseURL:          cfg.Server.BaseURL,
		MaxTextSizeBytes: cfg.Limits.MaxTextSizeBytes,
	}, log)

	sweeper := appservice.NewCleanupSweeper(log, linkRepo, cfg.Cleanup.Interval())
	sweeper.Start()
	defer sweeper.Stop()

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	srv := appserver.New(appserver.Dependencies{
		Logger:          log,
		LinkService:     linkService,
		Limiter:         limiter,
		CreatePerMinute: cfg.Limits.CreatePerMinute,
		PublicDir:       cfg.Server.PublicDir,
		Postgres:        pool,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", cfg.Server.Addr()))
		serverErr <- srv.Listen(cfg.Server.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal("Fiber server exited", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("Shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
