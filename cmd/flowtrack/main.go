package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowtrack-dev/flowtrack/db"
	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/config"
	"github.com/flowtrack-dev/flowtrack/internal/events"
	"github.com/flowtrack-dev/flowtrack/internal/router"
	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the YAML config file")
	seed := flag.Bool("seed", false, "load the demo dataset before serving")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err.Error())
	}

	if err := run(*configPath, *seed, logger); err != nil {
		logger.Error("server stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(configPath string, seed bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := db.ConnectDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.MigrateDatabase(store); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	hasher := auth.NewHasher(cfg.BcryptCost)

	if seed || cfg.Seed {
		if err := db.Seed(store, hasher); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
		logger.Info("seed data loaded")
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTExpire)
	if err != nil {
		return fmt.Errorf("configure tokens: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lockout auth.LockoutStore = auth.NoopLockout{}
	if cfg.RedisURL != "" {
		client, err := auth.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		lockout = auth.NewRedisLockout(client, cfg.LoginMaxFailures, cfg.LoginLockout)
		logger.Info("login lockout enabled", "max_failures", cfg.LoginMaxFailures, "lockout", cfg.LoginLockout.String())
	}

	outbound := events.Fanout{services.NewWebhookNotifier(nil)}
	if len(cfg.KafkaBrokers) > 0 {
		stream, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("configure kafka: %w", err)
		}
		defer stream.Close()
		outbound = append(outbound, stream)
		logger.Info("kafka activity stream enabled", "topic", cfg.KafkaTopic)
	}

	// Closed before the kafka writer so queued events are flushed to it.
	dispatcher := events.NewAsync(outbound, events.AsyncOptions{Logger: logger.With("module", "dispatch")})
	defer dispatcher.Close()

	publishers := events.Fanout{
		events.NewLoggingPublisher(logger.With("module", "activity")),
		dispatcher,
	}

	svc := services.New(services.Deps{
		DB:        store,
		Signer:    signer,
		Hasher:    hasher,
		Lockout:   lockout,
		Publisher: publishers,
		Logger:    logger,
	})

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: router.NewRouter(svc, router.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
