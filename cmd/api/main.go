package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/naira-wallet/internal/config"
	"github.com/josh-kwaku/naira-wallet/internal/dbmigrate"
	"github.com/josh-kwaku/naira-wallet/internal/events"
	"github.com/josh-kwaku/naira-wallet/internal/fx"
	"github.com/josh-kwaku/naira-wallet/internal/game"
	"github.com/josh-kwaku/naira-wallet/internal/gateway"
	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/ratelimit"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
	"github.com/josh-kwaku/naira-wallet/internal/server"
	"github.com/josh-kwaku/naira-wallet/internal/service"
	"github.com/josh-kwaku/naira-wallet/internal/service/ledger"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("naira-wallet-api", cfg.LogLevel, cfg.AppEnv)

	if err := run(cfg, logger); err != nil {
		logger.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := dbmigrate.Up(db); err != nil {
			return fmt.Errorf("run: migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	checks := map[string]handler.Check{"database": db.PingContext}

	var limiter *ratelimit.Limiter
	if rdb := connectRedis(ctx, cfg.RedisURL, logger); rdb != nil {
		defer rdb.Close()
		limiter = ratelimit.NewLimiter(rdb, cfg.RateLimitPrefix)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	publisher := connectBroker(cfg.AMQPURL, logger)
	defer publisher.Close()

	accountRepo := repository.NewAccountRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	webhookRepo := repository.NewWebhookEventRepository(db)

	repos := ledger.Repos{
		Accounts: accountRepo,
		Entries:  ledgerRepo,
		Postings: repository.NewPostingRepository(db),
		Audit:    repository.NewEntryEventRepository(db),
		Rounds:   repository.NewGameRoundRepository(db),
	}

	rates := fx.NewRateService(settingsRepo)
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey)
	reconciler := ledger.NewReconciler(db, repos, publisher)
	executor := ledger.NewExecutor(db, repos, rates, gw, game.NewEngine(game.CryptoSource), reconciler, publisher)

	accounts := service.NewAccountService(repository.NewDB(db), accountRepo, repository.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiry)
	settings := service.NewSettingsService(settingsRepo)
	webhooks := service.NewWebhookProcessor(webhookRepo, reconciler, db, logger, cfg.WebhookMaxAttempts, cfg.WebhookReplayBatch)

	jobs := service.NewJobs(reconciler, idempotencyRepo, webhooks, logger, cfg.StalePendingAfter)
	scheduler := service.NewScheduler(jobs, logger, service.Schedules{
		StaleSweep:       cfg.StaleSweepSchedule,
		IdempotencyClean: cfg.IdempotencyCleanSchedule,
		WebhookReplay:    cfg.WebhookReplaySchedule,
	})
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	opts := server.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		Accounts:        accounts,
		Settings:        settings,
		Idempotency:     idempotencyRepo,
		MoneyPerMinute:  cfg.MoneyRequestsPerMin,
		LoginsPerMinute: cfg.AuthRequestsPerMin,
	}
	if limiter != nil {
		opts.Limiter = limiter
	}

	router := server.NewRouter(server.Handlers{
		Health:  handler.NewHealthHandler(version, checks),
		Auth:    handler.NewAuthHandler(accounts),
		Account: handler.NewAccountHandler(accounts, ledgerRepo),
		Ledger:  handler.NewLedgerHandler(executor, reconciler, accounts),
		FX:      handler.NewFXHandler(rates),
		Game:    handler.NewGameHandler(executor),
		Admin:   handler.NewAdminHandler(ledgerRepo, reconciler, accounts, settings),
		Webhook: handler.NewWebhookHandler(webhooks, cfg.WebhookSecret),
	}, opts)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		<-scheduler.Stop().Done()
		return fmt.Errorf("run: server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("run: shutdown: %w", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled jobs still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}

// connectRedis returns nil when Redis is not configured or unreachable;
// rate limiting is then off.
func connectRedis(ctx context.Context, url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		logger.Warn("REDIS_URL not set; rate limiting disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("redis url parse failed; rate limiting disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed; rate limiting disabled", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

func connectBroker(url string, logger *slog.Logger) events.Publisher {
	if url == "" {
		logger.Warn("AMQP_URL not set; ledger events will only be logged")
		return events.NopPublisher{Logger: logger}
	}
	p, err := events.NewRabbitPublisher(url, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable; ledger events will only be logged", "error", err)
		return events.NopPublisher{Logger: logger}
	}
	logger.Info("rabbitmq connected", "exchange", events.Exchange)
	return p
}
