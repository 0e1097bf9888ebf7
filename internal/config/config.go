package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry     time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port          int           `env:"PORT" envDefault:"8080"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string        `env:"APP_ENV" envDefault:"production"`
	RunMigrations bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	GatewayBaseURL   string `env:"GATEWAY_BASE_URL" envDefault:"http://mock-provider:8081"`
	GatewaySecretKey string `env:"GATEWAY_SECRET_KEY,required,notEmpty"`
	WebhookSecret    string `env:"WEBHOOK_SECRET,required,notEmpty"`

	WebhookMaxAttempts int `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"5"`
	WebhookReplayBatch int `env:"WEBHOOK_REPLAY_BATCH" envDefault:"50"`

	// Empty disables rate limiting.
	RedisURL            string `env:"REDIS_URL"`
	RateLimitPrefix     string `env:"RATE_LIMIT_PREFIX" envDefault:"wallet:rl"`
	MoneyRequestsPerMin int    `env:"RATE_LIMIT_MONEY_PER_MIN" envDefault:"30"`
	AuthRequestsPerMin  int    `env:"RATE_LIMIT_AUTH_PER_MIN" envDefault:"10"`

	// Empty disables event publishing.
	AMQPURL string `env:"AMQP_URL"`

	StaleSweepSchedule       string        `env:"CRON_STALE_SWEEP" envDefault:"@every 10m"`
	IdempotencyCleanSchedule string        `env:"CRON_IDEMPOTENCY_CLEAN" envDefault:"@hourly"`
	WebhookReplaySchedule    string        `env:"CRON_WEBHOOK_REPLAY" envDefault:"@every 1m"`
	StalePendingAfter        time.Duration `env:"STALE_PENDING_AFTER" envDefault:"30m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("config.Load: JWT_SECRET must be at least 32 bytes")
	}
	return &cfg, nil
}
