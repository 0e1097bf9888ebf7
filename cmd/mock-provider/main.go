// Command mock-provider stands in for the Paystack-compatible gateway during
// local development. It resolves bank accounts, opens checkouts, accepts
// transfers and reports their outcome through signed webhooks.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

type config struct {
	Port          int           `env:"PORT" envDefault:"8081"`
	PublicURL     string        `env:"MOCK_PUBLIC_URL" envDefault:"http://localhost:8081"`
	WebhookURL    string        `env:"WEBHOOK_URL" envDefault:"http://app:8080/webhooks/gateway"`
	WebhookSecret string        `env:"WEBHOOK_SECRET,required,notEmpty"`
	SecretKey     string        `env:"GATEWAY_SECRET_KEY"`
	SettleDelay   time.Duration `env:"MOCK_SETTLE_DELAY" envDefault:"2s"`
	AutoConfirm   bool          `env:"MOCK_AUTO_CONFIRM_DEPOSITS" envDefault:"false"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string        `env:"APP_ENV" envDefault:"development"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("mock-provider", cfg.LogLevel, cfg.AppEnv)

	p := newProvider(cfg, newNotifier(cfg.WebhookURL, cfg.WebhookSecret, logger), logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("mock provider started", "addr", addr, "webhook_url", cfg.WebhookURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
