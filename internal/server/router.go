// Package server assembles the HTTP surface: routes, middleware order and
// the groups that gate money movement and admin access.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/middleware"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Ledger  *handler.LedgerHandler
	FX      *handler.FXHandler
	Game    *handler.GameHandler
	Admin   *handler.AdminHandler
	Webhook *handler.WebhookHandler
}

type Options struct {
	Logger         *slog.Logger
	JWTSecret      string
	AllowedOrigins []string

	Accounts    *service.AccountService
	Settings    *service.SettingsService
	Idempotency *repository.IdempotencyRepository

	// Limiter may be nil, in which case nothing is rate limited.
	Limiter         middleware.Limiter
	MoneyPerMinute  int
	LoginsPerMinute int
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "Retry-After", "X-Request-ID", "X-Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	// The handler answers 405 itself for other methods.
	r.HandleFunc("/webhooks/gateway", h.Webhook.ReceiveGatewayWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.Limiter, "auth", opts.LoginsPerMinute, time.Minute))
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(opts.JWTSecret))

			r.Get("/me", h.Account.Me)
			r.Get("/recipients/{username}", h.Account.Recipient)
			r.Get("/entries", h.Account.History)
			r.Get("/entries/{id}", h.Account.Entry)
			r.Get("/usdt/rates", h.FX.Rates)
			r.Get("/usdt/quote", h.FX.Quote)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Maintenance(opts.Settings))
				r.Use(middleware.RateLimit(opts.Limiter, "money", opts.MoneyPerMinute, time.Minute))
				r.Use(middleware.Idempotency(opts.Idempotency))

				r.Post("/deposits", h.Ledger.Deposit)
				r.Post("/transfers", h.Ledger.Transfer)
				r.Post("/bank-transfers", h.Ledger.BankTransfer)
				r.Post("/payouts", h.Ledger.Payout)
				r.Post("/usdt/exchange", h.Ledger.ExchangeUSDT)
				r.Post("/entries/{id}/cancel", h.Ledger.Cancel)

				r.Post("/games/lucky-numbers/rounds", h.Game.OpenRound)
				r.Post("/games/lucky-numbers/rounds/{id}/play", h.Game.PlayRound)
				r.Post("/games/number-guess", h.Game.Guess)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(opts.Accounts))

				r.Get("/entries/pending", h.Admin.ListPending)
				r.Post("/entries/{id}/approve", h.Admin.Approve)
				r.Post("/entries/{id}/reject", h.Admin.Reject)
				r.Get("/accounts", h.Admin.ListAccounts)
				r.Patch("/accounts/{id}/status", h.Admin.SetAccountStatus)
				r.Get("/settings", h.Admin.GetSettings)
				r.Patch("/settings", h.Admin.UpdateSettings)
			})
		})
	})

	return otelhttp.NewHandler(r, "naira-wallet",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/health" && req.URL.Path != "/health/ready"
		}),
	)
}
