package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/naira-wallet/internal/fx"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
)

type fxService interface {
	Rates(ctx context.Context) (policy.Rates, error)
	Quote(ctx context.Context, nairaKobo int64, dir policy.USDTDirection) (*fx.Quote, error)
}

type FXHandler struct {
	fx fxService
}

func NewFXHandler(fxSvc fxService) *FXHandler {
	return &FXHandler{fx: fxSvc}
}

type ratesResponse struct {
	BuyRate   string `json:"buy_rate"`
	SellRate  string `json:"sell_rate"`
	Timestamp string `json:"timestamp"`
}

func (h *FXHandler) Rates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.fx.Rates(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("usdt rate lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, ratesResponse{
		BuyRate:   rates.Buy.String(),
		SellRate:  rates.Sell.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type quoteResponse struct {
	Direction   string `json:"direction"`
	Rate        string `json:"rate"`
	NairaAmount int64  `json:"naira_amount"`
	USDTAmount  int64  `json:"usdt_amount"`
	Timestamp   string `json:"timestamp"`
}

func (h *FXHandler) Quote(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("direction")
	rawAmount := r.URL.Query().Get("amount")

	var fields []FieldError
	if dir != string(policy.USDTBuy) && dir != string(policy.USDTSell) {
		fields = append(fields, FieldError{Field: "direction", Message: "must be buy or sell"})
	}
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil || amount <= 0 {
		fields = append(fields, FieldError{Field: "amount", Message: "must be a positive number of kobo"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	quote, err := h.fx.Quote(r.Context(), amount, policy.USDTDirection(dir))
	if err != nil {
		logging.FromContext(r.Context()).Warn("usdt quote failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, quoteResponse{
		Direction:   string(quote.Direction),
		Rate:        quote.Rate.String(),
		NairaAmount: quote.NairaAmount,
		USDTAmount:  quote.USDTAmount,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
