package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

var accountNumberRe = regexp.MustCompile(`^\d{10}$`)

// Account numbers ending in these suffixes drive the unhappy paths.
const (
	unresolvableSuffix = "404"
	failingSuffix      = "000"
)

type charge struct {
	Reference string
	Email     string
	Amount    int64
	Paid      bool
}

type recipient struct {
	Code          string
	Name          string
	AccountNumber string
	BankCode      string
}

type provider struct {
	cfg      config
	notifier *notifier
	logger   *slog.Logger

	mu         sync.Mutex
	charges    map[string]*charge
	recipients map[string]recipient
	transfers  map[string]bool
}

func newProvider(cfg config, n *notifier, logger *slog.Logger) *provider {
	return &provider{
		cfg:        cfg,
		notifier:   n,
		logger:     logger,
		charges:    make(map[string]*charge),
		recipients: make(map[string]recipient),
		transfers:  make(map[string]bool),
	}
}

func (p *provider) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(p.requireKey)
		r.Get("/bank/resolve", p.resolveAccount)
		r.Post("/transaction/initialize", p.initializeTransaction)
		r.Post("/transferrecipient", p.createRecipient)
		r.Post("/transfer", p.initiateTransfer)
	})

	// Stands in for the customer completing checkout.
	r.Post("/checkout/{reference}/pay", p.payCheckout)
	r.Post("/checkout/{reference}/decline", p.declineCheckout)

	return r
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: false, Message: msg})
}

func (p *provider) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.cfg.SecretKey != "" && r.Header.Get("Authorization") != "Bearer "+p.cfg.SecretKey {
			fail(w, http.StatusUnauthorized, "Invalid key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *provider) resolveAccount(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("account_number")
	bank := r.URL.Query().Get("bank_code")

	if !accountNumberRe.MatchString(number) || bank == "" {
		fail(w, http.StatusBadRequest, "account_number and bank_code are required")
		return
	}
	if strings.HasSuffix(number, unresolvableSuffix) {
		fail(w, http.StatusUnprocessableEntity, "Could not resolve account name. Check parameters or try again.")
		return
	}

	ok(w, "Account number resolved", map[string]string{
		"account_number": number,
		"account_name":   "MOCK HOLDER " + number[len(number)-4:],
	})
}

func (p *provider) initializeTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Amount int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 || req.Email == "" {
		fail(w, http.StatusBadRequest, "email and a positive amount are required")
		return
	}

	c := &charge{Reference: "dep_" + token(8), Email: req.Email, Amount: req.Amount}
	p.mu.Lock()
	p.charges[c.Reference] = c
	p.mu.Unlock()

	p.logger.Info("checkout opened", "reference", c.Reference, "amount", c.Amount)
	if p.cfg.AutoConfirm {
		go p.settleCharge(c.Reference, true, p.cfg.SettleDelay)
	}

	ok(w, "Authorization URL created", map[string]string{
		"authorization_url": p.cfg.PublicURL + "/checkout/" + c.Reference,
		"access_code":       token(6),
		"reference":         c.Reference,
	})
}

func (p *provider) payCheckout(w http.ResponseWriter, r *http.Request) {
	if !p.settleCharge(chi.URLParam(r, "reference"), true, 0) {
		fail(w, http.StatusNotFound, "Transaction reference not found")
		return
	}
	ok(w, "Charge attempted", nil)
}

func (p *provider) declineCheckout(w http.ResponseWriter, r *http.Request) {
	if !p.settleCharge(chi.URLParam(r, "reference"), false, 0) {
		fail(w, http.StatusNotFound, "Transaction reference not found")
		return
	}
	ok(w, "Charge declined", nil)
}

// settleCharge reports a checkout outcome once. It returns false for an
// unknown or already settled reference.
func (p *provider) settleCharge(reference string, paid bool, delay time.Duration) bool {
	p.mu.Lock()
	c, found := p.charges[reference]
	if !found || c.Paid {
		p.mu.Unlock()
		return false
	}
	c.Paid = true
	amount := c.Amount
	p.mu.Unlock()

	event, status := "charge.success", "success"
	if !paid {
		event, status = "charge.failed", "failed"
	}
	go func() {
		time.Sleep(delay)
		p.notifier.send(event, eventData{Reference: reference, Amount: amount, Status: status})
	}()
	return true
}

func (p *provider) createRecipient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		AccountNumber string `json:"account_number"`
		BankCode      string `json:"bank_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !accountNumberRe.MatchString(req.AccountNumber) {
		fail(w, http.StatusBadRequest, "a valid account_number is required")
		return
	}

	rc := recipient{Code: "RCP_" + token(6), Name: req.Name, AccountNumber: req.AccountNumber, BankCode: req.BankCode}
	p.mu.Lock()
	p.recipients[rc.Code] = rc
	p.mu.Unlock()

	ok(w, "Transfer recipient created successfully", map[string]string{
		"recipient_code": rc.Code,
		"name":           rc.Name,
	})
}

func (p *provider) initiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    int64  `json:"amount"`
		Recipient string `json:"recipient"`
		Reference string `json:"reference"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 || req.Reference == "" {
		fail(w, http.StatusBadRequest, "amount, recipient and reference are required")
		return
	}

	p.mu.Lock()
	rc, found := p.recipients[req.Recipient]
	duplicate := p.transfers[req.Reference]
	if found && !duplicate {
		p.transfers[req.Reference] = true
	}
	p.mu.Unlock()

	if !found {
		fail(w, http.StatusBadRequest, "Recipient not found")
		return
	}
	if duplicate {
		fail(w, http.StatusBadRequest, "Duplicate Transaction Reference")
		return
	}

	event, status, reason := "transfer.success", "success", ""
	if strings.HasSuffix(rc.AccountNumber, failingSuffix) {
		event, status, reason = "transfer.failed", "failed", "Beneficiary bank unavailable"
	}
	p.logger.Info("transfer queued", "reference", req.Reference, "amount", req.Amount, "outcome", event)

	go func() {
		time.Sleep(p.cfg.SettleDelay)
		p.notifier.send(event, eventData{Reference: req.Reference, Amount: req.Amount, Status: status, Reason: reason})
	}()

	ok(w, "Transfer has been queued", map[string]any{
		"reference":     req.Reference,
		"amount":        req.Amount,
		"status":        "pending",
		"transfer_code": "TRF_" + token(6),
	})
}

func token(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
