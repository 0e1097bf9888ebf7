// Package gateway talks to the Paystack-compatible payment gateway used for
// deposits, bank account resolution and outbound transfers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Checkout is what the collection endpoint hands back for a deposit.
type Checkout struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type TransferOrder struct {
	Reference     string
	Amount        int64
	BankCode      string
	AccountNumber string
	AccountName   string
	Reason        string
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ResolveAccount returns the holder name for a bank account.
func (c *Client) ResolveAccount(ctx context.Context, bankCode, accountNumber string) (string, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var data struct {
		AccountName string `json:"account_name"`
	}
	status, err := c.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &data)
	if err != nil {
		if isRejection(status) {
			return "", fmt.Errorf("ResolveAccount: %v: %w", err, domain.ErrBankResolution)
		}
		return "", fmt.Errorf("ResolveAccount: %v: %w", err, domain.ErrGatewayUnavailable)
	}
	if data.AccountName == "" {
		return "", fmt.Errorf("ResolveAccount: empty account name: %w", domain.ErrBankResolution)
	}
	return data.AccountName, nil
}

// InitializeTransaction opens a checkout for amount kobo.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amount int64) (*Checkout, error) {
	req := map[string]any{"email": email, "amount": amount, "currency": "NGN"}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &data); err != nil {
		return nil, fmt.Errorf("InitializeTransaction: %v: %w", err, domain.ErrGatewayUnavailable)
	}
	if data.Reference == "" {
		return nil, fmt.Errorf("InitializeTransaction: missing reference: %w", domain.ErrGatewayUnavailable)
	}
	return &Checkout{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

// InitiateTransfer creates a transfer recipient and sends order.Amount to
// it under order.Reference. The outcome arrives later by webhook.
//
// ErrTransferRejected means no transfer exists at the gateway: recipient
// creation failed, or /transfer answered 4xx. Any other failure from
// /transfer is ErrGatewayUnavailable and the transfer may still go out.
func (c *Client) InitiateTransfer(ctx context.Context, order TransferOrder) error {
	recipientReq := map[string]any{
		"type":           "nuban",
		"name":           order.AccountName,
		"account_number": order.AccountNumber,
		"bank_code":      order.BankCode,
		"currency":       "NGN",
	}
	var recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/transferrecipient", recipientReq, &recipient); err != nil {
		return fmt.Errorf("InitiateTransfer: recipient: %v: %w", err, domain.ErrTransferRejected)
	}
	if recipient.RecipientCode == "" {
		return fmt.Errorf("InitiateTransfer: recipient: missing recipient code: %w", domain.ErrTransferRejected)
	}

	transferReq := map[string]any{
		"source":    "balance",
		"amount":    order.Amount,
		"recipient": recipient.RecipientCode,
		"reference": order.Reference,
		"reason":    order.Reason,
	}
	status, err := c.do(ctx, http.MethodPost, "/transfer", transferReq, nil)
	if err != nil {
		if isRejection(status) {
			return fmt.Errorf("InitiateTransfer: %v: %w", err, domain.ErrTransferRejected)
		}
		return fmt.Errorf("InitiateTransfer: %v: %w", err, domain.ErrGatewayUnavailable)
	}
	return nil
}

func isRejection(status int) bool {
	return status >= 400 && status < 500
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	log := logging.FromContext(ctx)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("gateway response received",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("status %d: decode: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
