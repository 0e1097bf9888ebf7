package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/josh-kwaku/naira-wallet/internal/gateway"
)

type eventData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// notifier posts signed webhooks, retrying with backoff the way a real
// gateway does when the receiver is not 2xx.
type notifier struct {
	url      string
	secret   string
	client   *http.Client
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func newNotifier(url, secret string, logger *slog.Logger) *notifier {
	return &notifier{
		url:      url,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		attempts: 4,
		backoff:  time.Second,
	}
}

func (n *notifier) send(event string, data eventData) {
	body, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		n.logger.Error("failed to encode webhook", "error", err)
		return
	}
	sig := gateway.Sign(n.secret, body)
	log := n.logger.With("event", event, "reference", data.Reference)

	wait := n.backoff
	for attempt := 1; attempt <= n.attempts; attempt++ {
		status, err := n.post(body, sig)
		if err == nil && status < 300 {
			log.Info("webhook delivered", "attempt", attempt, "status", status)
			return
		}
		log.Warn("webhook delivery failed", "attempt", attempt, "status", status, "error", err)
		if attempt < n.attempts {
			time.Sleep(wait)
			wait *= 2
		}
	}
	log.Error("webhook abandoned", "attempts", n.attempts)
}

func (n *notifier) post(body []byte, sig string) (int, error) {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(gateway.SignatureHeader, sig)

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
