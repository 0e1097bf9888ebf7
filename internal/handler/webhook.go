package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/gateway"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

type webhookProcessor interface {
	Process(ctx context.Context, body []byte) (*domain.WebhookEvent, error)
}

type WebhookHandler struct {
	processor webhookProcessor
	secret    string
}

func NewWebhookHandler(processor webhookProcessor, secret string) *WebhookHandler {
	return &WebhookHandler{processor: processor, secret: secret}
}

const maxWebhookBody = 1 << 20

// ReceiveGatewayWebhook acknowledges every authentic event it could store.
// An unknown reference answers 404 so the gap shows up in gateway retries
// and in our logs.
func (h *WebhookHandler) ReceiveGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if r.Method != http.MethodPost {
		RespondAppError(w, ErrMethodNotAllowed, nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if !gateway.VerifySignature(h.secret, body, r.Header.Get(gateway.SignatureHeader)) {
		log.Warn("webhook signature verification failed")
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	event, err := h.processor.Process(r.Context(), body)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		log.Warn("rejected malformed webhook", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	case errors.Is(err, domain.ErrEntryNotFound):
		log.Error("webhook references unknown entry", "error", err)
		RespondAppError(w, ErrEntryNotFound, nil)
		return
	case err != nil:
		log.Error("webhook processing failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("webhook processed",
		"webhook_event_id", event.ID,
		"event_type", event.EventType,
		"reference", event.Reference,
		"status", event.Status,
	)
	RespondSuccess(w, http.StatusOK, map[string]string{"status": string(event.Status)})
}
