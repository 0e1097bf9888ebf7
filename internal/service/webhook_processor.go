package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
	"github.com/josh-kwaku/naira-wallet/internal/service/ledger"
)

type webhookStore interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	ClaimFailed(ctx context.Context, tx *sql.Tx, maxAttempts, limit int) ([]domain.WebhookEvent, error)
	MarkAttempt(ctx context.Context, exec repository.Execer, id uuid.UUID, status domain.WebhookEventStatus, lastError *string) error
}

type gatewayResolver interface {
	ResolveGatewayEvent(ctx context.Context, ev ledger.GatewayEvent) (*domain.LedgerEntry, error)
}

// WebhookProcessor records every authenticated gateway notification and
// applies it to the ledger. Events that fail for internal reasons stay
// failed and are picked up again by ReplayFailed.
type WebhookProcessor struct {
	webhooks    webhookStore
	resolver    gatewayResolver
	db          *sql.DB
	logger      *slog.Logger
	maxAttempts int
	batchSize   int
}

func NewWebhookProcessor(
	webhooks webhookStore,
	resolver gatewayResolver,
	db *sql.DB,
	logger *slog.Logger,
	maxAttempts int,
	batchSize int,
) *WebhookProcessor {
	return &WebhookProcessor{
		webhooks:    webhooks,
		resolver:    resolver,
		db:          db,
		logger:      logger,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}
}

type gatewayPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		Status          string `json:"status"`
		GatewayResponse string `json:"gateway_response"`
		Reason          string `json:"reason"`
	} `json:"data"`
}

func (p gatewayPayload) reason() string {
	if p.Data.Reason != "" {
		return p.Data.Reason
	}
	if p.Data.GatewayResponse != "" {
		return p.Data.GatewayResponse
	}
	return p.Event
}

// outcomeFor maps a gateway event type to the ledger outcome it carries.
// Types we do not act on report false.
func outcomeFor(t domain.WebhookEventType) (domain.Outcome, bool) {
	switch t {
	case domain.WebhookEventChargeSuccess, domain.WebhookEventTransferSuccess:
		return domain.OutcomeApprove, true
	case domain.WebhookEventChargeFailed, domain.WebhookEventTransferFailed, domain.WebhookEventTransferReversed:
		return domain.OutcomeFail, true
	default:
		return "", false
	}
}

// Process stores body as a webhook event and applies it. The returned error
// wraps ErrEntryNotFound when the reference is unknown to us.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte) (*domain.WebhookEvent, error) {
	var payload gatewayPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("Process: malformed payload: %w", domain.ErrInvalidRequest)
	}
	if payload.Event == "" {
		return nil, fmt.Errorf("Process: missing event type: %w", domain.ErrInvalidRequest)
	}

	event := &domain.WebhookEvent{
		ID:        uuid.New(),
		EventType: domain.WebhookEventType(payload.Event),
		Reference: payload.Data.Reference,
		Payload:   body,
		Status:    domain.WebhookEventStatusReceived,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.webhooks.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("Process: store event: %w", err)
	}

	status, applyErr := p.apply(ctx, event, payload)
	if err := p.webhooks.MarkAttempt(ctx, p.db, event.ID, status, errText(applyErr)); err != nil {
		p.logger.Error("failed to record webhook attempt", "webhook_event_id", event.ID, "error", err)
	}
	event.Status = status
	event.Attempts++

	if applyErr != nil {
		return event, fmt.Errorf("Process: %w", applyErr)
	}
	return event, nil
}

// apply decides the stored status of event. Only errors worth retrying are
// returned.
func (p *WebhookProcessor) apply(ctx context.Context, event *domain.WebhookEvent, payload gatewayPayload) (domain.WebhookEventStatus, error) {
	log := p.logger.With("webhook_event_id", event.ID, "event_type", event.EventType, "reference", event.Reference)

	outcome, ok := outcomeFor(event.EventType)
	if !ok {
		log.Info("ignoring unhandled webhook event type")
		return domain.WebhookEventStatusIgnored, nil
	}
	if event.Reference == "" {
		log.Warn("webhook event without reference")
		return domain.WebhookEventStatusIgnored, nil
	}

	var amount int64
	if outcome == domain.OutcomeApprove {
		amount = payload.Data.Amount
	}
	_, err := p.resolver.ResolveGatewayEvent(ctx, ledger.GatewayEvent{
		Reference: event.Reference,
		Outcome:   outcome,
		Amount:    amount,
		Reason:    payload.reason(),
	})
	switch {
	case err == nil:
		log.Info("webhook applied", "outcome", outcome)
		return domain.WebhookEventStatusProcessed, nil
	case errors.Is(err, domain.ErrSettlementConflict):
		log.Error("webhook contradicts settled entry", "outcome", outcome, "error", err)
		return domain.WebhookEventStatusIgnored, nil
	case errors.Is(err, domain.ErrAlreadyResolved):
		log.Info("webhook replay, entry already resolved")
		return domain.WebhookEventStatusProcessed, nil
	case errors.Is(err, domain.ErrOutcomeNotAllowed), errors.Is(err, domain.ErrEntryNotPending), errors.Is(err, domain.ErrAmountMismatch):
		log.Warn("webhook not applicable to entry", "error", err)
		return domain.WebhookEventStatusIgnored, nil
	default:
		return domain.WebhookEventStatusFailed, err
	}
}

// ReplayFailed retries failed events that have attempts left and returns
// how many were applied.
func (p *WebhookProcessor) ReplayFailed(ctx context.Context) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ReplayFailed: begin tx: %w", err)
	}
	defer tx.Rollback()

	claimed, err := p.webhooks.ClaimFailed(ctx, tx, p.maxAttempts, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("ReplayFailed: %w", err)
	}

	applied := 0
	for i := range claimed {
		event := &claimed[i]

		var payload gatewayPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			msg := "malformed payload"
			if err := p.webhooks.MarkAttempt(ctx, tx, event.ID, domain.WebhookEventStatusIgnored, &msg); err != nil {
				return applied, fmt.Errorf("ReplayFailed: %w", err)
			}
			continue
		}

		status, applyErr := p.apply(ctx, event, payload)
		if applyErr != nil {
			p.logger.Warn("webhook replay failed",
				"webhook_event_id", event.ID,
				"attempt", event.Attempts+1,
				"error", applyErr,
			)
		} else if status == domain.WebhookEventStatusProcessed {
			applied++
		}
		if err := p.webhooks.MarkAttempt(ctx, tx, event.ID, status, errText(applyErr)); err != nil {
			return applied, fmt.Errorf("ReplayFailed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return applied, fmt.Errorf("ReplayFailed: commit: %w", err)
	}
	return applied, nil
}

func errText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
