package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type WebhookEventStatus string

const (
	WebhookEventStatusReceived  WebhookEventStatus = "received"
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	WebhookEventStatusIgnored   WebhookEventStatus = "ignored"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
)

type WebhookEventType string

const (
	WebhookEventTransferSuccess  WebhookEventType = "transfer.success"
	WebhookEventTransferFailed   WebhookEventType = "transfer.failed"
	WebhookEventTransferReversed WebhookEventType = "transfer.reversed"
	WebhookEventChargeSuccess    WebhookEventType = "charge.success"
	WebhookEventChargeFailed     WebhookEventType = "charge.failed"
)

type WebhookEvent struct {
	ID          uuid.UUID
	EventType   WebhookEventType
	Reference   string
	Payload     json.RawMessage
	Status      WebhookEventStatus
	Attempts    int
	LastError   *string
	LastAttempt *time.Time
	CreatedAt   time.Time
}
