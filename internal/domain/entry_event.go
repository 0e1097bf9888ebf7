package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EntryEventType string

const (
	EntryEventCreated   EntryEventType = "created"
	EntryEventCompleted EntryEventType = "completed"
	EntryEventFailed    EntryEventType = "failed"
	EntryEventRejected  EntryEventType = "rejected"
	EntryEventCancelled EntryEventType = "cancelled"
)

type EntryEvent struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	EventType EntryEventType
	Actor     string
	Payload   json.RawMessage
	CreatedAt time.Time
}
