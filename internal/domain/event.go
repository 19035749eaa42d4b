package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of domain event.
type EventType string

const (
	EventIngestionCreated EventType = "INGESTION_CREATED"
	EventBatchTriggered   EventType = "BATCH_TRIGGERED"
	EventBatchCompleted   EventType = "BATCH_COMPLETED"
	EventBatchFailed      EventType = "BATCH_FAILED"
)

// EventForStatus returns the event emitted when a batch reaches status.
func EventForStatus(status BatchStatus) (EventType, bool) {
	switch status {
	case BatchStatusTriggered:
		return EventBatchTriggered, true
	case BatchStatusCompleted:
		return EventBatchCompleted, true
	case BatchStatusFailed:
		return EventBatchFailed, true
	default:
		return "", false
	}
}

// DomainEvent is an immutable notification about a committed state change.
// Events are published after the store commit, so subscribers only ever see
// states that have been fully reached.
type DomainEvent struct {
	EventID     string    `json:"event_id"`
	EventType   EventType `json:"event_type"`
	IngestionID string    `json:"ingestion_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Ingestion is set for EventIngestionCreated and includes its batches.
	Ingestion *Ingestion `json:"-"`
	// Batch is set for batch transition events.
	Batch *Batch `json:"-"`
}

// NewIngestionCreatedEvent builds the event published after an ingestion is stored.
func NewIngestionCreatedEvent(ing *Ingestion) *DomainEvent {
	return &DomainEvent{
		EventID:     uuid.NewString(),
		EventType:   EventIngestionCreated,
		IngestionID: ing.IngestionID,
		CreatedAt:   ing.CreatedAt,
		Ingestion:   ing,
	}
}

// NewBatchEvent builds the event published after a batch reaches its current
// status. ok is false for NOT_STARTED, which is never a transition target.
func NewBatchEvent(b *Batch) (*DomainEvent, bool) {
	eventType, ok := EventForStatus(b.Status)
	if !ok {
		return nil, false
	}
	return &DomainEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		IngestionID: b.IngestionID,
		CreatedAt:   b.UpdatedAt,
		Batch:       b,
	}, true
}
