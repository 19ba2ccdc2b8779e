package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// EventHeader implements DomainEvent and is embedded by concrete events
type EventHeader struct {
	ID      uuid.UUID `json:"event_id"`
	Name    string    `json:"event_type"`
	At      time.Time `json:"occurred_at"`
	Subject uuid.UUID `json:"aggregate_id"`
	Kind    string    `json:"aggregate_type"`
}

// NewEventHeader stamps a new event of eventType about the aggregate
// identified by kind and subject
func NewEventHeader(eventType, kind string, subject uuid.UUID) EventHeader {
	return EventHeader{
		ID:      uuid.New(),
		Name:    eventType,
		At:      time.Now(),
		Subject: subject,
		Kind:    kind,
	}
}

func (h *EventHeader) EventID() uuid.UUID     { return h.ID }
func (h *EventHeader) EventType() string      { return h.Name }
func (h *EventHeader) OccurredAt() time.Time  { return h.At }
func (h *EventHeader) AggregateID() uuid.UUID { return h.Subject }
func (h *EventHeader) AggregateType() string  { return h.Kind }

// EventHandler reacts to published events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all events
	EventTypes() []string
}

// EventPublisher hands events to the subscribed handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is a publisher whose subscriptions can be managed at runtime
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
