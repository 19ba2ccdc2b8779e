package shared

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate is embedded by aggregate roots. It carries identity, audit
// timestamps, the optimistic-lock version and the events raised since the
// aggregate was loaded or last saved.
type Aggregate struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int

	pending []DomainEvent
}

// NewAggregate returns a fresh aggregate with a random ID at version 1
func NewAggregate() Aggregate {
	now := time.Now()
	return Aggregate{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch stamps the aggregate as modified now
func (a *Aggregate) Touch() {
	a.UpdatedAt = time.Now()
}

// Raise queues an event for publication once the aggregate is persisted
func (a *Aggregate) Raise(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the queued events in the order they were raised
func (a *Aggregate) PendingEvents() []DomainEvent {
	return a.pending
}

// ClearEvents drops the queued events after they have been published
func (a *Aggregate) ClearEvents() {
	a.pending = nil
}
