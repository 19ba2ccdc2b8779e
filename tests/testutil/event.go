package testutil

import (
	"context"
	"sync"

	"github.com/invoicer/backend/internal/domain/shared"
)

// RecordingPublisher is a shared.EventPublisher that keeps every published
// event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

// NewRecordingPublisher creates an empty recorder.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// FailWith makes subsequent Publish calls return err after recording.
func (p *RecordingPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the events.
func (p *RecordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// EventTypes returns the recorded event types in publish order.
func (p *RecordingPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

// Reset drops all recorded events.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// CountingHandler is a shared.EventHandler that counts deliveries per
// event type.
type CountingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	counts     map[string]int
}

// NewCountingHandler subscribes to eventTypes, or to all events when none
// are given.
func NewCountingHandler(eventTypes ...string) *CountingHandler {
	return &CountingHandler{
		eventTypes: eventTypes,
		counts:     make(map[string]int),
	}
}

// EventTypes implements shared.EventHandler.
func (h *CountingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle implements shared.EventHandler.
func (h *CountingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[event.EventType()]++
	return nil
}

// Count returns how many events of eventType were handled.
func (h *CountingHandler) Count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[eventType]
}

// Total returns the number of handled events.
func (h *CountingHandler) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.counts {
		n += c
	}
	return n
}
