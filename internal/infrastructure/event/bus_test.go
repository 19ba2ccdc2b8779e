package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingHandler implements EventHandler for testing
type recordingHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func newInvoiceEvents(t *testing.T) (created, statusChanged shared.DomainEvent) {
	t.Helper()
	issue := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	inv, err := invoicing.NewInvoice(uuid.New(), uuid.New(), "INV-2026-0001", issue, issue.AddDate(0, 0, 14), "EUR")
	require.NoError(t, err)
	return invoicing.NewInvoiceCreatedEvent(inv),
		invoicing.NewInvoiceStatusChangedEvent(inv, invoicing.StatusDraft, invoicing.StatusSent)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	created, statusChanged := newInvoiceEvents(t)

	t.Run("routes by event type", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		createdHandler := newRecordingHandler(invoicing.EventTypeInvoiceCreated)
		statusHandler := newRecordingHandler(invoicing.EventTypeInvoiceStatusChanged)
		bus.Subscribe(createdHandler)
		bus.Subscribe(statusHandler)

		require.NoError(t, bus.Publish(context.Background(), created, statusChanged))

		assert.Equal(t, []shared.DomainEvent{created}, createdHandler.getHandled())
		assert.Equal(t, []shared.DomainEvent{statusChanged}, statusHandler.getHandled())
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		wildcard := newRecordingHandler()
		bus.Subscribe(wildcard)

		require.NoError(t, bus.Publish(context.Background(), created, statusChanged))

		assert.Len(t, wildcard.getHandled(), 2)
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler(invoicing.EventTypeInvoiceCreated)
		bus.Subscribe(handler, invoicing.EventTypeInvoiceStatusChanged)

		require.NoError(t, bus.Publish(context.Background(), created, statusChanged))

		assert.Equal(t, []shared.DomainEvent{statusChanged}, handler.getHandled())
	})

	t.Run("duplicate subscription delivers once", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler(invoicing.EventTypeInvoiceCreated)
		bus.Subscribe(handler)
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), created))

		assert.Len(t, handler.getHandled(), 1)
	})
}

func TestInMemoryEventBus_FailingHandlers(t *testing.T) {
	created, _ := newInvoiceEvents(t)
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newRecordingHandler(invoicing.EventTypeInvoiceCreated)
	failing.err = errors.New("cache unavailable")
	panicking := NewHandlerFunc(func(ctx context.Context, event shared.DomainEvent) error {
		panic("boom")
	}, invoicing.EventTypeInvoiceCreated)
	healthy := newRecordingHandler(invoicing.EventTypeInvoiceCreated)

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), created))

	assert.Len(t, healthy.getHandled(), 1)
	assert.Len(t, recorded.FilterMessage("Event handler failed").All(), 2)

	published, failed := bus.Stats()
	assert.Equal(t, int64(1), published)
	assert.Equal(t, int64(2), failed)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	created, _ := newInvoiceEvents(t)
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler(invoicing.AllEventTypes()...)
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), created)
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), created)

	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, 0, bus.registry.Len())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.IsRunning())

	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.IsRunning())
}
