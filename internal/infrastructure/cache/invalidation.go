package cache

import (
	"context"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Invalidator drops a cached value
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// StatsInvalidationHandler drops the cached stats whenever an invoice changes
type StatsInvalidationHandler struct {
	cache Invalidator
}

// NewStatsInvalidationHandler creates the handler
func NewStatsInvalidationHandler(cache Invalidator) *StatsInvalidationHandler {
	return &StatsInvalidationHandler{cache: cache}
}

// Handle implements shared.EventHandler
func (h *StatsInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.cache.Invalidate(ctx)
}

// EventTypes implements shared.EventHandler
func (h *StatsInvalidationHandler) EventTypes() []string {
	return invoicing.AllEventTypes()
}

var _ shared.EventHandler = (*StatsInvalidationHandler)(nil)
