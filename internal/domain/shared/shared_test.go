package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("load invoice: %w", NewDomainError("NOT_FOUND", "Invoice not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "load invoice: Invoice not found", err.Error())

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestFilter_Offset(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		offset int
		paged  bool
	}{
		{"zero value", Filter{}, 0, false},
		{"first page", Filter{Page: 1, PageSize: 20}, 0, true},
		{"third page", Filter{Page: 3, PageSize: 20}, 40, true},
		{"page without size", Filter{Page: 3}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, tt.filter.Offset())
			assert.Equal(t, tt.paged, tt.filter.Paged())
		})
	}
}

func TestAggregate_Events(t *testing.T) {
	root := NewAggregate()
	assert.Equal(t, 1, root.Version)
	assert.NotEqual(t, uuid.Nil, root.ID)
	assert.Equal(t, root.CreatedAt, root.UpdatedAt)

	first := NewEventHeader("InvoiceCreated", "Invoice", root.ID)
	second := NewEventHeader("InvoiceUpdated", "Invoice", root.ID)
	root.Raise(&first)
	root.Raise(&second)

	pending := root.PendingEvents()
	require.Len(t, pending, 2)
	assert.Equal(t, "InvoiceCreated", pending[0].EventType())
	assert.Equal(t, "InvoiceUpdated", pending[1].EventType())
	assert.Equal(t, root.ID, pending[0].AggregateID())
	assert.Equal(t, "Invoice", pending[0].AggregateType())
	assert.NotEqual(t, first.EventID(), second.EventID())
	assert.False(t, first.OccurredAt().IsZero())

	root.ClearEvents()
	assert.Empty(t, root.PendingEvents())
}

func TestAggregate_Touch(t *testing.T) {
	root := NewAggregate()
	before := root.UpdatedAt
	root.Touch()
	assert.False(t, root.UpdatedAt.Before(before))
	assert.Equal(t, before, root.CreatedAt)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("billing@example.com"))
	assert.True(t, IsValidEmail("first.last+tag@sub.example.co"))
	assert.False(t, IsValidEmail("billing@example"))
	assert.False(t, IsValidEmail("no at sign"))
}
