package testutil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-user"), TestUserID())
}

func TestNewDraftInvoice(t *testing.T) {
	customerID := uuid.New()
	inv := NewDraftInvoice(t, customerID, "INV-2026-0001", Date(2026, 1, 10),
		Item{Description: "Design", Quantity: "2", UnitPrice: "50"},
		Item{Description: "Hosting", Quantity: "1", UnitPrice: "25.50"},
	)

	assert.Equal(t, invoicing.StatusDraft, inv.Status)
	assert.Equal(t, customerID, inv.CustomerID)
	assert.Equal(t, Date(2026, 2, 9), inv.DueDate)
	assert.Len(t, inv.Items, 2)
	assert.True(t, decimal.RequireFromString("125.50").Equal(inv.Subtotal), inv.Subtotal.String())
	assert.Empty(t, inv.PendingEvents())
}

func TestNewDraftInvoice_DefaultItem(t *testing.T) {
	inv := NewDraftInvoice(t, uuid.New(), "INV-2026-0002", Date(2026, 1, 10))
	require.Len(t, inv.Items, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(inv.Subtotal))
}

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher()
	e1 := shared.NewEventHeader("InvoiceCreated", "Invoice", uuid.New())
	e2 := shared.NewEventHeader("InvoicePaid", "Invoice", uuid.New())

	require.NoError(t, p.Publish(context.Background(), &e1, &e2))
	assert.Equal(t, []string{"InvoiceCreated", "InvoicePaid"}, p.EventTypes())
	assert.Len(t, p.Events(), 2)

	boom := errors.New("boom")
	p.FailWith(boom)
	assert.ErrorIs(t, p.Publish(context.Background(), &e1), boom)
	assert.Len(t, p.Events(), 3)

	p.Reset()
	assert.Empty(t, p.Events())
}

func TestCountingHandler(t *testing.T) {
	h := NewCountingHandler("InvoicePaid")
	assert.Equal(t, []string{"InvoicePaid"}, h.EventTypes())

	e := shared.NewEventHeader("InvoicePaid", "Invoice", uuid.New())
	require.NoError(t, h.Handle(context.Background(), &e))
	require.NoError(t, h.Handle(context.Background(), &e))

	assert.Equal(t, 2, h.Count("InvoicePaid"))
	assert.Equal(t, 0, h.Count("InvoiceSent"))
	assert.Equal(t, 2, h.Total())
}

func TestAPIClient(t *testing.T) {
	r := gin.New()
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "ERR_INVALID_JSON", "message": err.Error()},
			})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": body})
	})
	client := NewAPIClient(t, r)

	data := RequireOK[map[string]string](t, client.Do(http.MethodPost, "/echo", map[string]string{"name": "Acme"}), http.StatusCreated)
	assert.Equal(t, "Acme", data["name"])

	AssertError(t, client.Do(http.MethodPost, "/echo", "{not json"), http.StatusBadRequest, "ERR_INVALID_JSON")
}

func TestRequireEventually(t *testing.T) {
	start := time.Now()
	RequireEventually(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, time.Minute)
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}
