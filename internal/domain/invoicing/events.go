package invoicing

import (
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated         = "InvoiceCreated"
	EventTypeInvoiceUpdated         = "InvoiceUpdated"
	EventTypeInvoiceStatusChanged   = "InvoiceStatusChanged"
	EventTypeInvoicePaymentRecorded = "InvoicePaymentRecorded"
	EventTypeInvoicePaymentRefunded = "InvoicePaymentRefunded"
	EventTypeInvoiceDeleted         = "InvoiceDeleted"
)

// AllEventTypes lists the invoice event types
func AllEventTypes() []string {
	return []string{
		EventTypeInvoiceCreated,
		EventTypeInvoiceUpdated,
		EventTypeInvoiceStatusChanged,
		EventTypeInvoicePaymentRecorded,
		EventTypeInvoicePaymentRefunded,
		EventTypeInvoiceDeleted,
	}
}

// InvoiceCreatedEvent is published when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.EventHeader
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	UserID        uuid.UUID       `json:"user_id"`
	CurrencyCode  string          `json:"currency_code"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		UserID:        inv.UserID,
		CurrencyCode:  inv.CurrencyCode,
		Total:         inv.Total,
	}
}

// InvoiceUpdatedEvent is published when items, totals or details change
type InvoiceUpdatedEvent struct {
	shared.EventHeader
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceUpdatedEvent creates a new InvoiceUpdatedEvent
func NewInvoiceUpdatedEvent(inv *Invoice) *InvoiceUpdatedEvent {
	return &InvoiceUpdatedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoiceUpdated, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		Total:         inv.Total,
	}
}

// InvoiceStatusChangedEvent is published on every status transition
type InvoiceStatusChangedEvent struct {
	shared.EventHeader
	InvoiceNumber string          `json:"invoice_number"`
	OldStatus     Status          `json:"old_status"`
	NewStatus     Status          `json:"new_status"`
	Total         decimal.Decimal `json:"total"`
	CurrencyCode  string          `json:"currency_code"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, oldStatus, newStatus Status) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Total:         inv.Total,
		CurrencyCode:  inv.CurrencyCode,
	}
}

// InvoicePaymentRecordedEvent is published when a payment is recorded
type InvoicePaymentRecordedEvent struct {
	shared.EventHeader
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	CurrencyCode  string          `json:"currency_code"`
}

// NewInvoicePaymentRecordedEvent creates a new InvoicePaymentRecordedEvent
func NewInvoicePaymentRecordedEvent(inv *Invoice, payment *Payment) *InvoicePaymentRecordedEvent {
	return &InvoicePaymentRecordedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoicePaymentRecorded, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		Method:        payment.Method,
		AmountPaid:    inv.AmountPaid,
		CurrencyCode:  inv.CurrencyCode,
	}
}

// InvoicePaymentRefundedEvent is published when a payment is refunded
type InvoicePaymentRefundedEvent struct {
	shared.EventHeader
	InvoiceNumber string          `json:"invoice_number"`
	RefundID      uuid.UUID       `json:"refund_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	CurrencyCode  string          `json:"currency_code"`
}

// NewInvoicePaymentRefundedEvent creates a new InvoicePaymentRefundedEvent.
// Amount is the refunded amount as a positive value.
func NewInvoicePaymentRefundedEvent(inv *Invoice, refund *Payment) *InvoicePaymentRefundedEvent {
	e := &InvoicePaymentRefundedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoicePaymentRefunded, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		RefundID:      refund.ID,
		Amount:        refund.Amount.Neg(),
		Reason:        refund.RefundReason,
		AmountPaid:    inv.AmountPaid,
		CurrencyCode:  inv.CurrencyCode,
	}
	if refund.RefundOf != nil {
		e.PaymentID = *refund.RefundOf
	}
	return e
}

// InvoiceDeletedEvent is published when an invoice is deleted
type InvoiceDeletedEvent struct {
	shared.EventHeader
	InvoiceNumber string `json:"invoice_number"`
	Status        Status `json:"status"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeInvoiceDeleted, AggregateTypeInvoice, inv.ID),
		InvoiceNumber: inv.InvoiceNumber,
		Status:        inv.Status,
	}
}
