package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber  string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	IssueDate      time.Time        `gorm:"not null"`
	DueDate        time.Time        `gorm:"not null;index"`
	Status         invoicing.Status `gorm:"type:varchar(20);not null;default:'draft';index"`
	CurrencyCode   string           `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes          string           `gorm:"type:text"`
	RecipientEmail string           `gorm:"type:varchar(255)"`
	Subtotal       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TaxRate        decimal.Decimal  `gorm:"type:decimal(7,4);not null;default:20"`
	TaxAmount      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	ReminderCount  int              `gorm:"not null;default:0"`
	LastReminderAt *time.Time
	SentAt         *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string             `gorm:"type:varchar(500)"`
	Items          []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments       []PaymentModel     `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		Aggregate:      m.AggregateModel.aggregate(),
		InvoiceNumber:  m.InvoiceNumber,
		UserID:         m.UserID,
		CustomerID:     m.CustomerID,
		IssueDate:      m.IssueDate,
		DueDate:        m.DueDate,
		Status:         m.Status,
		CurrencyCode:   m.CurrencyCode,
		Notes:          m.Notes,
		RecipientEmail: m.RecipientEmail,
		Subtotal:       m.Subtotal,
		TaxRate:        m.TaxRate,
		TaxAmount:      m.TaxAmount,
		Total:          m.Total,
		AmountPaid:     m.AmountPaid,
		ReminderCount:  m.ReminderCount,
		LastReminderAt: m.LastReminderAt,
		SentAt:         m.SentAt,
		PaidAt:         m.PaidAt,
		CancelledAt:    m.CancelledAt,
		CancelReason:   m.CancelReason,
		Items:          make([]invoicing.InvoiceItem, len(m.Items)),
		Payments:       make([]invoicing.Payment, len(m.Payments)),
	}
	for i := range m.Items {
		inv.Items[i] = *m.Items[i].ToDomain()
	}
	for i := range m.Payments {
		inv.Payments[i] = *m.Payments[i].ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.AggregateModel = aggregateColumns(inv.Aggregate)
	m.InvoiceNumber = inv.InvoiceNumber
	m.UserID = inv.UserID
	m.CustomerID = inv.CustomerID
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.CurrencyCode = inv.CurrencyCode
	m.Notes = inv.Notes
	m.RecipientEmail = inv.RecipientEmail
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.AmountPaid = inv.AmountPaid
	m.ReminderCount = inv.ReminderCount
	m.LastReminderAt = inv.LastReminderAt
	m.SentAt = inv.SentAt
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomain(&inv.Items[i])
		m.Items[i].InvoiceID = inv.ID
	}
	m.Payments = make([]PaymentModel, len(inv.Payments))
	for i := range inv.Payments {
		m.Payments[i].FromDomain(&inv.Payments[i])
		m.Payments[i].InvoiceID = inv.ID
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice aggregate.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line item.
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null;default:0"`
	Description string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem.
func (m *InvoiceItemModel) ToDomain() *invoicing.InvoiceItem {
	return &invoicing.InvoiceItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Position:    m.Position,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Total:       m.Total,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem.
func (m *InvoiceItemModel) FromDomain(item *invoicing.InvoiceItem) {
	m.ID = item.ID
	m.InvoiceID = item.InvoiceID
	m.Position = item.Position
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.Total = item.Total
}

// PaymentModel is the persistence model for a payment against an invoice.
// Refund rows carry a negative amount and the ID of the payment they reverse.
type PaymentModel struct {
	ID           uuid.UUID               `gorm:"type:uuid;primary_key"`
	InvoiceID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal         `gorm:"type:decimal(12,2);not null"`
	Method       invoicing.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt       time.Time               `gorm:"not null"`
	Reference    string                  `gorm:"type:varchar(100)"`
	Notes        string                  `gorm:"type:text"`
	Status       invoicing.PaymentStatus `gorm:"type:varchar(20);not null;default:completed"`
	IsRefund     bool                    `gorm:"not null;default:false"`
	RefundOf     *uuid.UUID              `gorm:"type:uuid;index"`
	RefundReason string                  `gorm:"type:text"`
	CreatedAt    time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	status := m.Status
	if status == "" {
		status = invoicing.PaymentStatusCompleted
	}
	return &invoicing.Payment{
		ID:           m.ID,
		InvoiceID:    m.InvoiceID,
		Amount:       m.Amount,
		Method:       m.Method,
		PaidAt:       m.PaidAt,
		Reference:    m.Reference,
		Notes:        m.Notes,
		Status:       status,
		IsRefund:     m.IsRefund,
		RefundOf:     m.RefundOf,
		RefundReason: m.RefundReason,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *invoicing.Payment) {
	m.ID = p.ID
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.Method = p.Method
	m.PaidAt = p.PaidAt
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.Status = p.Status
	m.IsRefund = p.IsRefund
	m.RefundOf = p.RefundOf
	m.RefundReason = p.RefundReason
	m.CreatedAt = p.CreatedAt
}
