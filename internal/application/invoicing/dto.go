package invoicing

import (
	"cmp"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of issue and due dates
const DateLayout = "2006-01-02"

// =============================================================================
// Request DTOs
// =============================================================================

// LineItemInput is one submitted line item. A nil Total is derived from
// quantity and unit price; a Total that disagrees with them is kept as a
// pinned item total.
type LineItemInput struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       *decimal.Decimal `json:"total"`
}

// TotalsInput carries the submitted header amounts. Nil fields are computed;
// values that disagree with the computed ones are kept as overrides.
type TotalsInput struct {
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	Subtotal  *decimal.Decimal `json:"subtotal"`
	TaxAmount *decimal.Decimal `json:"tax_amount"`
	Total     *decimal.Decimal `json:"total"`
}

// CreateInvoiceRequest represents a request to create a new invoice
type CreateInvoiceRequest struct {
	UserID         string          `json:"user_id" binding:"required,uuid"`
	CustomerID     string          `json:"customer_id" binding:"required,uuid"`
	InvoiceNumber  string          `json:"invoice_number" binding:"max=50"`
	IssueDate      string          `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate        string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	CurrencyCode   string          `json:"currency_code" binding:"omitempty,len=3"`
	Notes          string          `json:"notes"`
	RecipientEmail string          `json:"recipient_email" binding:"omitempty,email,max=255"`
	Items          []LineItemInput `json:"items" binding:"required,min=1,dive"`
	TotalsInput
}

// UpdateInvoiceRequest represents a request to update an invoice. Nil fields
// are left unchanged; a nil Items slice keeps the stored items.
type UpdateInvoiceRequest struct {
	IssueDate      *string         `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate        *string         `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	CurrencyCode   *string         `json:"currency_code" binding:"omitempty,len=3"`
	Notes          *string         `json:"notes"`
	RecipientEmail *string         `json:"recipient_email" binding:"omitempty,max=255"`
	Items          []LineItemInput `json:"items" binding:"omitempty,dive"`
	TotalsInput
}

// touchesComputation reports whether the request changes items or totals
func (r UpdateInvoiceRequest) touchesComputation() bool {
	return r.Items != nil || r.TaxRate != nil || r.Subtotal != nil || r.TaxAmount != nil || r.Total != nil
}

// CalculateRequest asks for a preview of the totals of a set of items
type CalculateRequest struct {
	Items []LineItemInput `json:"items" binding:"required,min=1,dive"`
	TotalsInput
}

// MarkPaidRequest represents a request to mark an invoice as paid
type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RecordPaymentRequest represents a payment received against an invoice
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"omitempty,oneof=bank_transfer credit_card cash check paypal other"`
	PaidAt    *time.Time      `json:"paid_at"`
	Reference string          `json:"reference" binding:"max=100"`
	Notes     string          `json:"notes"`
}

// RefundPaymentRequest represents a refund of a recorded payment. Without an
// amount the rest of the payment is refunded.
type RefundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"max=500"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=draft sent paid overdue reminder_sent cancelled"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// query validates the optional filters and maps them onto a repository
// filter. Unset ordering falls back to newest first.
func (f InvoiceListFilter) query() (shared.Filter, error) {
	q := shared.Filter{
		Page:     max(f.Page, 1),
		PageSize: f.PageSize,
		OrderBy:  cmp.Or(f.OrderBy, "created_at"),
		OrderDir: cmp.Or(f.OrderDir, "desc"),
		Filters:  map[string]any{},
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	for _, opt := range []struct{ key, raw, code, label string }{
		{"customer_id", f.CustomerID, "INVALID_CUSTOMER", "Customer ID"},
		{"user_id", f.UserID, "INVALID_USER", "User ID"},
	} {
		if opt.raw == "" {
			continue
		}
		id, err := parseRequiredID(opt.raw, opt.code, opt.label)
		if err != nil {
			return q, err
		}
		q.Filters[opt.key] = id
	}

	if f.Status != "" {
		status := invoicing.Status(f.Status)
		if !status.IsValid() {
			return q, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", f.Status))
		}
		q.Filters["status"] = status
	}
	return q, nil
}

// =============================================================================
// Response DTOs
// =============================================================================

// LineItemResponse is a line item as computed by the engine
type LineItemResponse struct {
	Key         int             `json:"key"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	TotalPinned bool            `json:"total_pinned"`
}

// CalculationResponse is the financial snapshot of a set of items
type CalculationResponse struct {
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	Total         decimal.Decimal    `json:"total"`
	SubtotalMode  string             `json:"subtotal_mode"`
	TaxAmountMode string             `json:"tax_amount_mode"`
	TotalMode     string             `json:"total_mode"`
}

// InvoiceItemResponse is a stored invoice line
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// PaymentResponse is a payment recorded against an invoice
type PaymentResponse struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	PaidAt       time.Time       `json:"paid_at"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Status       string          `json:"status"`
	IsRefund     bool            `json:"is_refund"`
	RefundOf     *uuid.UUID      `json:"refund_of,omitempty"`
	RefundReason string          `json:"refund_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	InvoiceNumber  string                `json:"invoice_number"`
	UserID         uuid.UUID             `json:"user_id"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	IssueDate      string                `json:"issue_date"`
	DueDate        string                `json:"due_date"`
	Status         string                `json:"status"`
	CurrencyCode   string                `json:"currency_code"`
	Notes          string                `json:"notes"`
	RecipientEmail string                `json:"recipient_email"`
	Items          []InvoiceItemResponse `json:"items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	TaxRate        decimal.Decimal       `json:"tax_rate"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	Total          decimal.Decimal       `json:"total"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	BalanceDue     decimal.Decimal       `json:"balance_due"`
	ReminderCount  int                   `json:"reminder_count"`
	LastReminderAt *time.Time            `json:"last_reminder_at,omitempty"`
	SentAt         *time.Time            `json:"sent_at,omitempty"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason   string                `json:"cancel_reason,omitempty"`
	Payments       []PaymentResponse     `json:"payments"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Version        int                   `json:"version"`
}

// InvoiceListResponse represents a list item for invoices
type InvoiceListResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	Status        string          `json:"status"`
	CurrencyCode  string          `json:"currency_code"`
	Total         decimal.Decimal `json:"total"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	ItemCount     int             `json:"item_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatsResponse aggregates invoices for the dashboard
type StatsResponse struct {
	TotalInvoices int64            `json:"total_invoices"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	StatusCounts  map[string]int64 `json:"status_counts"`
}

// =============================================================================
// Converters
// =============================================================================

// ToCalculationResponse converts an engine state to a CalculationResponse
func ToCalculationResponse(e *invoicing.Engine) CalculationResponse {
	items := e.Items()
	totals := e.Snapshot()
	resp := CalculationResponse{
		Items:         make([]LineItemResponse, len(items)),
		Subtotal:      totals.Subtotal,
		TaxRate:       totals.TaxRate,
		TaxAmount:     totals.TaxAmount,
		Total:         totals.Total,
		SubtotalMode:  totals.SubtotalMode.String(),
		TaxAmountMode: totals.TaxAmountMode.String(),
		TotalMode:     totals.TotalMode.String(),
	}
	for i, item := range items {
		resp.Items[i] = LineItemResponse{
			Key:         int(item.Key),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total.Round(2),
			TotalPinned: item.TotalPinned,
		}
	}
	return resp
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		UserID:         inv.UserID,
		CustomerID:     inv.CustomerID,
		IssueDate:      inv.IssueDate.Format(DateLayout),
		DueDate:        inv.DueDate.Format(DateLayout),
		Status:         string(inv.Status),
		CurrencyCode:   inv.CurrencyCode,
		Notes:          inv.Notes,
		RecipientEmail: inv.RecipientEmail,
		Items:          make([]InvoiceItemResponse, len(inv.Items)),
		Subtotal:       inv.Subtotal,
		TaxRate:        inv.TaxRate,
		TaxAmount:      inv.TaxAmount,
		Total:          inv.Total,
		AmountPaid:     inv.AmountPaid,
		BalanceDue:     inv.BalanceDue(),
		ReminderCount:  inv.ReminderCount,
		LastReminderAt: inv.LastReminderAt,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		CancelledAt:    inv.CancelledAt,
		CancelReason:   inv.CancelReason,
		Payments:       make([]PaymentResponse, len(inv.Payments)),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		Version:        inv.Version,
	}
	for i, item := range inv.Items {
		resp.Items[i] = InvoiceItemResponse{
			ID:          item.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		}
	}
	for i, p := range inv.Payments {
		resp.Payments[i] = ToPaymentResponse(&p)
	}
	return resp
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		PaidAt:       p.PaidAt,
		Reference:    p.Reference,
		Notes:        p.Notes,
		Status:       string(p.Status),
		IsRefund:     p.IsRefund,
		RefundOf:     p.RefundOf,
		RefundReason: p.RefundReason,
		CreatedAt:    p.CreatedAt,
	}
}

// ToInvoiceListResponses converts invoices to list items
func ToInvoiceListResponses(invoices []invoicing.Invoice) []InvoiceListResponse {
	responses := make([]InvoiceListResponse, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		responses[i] = InvoiceListResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CustomerID:    inv.CustomerID,
			IssueDate:     inv.IssueDate.Format(DateLayout),
			DueDate:       inv.DueDate.Format(DateLayout),
			Status:        string(inv.Status),
			CurrencyCode:  inv.CurrencyCode,
			Total:         inv.Total,
			BalanceDue:    inv.BalanceDue(),
			ItemCount:     len(inv.Items),
			CreatedAt:     inv.CreatedAt,
		}
	}
	return responses
}

// ToStatsResponse converts domain stats to StatsResponse
func ToStatsResponse(stats *invoicing.Stats) StatsResponse {
	counts := make(map[string]int64, len(stats.StatusCounts))
	for _, status := range invoicing.AllStatuses() {
		counts[string(status)] = stats.StatusCounts[status]
	}
	return StatsResponse{
		TotalInvoices: stats.TotalInvoices,
		TotalRevenue:  stats.TotalRevenue,
		StatusCounts:  counts,
	}
}
