package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the tax rate percentage applied to new invoices
var DefaultTaxRate = decimal.NewFromInt(20)

// InvoiceItem is a persisted line of an invoice
type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Invoice is the aggregate root for a customer invoice
type Invoice struct {
	shared.Aggregate
	InvoiceNumber  string
	UserID         uuid.UUID
	CustomerID     uuid.UUID
	IssueDate      time.Time
	DueDate        time.Time
	Status         Status
	CurrencyCode   string
	Notes          string
	RecipientEmail string
	Items          []InvoiceItem
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	ReminderCount  int
	LastReminderAt *time.Time
	SentAt         *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string
	Payments       []Payment
}

// NewInvoice creates a draft invoice. The user ID is mandatory; there is no
// fallback owner.
func NewInvoice(userID, customerID uuid.UUID, invoiceNumber string, issueDate, dueDate time.Time, currencyCode string) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if err := validateInvoiceNumber(invoiceNumber); err != nil {
		return nil, err
	}
	if err := validateDates(issueDate, dueDate); err != nil {
		return nil, err
	}
	code, err := ParseCurrencyCode(currencyCode)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		Aggregate:     shared.NewAggregate(),
		InvoiceNumber: invoiceNumber,
		UserID:        userID,
		CustomerID:    customerID,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        StatusDraft,
		CurrencyCode:  code,
		Items:         make([]InvoiceItem, 0),
		Subtotal:      decimal.Zero,
		TaxRate:       DefaultTaxRate,
		TaxAmount:     decimal.Zero,
		Total:         decimal.Zero,
		AmountPaid:    decimal.Zero,
		Payments:      make([]Payment, 0),
	}

	inv.Raise(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// IsEditable reports whether items and totals may still change
func (inv *Invoice) IsEditable() bool {
	return inv.Status == StatusDraft
}

// LineItems converts the stored items to engine line items
func (inv *Invoice) LineItems() []LineItem {
	out := make([]LineItem, len(inv.Items))
	for i, item := range inv.Items {
		out[i] = LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		}
	}
	return out
}

// Engine rebuilds a computation engine from the stored items and totals.
// Stored amounts that disagree with the items come back as overrides.
func (inv *Invoice) Engine() *Engine {
	return LoadEngine(inv.LineItems(), StoredTotals{
		Subtotal:  inv.Subtotal,
		TaxRate:   inv.TaxRate,
		TaxAmount: inv.TaxAmount,
		Total:     inv.Total,
	})
}

// ApplyComputation replaces items and totals with the state of an engine.
// Only draft invoices can be recomputed, and the items must pass submission
// validation.
func (inv *Invoice) ApplyComputation(e *Engine) error {
	if !inv.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify items of invoice in %s status", inv.Status))
	}
	lines := e.Items()
	if err := ValidateLineItems(lines); err != nil {
		return err
	}
	totals := e.Snapshot()
	if err := totals.Check(); err != nil {
		return err
	}

	items := make([]InvoiceItem, len(lines))
	for i, line := range lines {
		items[i] = InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Position:    i + 1,
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total.Round(2),
		}
	}

	inv.Items = items
	inv.Subtotal = totals.Subtotal
	inv.TaxRate = totals.TaxRate
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	inv.Touch()

	if !inv.isNew() {
		inv.Raise(NewInvoiceUpdatedEvent(inv))
	}
	return nil
}

func (inv *Invoice) isNew() bool {
	for _, event := range inv.PendingEvents() {
		if event.EventType() == EventTypeInvoiceCreated {
			return true
		}
	}
	return false
}

// UpdateDetails changes due date, notes and recipient. Paid and cancelled
// invoices are read-only.
func (inv *Invoice) UpdateDetails(dueDate time.Time, notes, recipientEmail string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update invoice in %s status", inv.Status))
	}
	if err := validateDates(inv.IssueDate, dueDate); err != nil {
		return err
	}
	if err := validateRecipientEmail(recipientEmail); err != nil {
		return err
	}
	inv.DueDate = dueDate
	inv.Notes = notes
	inv.RecipientEmail = strings.TrimSpace(recipientEmail)
	inv.Touch()
	inv.Raise(NewInvoiceUpdatedEvent(inv))
	return nil
}

// SetNotes sets free-text notes
func (inv *Invoice) SetNotes(notes string) {
	inv.Notes = notes
	inv.Touch()
}

// SetRecipientEmail sets the email address the invoice is addressed to
func (inv *Invoice) SetRecipientEmail(email string) error {
	if err := validateRecipientEmail(email); err != nil {
		return err
	}
	inv.RecipientEmail = strings.TrimSpace(email)
	inv.Touch()
	return nil
}

// ChangeCurrency changes the invoice currency while it is still a draft
func (inv *Invoice) ChangeCurrency(code string) error {
	if !inv.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", "Currency can only be changed on draft invoices")
	}
	parsed, err := ParseCurrencyCode(code)
	if err != nil {
		return err
	}
	inv.CurrencyCode = parsed
	inv.Touch()
	return nil
}

// ChangeIssueDate moves the issue date of a draft invoice
func (inv *Invoice) ChangeIssueDate(issueDate time.Time) error {
	if !inv.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", "Issue date can only be changed on draft invoices")
	}
	if err := validateDates(issueDate, inv.DueDate); err != nil {
		return err
	}
	inv.IssueDate = issueDate
	inv.Touch()
	return nil
}

// BalanceDue returns the amount still to be paid
func (inv *Invoice) BalanceDue() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

// IsPastDue reports whether an outstanding invoice passed its due date
func (inv *Invoice) IsPastDue(now time.Time) bool {
	return inv.Status.IsOutstanding() && now.After(inv.DueDate)
}

// Send issues a draft invoice
func (inv *Invoice) Send() error {
	if len(inv.Items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "Cannot send an invoice without line items")
	}
	if err := inv.transition(StatusSent); err != nil {
		return err
	}
	now := time.Now()
	inv.SentAt = &now
	return nil
}

// RecordReminder marks that a payment reminder went out
func (inv *Invoice) RecordReminder() error {
	if !inv.Status.IsOutstanding() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send reminder for invoice in %s status", inv.Status))
	}
	if err := inv.transition(StatusReminderSent); err != nil {
		return err
	}
	now := time.Now()
	inv.ReminderCount++
	inv.LastReminderAt = &now
	return nil
}

// MarkOverdue moves an outstanding invoice past its due date to overdue
func (inv *Invoice) MarkOverdue(now time.Time) error {
	if inv.Status == StatusOverdue {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already overdue")
	}
	if !inv.IsPastDue(now) {
		return shared.NewDomainError("NOT_DUE", "Invoice is not past its due date")
	}
	return inv.transition(StatusOverdue)
}

// MarkPaid marks an outstanding invoice as paid
func (inv *Invoice) MarkPaid(paidAt time.Time) error {
	if err := inv.transition(StatusPaid); err != nil {
		return err
	}
	inv.PaidAt = &paidAt
	return nil
}

// Cancel cancels any invoice that is not paid or already cancelled
func (inv *Invoice) Cancel(reason string) error {
	if err := inv.transition(StatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	inv.CancelledAt = &now
	inv.CancelReason = strings.TrimSpace(reason)
	return nil
}

// RecordPayment records a payment against an outstanding invoice. The invoice
// becomes paid once the accumulated amount covers the total.
func (inv *Invoice) RecordPayment(amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference, notes string) (*Payment, error) {
	if !inv.Status.IsOutstanding() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment for invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if method == "" {
		method = PaymentMethodOther
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Invalid payment method")
	}
	if len(reference) > maxPaymentReference {
		return nil, shared.NewDomainError("INVALID_PAYMENT_REFERENCE", "Payment reference cannot exceed 100 characters")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := Payment{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		Amount:    amount,
		Method:    method,
		PaidAt:    paidAt,
		Reference: strings.TrimSpace(reference),
		Notes:     notes,
		Status:    PaymentStatusCompleted,
		CreatedAt: time.Now(),
	}
	inv.Payments = append(inv.Payments, payment)
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.Touch()
	inv.Raise(NewInvoicePaymentRecordedEvent(inv, &payment))

	if inv.AmountPaid.GreaterThanOrEqual(inv.Total) {
		if err := inv.MarkPaid(paidAt); err != nil {
			return nil, err
		}
	}
	return &payment, nil
}

// RefundPayment reverses all or part of a completed payment. A zero amount
// refunds whatever is left of the payment. The refund is recorded as a
// negative entry linked to the original, which is marked refunded once
// nothing is left. A paid invoice that is no longer covered reopens as sent,
// or overdue when its due date has passed.
func (inv *Invoice) RefundPayment(paymentID uuid.UUID, amount decimal.Decimal, reason string, now time.Time) (*Payment, error) {
	if inv.Status != StatusPaid && !inv.Status.IsOutstanding() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund payment for invoice in %s status", inv.Status))
	}
	idx := inv.paymentIndex(paymentID)
	if idx < 0 {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found on this invoice")
	}
	original := &inv.Payments[idx]
	if original.IsRefund {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATE", "A refund cannot be refunded")
	}
	if original.Status != PaymentStatusCompleted {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATE", fmt.Sprintf("Cannot refund payment with status %s", original.Status))
	}

	remaining := original.Amount.Sub(inv.RefundedAmount(paymentID))
	if amount.IsZero() {
		amount = remaining
	}
	if !amount.IsPositive() || amount.GreaterThan(remaining) {
		return nil, shared.NewDomainError("INVALID_REFUND_AMOUNT",
			fmt.Sprintf("Refund amount must be positive and at most %s", remaining.StringFixed(2)))
	}

	if amount.Equal(remaining) {
		original.Status = PaymentStatusRefunded
	}
	refundOf := original.ID
	refund := Payment{
		ID:           uuid.New(),
		InvoiceID:    inv.ID,
		Amount:       amount.Neg(),
		Method:       original.Method,
		PaidAt:       now,
		Reference:    refundReference(original.Reference),
		Notes:        fmt.Sprintf("Refund for payment %s", original.ID),
		Status:       PaymentStatusCompleted,
		IsRefund:     true,
		RefundOf:     &refundOf,
		RefundReason: strings.TrimSpace(reason),
		CreatedAt:    time.Now(),
	}
	inv.Payments = append(inv.Payments, refund)
	inv.AmountPaid = inv.AmountPaid.Sub(amount)
	inv.Touch()
	inv.Raise(NewInvoicePaymentRefundedEvent(inv, &refund))

	if inv.Status == StatusPaid && inv.AmountPaid.LessThan(inv.Total) {
		inv.reopen(now)
	}
	return &refund, nil
}

// RefundedAmount sums the refunds recorded against a payment
func (inv *Invoice) RefundedAmount(paymentID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range inv.Payments {
		if p.IsRefund && p.RefundOf != nil && *p.RefundOf == paymentID {
			sum = sum.Add(p.Amount.Neg())
		}
	}
	return sum
}

func (inv *Invoice) paymentIndex(id uuid.UUID) int {
	for i := range inv.Payments {
		if inv.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

// reopen moves a paid invoice back to an outstanding status. It is the only
// way out of paid, so it bypasses the transition table.
func (inv *Invoice) reopen(now time.Time) {
	target := StatusSent
	if now.After(inv.DueDate) {
		target = StatusOverdue
	}
	old := inv.Status
	inv.Status = target
	inv.PaidAt = nil
	inv.Touch()
	inv.Raise(NewInvoiceStatusChangedEvent(inv, old, target))
}

// IsOverpaid reports whether payments exceed the invoice total
func (inv *Invoice) IsOverpaid() bool {
	return inv.AmountPaid.GreaterThan(inv.Total)
}

// CanDelete reports whether the invoice may be removed
func (inv *Invoice) CanDelete() bool {
	return inv.Status == StatusDraft || inv.Status == StatusCancelled
}

// MarkDeleted records the deletion event
func (inv *Invoice) MarkDeleted() error {
	if !inv.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
	}
	inv.Raise(NewInvoiceDeletedEvent(inv))
	return nil
}

func (inv *Invoice) transition(target Status) error {
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot change invoice status from %s to %s", inv.Status, target))
	}
	old := inv.Status
	inv.Status = target
	inv.Touch()
	inv.Raise(NewInvoiceStatusChangedEvent(inv, old, target))
	return nil
}

func validateInvoiceNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	return nil
}

func validateDates(issueDate, dueDate time.Time) error {
	if issueDate.IsZero() {
		return shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if dueDate.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	if dueDate.Before(issueDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	return nil
}

func validateRecipientEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if len(email) > 255 {
		return shared.NewDomainError("INVALID_EMAIL", "Recipient email cannot exceed 255 characters")
	}
	if !shared.IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid recipient email format")
	}
	return nil
}
