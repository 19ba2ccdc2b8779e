package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodOther        PaymentMethod = "other"
)

const maxPaymentReference = 100

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCreditCard, PaymentMethodCash,
		PaymentMethodCheck, PaymentMethodPayPal, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is a payment received against an invoice. A refund is stored as a
// payment with a negative amount that points at the payment it reverses.
type Payment struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	Amount       decimal.Decimal
	Method       PaymentMethod
	PaidAt       time.Time
	Reference    string
	Notes        string
	Status       PaymentStatus
	IsRefund     bool
	RefundOf     *uuid.UUID
	RefundReason string
	CreatedAt    time.Time
}

// refundReference derives the reference of a refund entry from the payment
// it reverses
func refundReference(reference string) string {
	if reference == "" {
		return ""
	}
	ref := "REFUND-" + reference
	if len(ref) > maxPaymentReference {
		ref = ref[:maxPaymentReference]
	}
	return ref
}
