package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence.
// Supported filter keys: customer_id, user_id, status.
type InvoiceRepository interface {
	// FindByID loads an invoice with its items and payments
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber loads an invoice by its invoice number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindAll finds invoices matching the filter, newest first by default
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindPastDue finds outstanding (sent or reminder_sent) invoices whose
	// due date is before asOf
	FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)

	// CountByCustomer counts invoices belonging to a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// ExistsByNumber checks whether an invoice number is taken
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// GenerateInvoiceNumber returns the next free number for the year of issueDate
	GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error)

	// Save creates an invoice or replaces its items and payments
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice only if its version is unchanged
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Delete deletes an invoice with its items and payments
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats aggregates invoice counts and paid revenue
	Stats(ctx context.Context) (*Stats, error)
}
