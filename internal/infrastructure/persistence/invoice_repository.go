package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultInvoiceNumberPrefix is used when no prefix is configured
const DefaultInvoiceNumberPrefix = "INV"

var invoiceList = listSpec{
	search: []string{"invoice_number", "recipient_email"},
	equals: map[string]string{"customer_id": "customer_id", "user_id": "user_id", "status": "status"},
	sortable: map[string]bool{
		"invoice_number": true, "issue_date": true, "due_date": true, "status": true,
		"total": true, "amount_paid": true, "created_at": true, "updated_at": true,
	},
	defaultSort: "created_at",
	defaultDir:  "DESC",
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db           *gorm.DB
	numberPrefix string
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository. Invoice
// numbers are generated as <prefix>-YYYY-NNNN.
func NewGormInvoiceRepository(db *gorm.DB, numberPrefix string) *GormInvoiceRepository {
	numberPrefix = strings.TrimSpace(numberPrefix)
	if numberPrefix == "" {
		numberPrefix = DefaultInvoiceNumberPrefix
	}
	return &GormInvoiceRepository{db: db, numberPrefix: numberPrefix}
}

// FindByID loads an invoice with its items and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withChildren(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber loads an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withChildren(r.db.WithContext(ctx)).
		Where("invoice_number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := invoiceList.page(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)

	if err := r.withChildren(query).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := invoiceList.where(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindPastDue finds sent or reminded invoices whose due date is before asOf,
// oldest due date first
func (r *GormInvoiceRepository) FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?",
			[]invoicing.Status{invoicing.StatusSent, invoicing.StatusReminderSent}, asOf).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := r.withChildren(query).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// CountByCustomer counts invoices for a customer
func (r *GormInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNumber checks if an invoice number exists
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateInvoiceNumber generates the next invoice number for the year of
// issueDate. Format: INV-YYYY-NNNN (e.g., INV-2026-0001)
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	prefix := fmt.Sprintf("%s-%d-", r.numberPrefix, issueDate.Year())

	// Longer numbers sort first so INV-2026-10000 wins over INV-2026-9999
	var last models.InvoiceModel
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"%").
		Order("LENGTH(invoice_number) DESC, invoice_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.InvoiceNumber != "" {
		var num int64
		if _, parseErr := fmt.Sscanf(strings.TrimPrefix(last.InvoiceNumber, prefix), "%d", &num); parseErr == nil {
			nextNum = num + 1
		}
	}

	number := fmt.Sprintf("%s%04d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	for i := 0; exists && i < 100; i++ {
		nextNum++
		number = fmt.Sprintf("%s%04d", prefix, nextNum)
		if exists, err = r.ExistsByNumber(ctx, number); err != nil {
			return "", err
		}
	}
	if exists {
		return "", shared.NewDomainError("INVOICE_NUMBER_EXHAUSTED", "Could not allocate a unique invoice number")
	}

	return number, nil
}

// Save creates or updates an invoice. Items and payments no longer present on
// the aggregate are deleted.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return syncInvoiceChildren(tx, model)
	})
}

// SaveWithLock saves with optimistic locking (version check). The version is
// incremented on success.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.InvoiceModel
		if err := tx.Select("id", "version").First(&current, "id = ?", invoice.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if current.Version != invoice.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
		}

		nextVersion := invoice.Version + 1
		updatedAt := time.Now()
		model := models.InvoiceModelFromDomain(invoice)

		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", invoice.ID, current.Version).
			Updates(map[string]any{
				"customer_id":      model.CustomerID,
				"issue_date":       model.IssueDate,
				"due_date":         model.DueDate,
				"status":           model.Status,
				"currency_code":    model.CurrencyCode,
				"notes":            model.Notes,
				"recipient_email":  model.RecipientEmail,
				"subtotal":         model.Subtotal,
				"tax_rate":         model.TaxRate,
				"tax_amount":       model.TaxAmount,
				"total":            model.Total,
				"amount_paid":      model.AmountPaid,
				"reminder_count":   model.ReminderCount,
				"last_reminder_at": model.LastReminderAt,
				"sent_at":          model.SentAt,
				"paid_at":          model.PaidAt,
				"cancelled_at":     model.CancelledAt,
				"cancel_reason":    model.CancelReason,
				"version":          nextVersion,
				"updated_at":       updatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
		}

		if err := syncInvoiceChildren(tx, model); err != nil {
			return err
		}

		invoice.Version = nextVersion
		invoice.UpdatedAt = updatedAt
		return nil
	})
}

// Delete deletes an invoice with its items and payments
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.InvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type statusCountRow struct {
	Status string
	Count  int64
}

// Stats aggregates invoice counts per status and the revenue of paid invoices
func (r *GormInvoiceRepository) Stats(ctx context.Context) (*invoicing.Stats, error) {
	stats := invoicing.NewStats()

	var rows []statusCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.StatusCounts[invoicing.Status(row.Status)] = row.Count
		stats.TotalInvoices += row.Count
	}

	var revenue decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("SUM(total)").
		Where("status = ?", invoicing.StatusPaid).
		Row().Scan(&revenue); err != nil {
		return nil, err
	}
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	return stats, nil
}

func (r *GormInvoiceRepository) withChildren(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC").Order("created_at ASC")
		})
}

// syncInvoiceChildren deletes items and payments that are no longer on the
// invoice and upserts the remaining ones
func syncInvoiceChildren(tx *gorm.DB, model *models.InvoiceModel) error {
	itemIDs := make([]uuid.UUID, len(model.Items))
	for i, item := range model.Items {
		itemIDs[i] = item.ID
	}
	itemQuery := tx.Where("invoice_id = ?", model.ID)
	if len(itemIDs) > 0 {
		itemQuery = itemQuery.Where("id NOT IN ?", itemIDs)
	}
	if err := itemQuery.Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}
	for i := range model.Items {
		if err := tx.Save(&model.Items[i]).Error; err != nil {
			return err
		}
	}

	paymentIDs := make([]uuid.UUID, len(model.Payments))
	for i, payment := range model.Payments {
		paymentIDs[i] = payment.ID
	}
	paymentQuery := tx.Where("invoice_id = ?", model.ID)
	if len(paymentIDs) > 0 {
		paymentQuery = paymentQuery.Where("id NOT IN ?", paymentIDs)
	}
	if err := paymentQuery.Delete(&models.PaymentModel{}).Error; err != nil {
		return err
	}
	for i := range model.Payments {
		if err := tx.Save(&model.Payments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
