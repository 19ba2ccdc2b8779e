package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var customerList = listSpec{
	search: []string{"name", "email", "company"},
	equals: map[string]string{"country": "country", "city": "city"},
	sortable: map[string]bool{
		"name": true, "email": true, "company": true, "country": true,
		"created_at": true, "updated_at": true,
	},
	defaultSort: "name",
	defaultDir:  "ASC",
}

// GormCustomerRepository stores the customer directory in the customers table
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) first(ctx context.Context, query string, args ...interface{}) (*partner.Customer, error) {
	var row models.CustomerModel
	err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return row.ToDomain(), nil
}

// FindByID returns shared.ErrNotFound when no customer has the ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail looks a customer up by normalized email
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	return r.first(ctx, "email = ?", email)
}

// FindAll returns one page of customers, by name unless another sort is given
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	var rows []models.CustomerModel
	query := customerList.page(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	customers := make([]partner.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

// Count returns the number of customers matching the filter, ignoring paging
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var n int64
	query := customerList.where(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Save inserts or updates the customer row
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error
}

// Delete removes the customer row, or returns shared.ErrNotFound
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByEmail reports whether the normalized email is taken
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("email = ?", email).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return n > 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
