package partner

import (
	"cmp"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	Email      string `json:"email" binding:"required,email,max=255"`
	Company    string `json:"company" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=20"`
	Address    string `json:"address" binding:"max=255"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=100"`
	Notes      string `json:"notes"`
}

// details returns the optional fields of the request
func (r CreateCustomerRequest) details() partner.CustomerDetails {
	return partner.CustomerDetails{
		Company:    r.Company,
		Phone:      r.Phone,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Notes:      r.Notes,
	}
}

// UpdateCustomerRequest represents a request to update a customer.
// Nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Company    *string `json:"company" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	Address    *string `json:"address" binding:"omitempty,max=255"`
	City       *string `json:"city" binding:"omitempty,max=100"`
	State      *string `json:"state" binding:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" binding:"omitempty,max=20"`
	Country    *string `json:"country" binding:"omitempty,max=100"`
	Notes      *string `json:"notes"`
}

// applyDetails overlays the non-nil optional fields onto d
func (r UpdateCustomerRequest) applyDetails(d partner.CustomerDetails) (partner.CustomerDetails, bool) {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
			changed = true
		}
	}
	set(&d.Company, r.Company)
	set(&d.Phone, r.Phone)
	set(&d.Address, r.Address)
	set(&d.City, r.City)
	set(&d.State, r.State)
	set(&d.PostalCode, r.PostalCode)
	set(&d.Country, r.Country)
	set(&d.Notes, r.Notes)
	return d, changed
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Company     string    `json:"company"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postal_code"`
	Country     string    `json:"country"`
	FullAddress string    `json:"full_address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// CustomerListFilter represents filter options for customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	Country  string `form:"country"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// query maps the request onto a repository filter, defaulting to the
// first page of customers sorted by name
func (f CustomerListFilter) query() shared.Filter {
	q := shared.Filter{
		Page:     max(f.Page, 1),
		PageSize: f.PageSize,
		OrderBy:  cmp.Or(f.OrderBy, "name"),
		OrderDir: cmp.Or(f.OrderDir, "asc"),
		Search:   f.Search,
		Filters:  map[string]any{},
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if f.Country != "" {
		q.Filters["country"] = f.Country
	}
	return q
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Company:     c.Company,
		DisplayName: c.DisplayName(),
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		PostalCode:  c.PostalCode,
		Country:     c.Country,
		FullAddress: c.GetFullAddress(),
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
}

// ToCustomerResponses converts a slice of domain Customers to responses
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
