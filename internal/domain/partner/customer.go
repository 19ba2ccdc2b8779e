package partner

import (
	"regexp"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
)

var validPhone = regexp.MustCompile(`^[\d\s\-\(\)\+\.]+$`)

// Customer is a business client that receives invoices.
// It is the aggregate root of the customer directory.
type Customer struct {
	shared.Aggregate
	Name       string
	Email      string
	Company    string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	Notes      string
}

// CustomerDetails holds the optional contact and billing fields of a customer
type CustomerDetails struct {
	Company    string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	Notes      string
}

// NewCustomer creates a new customer with the required name and email
func NewCustomer(name, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	customer := &Customer{
		Aggregate: shared.NewAggregate(),
		Name:      name,
		Email:     email,
	}

	customer.Raise(customerEvent(EventTypeCustomerCreated, customer))

	return customer, nil
}

// Update replaces the customer's name and email
func (c *Customer) Update(name, email string) error {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	c.Name = name
	c.Email = email
	c.Touch()

	c.Raise(customerEvent(EventTypeCustomerUpdated, c))

	return nil
}

// SetDetails sets the optional contact and address fields
func (c *Customer) SetDetails(details CustomerDetails) error {
	if err := validateDetails(details); err != nil {
		return err
	}

	c.Company = strings.TrimSpace(details.Company)
	c.Phone = strings.TrimSpace(details.Phone)
	c.Address = strings.TrimSpace(details.Address)
	c.City = strings.TrimSpace(details.City)
	c.State = strings.TrimSpace(details.State)
	c.PostalCode = strings.TrimSpace(details.PostalCode)
	c.Country = strings.TrimSpace(details.Country)
	c.Notes = details.Notes
	c.Touch()

	return nil
}

// Details returns the optional fields of the customer
func (c *Customer) Details() CustomerDetails {
	return CustomerDetails{
		Company:    c.Company,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		Country:    c.Country,
		Notes:      c.Notes,
	}
}

// MarkDeleted records the deletion event
func (c *Customer) MarkDeleted() {
	c.Raise(customerEvent(EventTypeCustomerDeleted, c))
}

// DisplayName returns the company when set, otherwise the contact name
func (c *Customer) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// GetFullAddress returns the formatted billing address
func (c *Customer) GetFullAddress() string {
	parts := []string{}
	for _, part := range []string{c.Address, c.City, c.State, c.PostalCode, c.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// Validation functions

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Customer email cannot be empty")
	}
	if len(email) > 255 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 255 characters")
	}
	if !shared.IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 20 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 20 characters")
	}
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateDetails(d CustomerDetails) error {
	if len(strings.TrimSpace(d.Company)) > 100 {
		return shared.NewDomainError("INVALID_COMPANY", "Company cannot exceed 100 characters")
	}
	if phone := strings.TrimSpace(d.Phone); phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if len(strings.TrimSpace(d.Address)) > 255 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 255 characters")
	}
	if len(strings.TrimSpace(d.City)) > 100 {
		return shared.NewDomainError("INVALID_CITY", "City cannot exceed 100 characters")
	}
	if len(strings.TrimSpace(d.State)) > 100 {
		return shared.NewDomainError("INVALID_STATE", "State cannot exceed 100 characters")
	}
	if len(strings.TrimSpace(d.PostalCode)) > 20 {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code cannot exceed 20 characters")
	}
	if len(strings.TrimSpace(d.Country)) > 100 {
		return shared.NewDomainError("INVALID_COUNTRY", "Country cannot exceed 100 characters")
	}
	return nil
}
