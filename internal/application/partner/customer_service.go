package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
)

// InvoiceCounter reports how many invoices reference a customer
type InvoiceCounter interface {
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	invoiceCounter InvoiceCounter
	eventPublisher shared.EventPublisher
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, invoiceCounter InvoiceCounter) *CustomerService {
	return &CustomerService{
		customerRepo:   customerRepo,
		invoiceCounter: invoiceCounter,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	customer, err := partner.NewCustomer(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := customer.SetDetails(req.details()); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, customer)

	return respond(customer), nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return respond(customer), nil
}

// List retrieves customers with search, country filter and pagination
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	q := filter.query()

	customers, err := s.customerRepo.FindAll(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Update updates a customer
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Email != nil {
		name := customer.Name
		email := customer.Email
		if req.Name != nil {
			name = *req.Name
		}
		if req.Email != nil {
			if normalized := normalizeEmail(*req.Email); normalized != customer.Email {
				if err := s.ensureEmailFree(ctx, normalized); err != nil {
					return nil, err
				}
			}
			email = *req.Email
		}
		if err := customer.Update(name, email); err != nil {
			return nil, err
		}
	}

	if details, changed := req.applyDetails(customer.Details()); changed {
		if err := customer.SetDetails(details); err != nil {
			return nil, err
		}
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, customer)

	return respond(customer), nil
}

// Delete deletes a customer that has no invoices
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}

	count, err := s.invoiceCounter.CountByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CUSTOMER_HAS_INVOICES", "Customer cannot be deleted while invoices reference it")
	}

	if err := s.customerRepo.Delete(ctx, customerID); err != nil {
		return err
	}

	customer.MarkDeleted()
	s.publishDomainEvents(ctx, customer)
	return nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.customerRepo.ExistsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Customer with this email already exists")
	}
	return nil
}

// publishDomainEvents publishes and clears the customer's pending events
func (s *CustomerService) publishDomainEvents(ctx context.Context, customer *partner.Customer) {
	if s.eventPublisher == nil {
		customer.ClearEvents()
		return
	}
	events := customer.PendingEvents()
	if len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	customer.ClearEvents()
}

func respond(c *partner.Customer) *CustomerResponse {
	r := ToCustomerResponse(c)
	return &r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
